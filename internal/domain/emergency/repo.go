package emergency

import (
	"context"
	"errors"
)

// ErrNotInitialized is returned by Load before the first Save.
var ErrNotInitialized = errors.New("emergency status not initialized")

type Repository interface {
	Load(ctx context.Context) (*Status, error)
	Save(ctx context.Context, s *Status) error
}
