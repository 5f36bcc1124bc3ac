package leave

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// MarkReviewed transitions pending → status and records the reviewer.
	// It returns ErrAlreadyReviewed when the request is no longer pending.
	MarkReviewed(ctx context.Context, id uuid.UUID, status string, reviewerID uuid.UUID, reviewedAt time.Time, adminNotes *string) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Request, int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Request, int, error)
}
