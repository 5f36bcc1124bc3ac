package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByNationalID(ctx context.Context, nationalID string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	List(ctx context.Context, role string, limit, offset int) ([]*User, int, error)

	CreateResetToken(ctx context.Context, t *PasswordResetToken) error
	GetResetToken(ctx context.Context, token string) (*PasswordResetToken, error)
	// MarkResetTokenUsed only succeeds once per token.
	MarkResetTokenUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error
}
