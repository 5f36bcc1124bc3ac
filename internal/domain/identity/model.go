package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Account roles. A user holds exactly one.
const (
	RoleAdmin     = "admin"
	RoleSecretary = "secretary"
	RoleDoctor    = "doctor"
	RolePatient   = "patient"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrNationalIDTaken    = errors.New("national id is already registered")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	NationalID   *string   `db:"national_id" json:"national_id,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PasswordResetToken is single-use and expires 24 hours after issue.
type PasswordResetToken struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

func (t *PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSecretary, RoleDoctor, RolePatient:
		return true
	}
	return false
}
