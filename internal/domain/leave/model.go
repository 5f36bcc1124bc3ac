package leave

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	ErrNotFound = errors.New("leave request not found")
	// ErrAlreadyReviewed guards the terminal states: a request reviewed
	// once is never reviewed again.
	ErrAlreadyReviewed = errors.New("leave request has already been reviewed")
)

// Request is a doctor's petition for a single day off. Approval feeds the
// date into the doctor's leave calendar; rejection has no side effect.
type Request struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	RequestedDate time.Time  `db:"requested_date" json:"requested_date"`
	Reason        *string    `db:"reason" json:"reason,omitempty"`
	Status        string     `db:"status" json:"status"`
	ReviewedBy    *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	AdminNotes    *string    `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
