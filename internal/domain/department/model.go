package department

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultAppointmentFee is charged when a department has no fee configured
// or the doctor has no department (emergency doctors).
var DefaultAppointmentFee = decimal.NewFromInt(500)

// Department maps to the department table.
type Department struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Description    *string         `db:"description" json:"description,omitempty"`
	AppointmentFee decimal.Decimal `db:"appointment_fee" json:"appointment_fee"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}
