package report

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("medical report not found")
	// ErrReportExists enforces the one-report-per-appointment rule.
	ErrReportExists = errors.New("a report already exists for this appointment")
)

// MedicalReport is the doctor's written report for a single appointment.
type MedicalReport struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
