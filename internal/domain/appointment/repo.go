package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts the appointment. The storage layer enforces the
	// (doctor, date, time) uniqueness among non-cancelled rows and
	// implementations return ErrSlotTaken on a constraint violation.
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes ClinicalNotes) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// BookedTimes returns the HH:MM times with a non-cancelled appointment
	// for the doctor on the date.
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	// ExistsActive reports whether a non-cancelled appointment occupies the
	// exact (doctor, date, time) slot. This pre-check only produces a
	// friendlier error; the unique index remains the real guarantee.
	ExistsActive(ctx context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string) (bool, error)

	CreateSMS(ctx context.Context, m *SMSMessage) error
	ListSMSByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*SMSMessage, error)
}
