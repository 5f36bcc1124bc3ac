package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create returns ErrReportExists when the appointment already has one.
	Create(ctx context.Context, r *MedicalReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalReport, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*MedicalReport, error)
	Update(ctx context.Context, r *MedicalReport) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error)
}
