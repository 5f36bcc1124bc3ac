package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hospital/hospital-api/internal/domain/appointment"
)

// AppointmentSource looks up the appointment a report is written for.
type AppointmentSource interface {
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
}

type Service struct {
	repo  Repository
	appts AppointmentSource
}

func NewService(repo Repository, appts AppointmentSource) *Service {
	return &Service{repo: repo, appts: appts}
}

// Create writes the report for an appointment. The visit must have taken
// place: cancelled appointments never get a report.
func (s *Service) Create(ctx context.Context, appointmentID uuid.UUID, title, content string) (*MedicalReport, error) {
	if title == "" || content == "" {
		return nil, fmt.Errorf("title and content are required")
	}
	a, err := s.appts.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if a.Status == appointment.StatusCancelled {
		return nil, fmt.Errorf("cannot write a report for a cancelled appointment")
	}
	m := &MedicalReport{
		AppointmentID: a.ID,
		DoctorID:      a.DoctorID,
		Title:         title,
		Content:       content,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MedicalReport, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*MedicalReport, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, title, content string) (*MedicalReport, error) {
	if title == "" || content == "" {
		return nil, fmt.Errorf("title and content are required")
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Title = title
	m.Content = content
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}
