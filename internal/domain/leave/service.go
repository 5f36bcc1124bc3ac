package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hospital-api/internal/domain/schedule"
)

// DoctorCalendar is the slice of the doctor service the approval flow
// needs. AddLeaveDate is idempotent, so replaying an approval is safe.
type DoctorCalendar interface {
	AddLeaveDate(ctx context.Context, id uuid.UUID, date time.Time) error
}

type Service struct {
	repo    Repository
	doctors DoctorCalendar
	now     func() time.Time
}

func NewService(repo Repository, doctors DoctorCalendar) *Service {
	return &Service{repo: repo, doctors: doctors, now: time.Now}
}

// Submit files a pending request. Weekend dates are rejected up front:
// the hospital is closed then, so there is nothing to take leave from.
func (s *Service) Submit(ctx context.Context, doctorID uuid.UUID, date time.Time, reason *string) (*Request, error) {
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if schedule.IsWeekend(date) {
		return nil, fmt.Errorf("leave cannot be requested for a weekend")
	}
	req := &Request{
		DoctorID:      doctorID,
		RequestedDate: date,
		Reason:        reason,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Request, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*Request, int, error) {
	return s.repo.ListByStatus(ctx, StatusPending, limit, offset)
}

// Approve grants the leave. The calendar update runs before the status
// flip: if two reviewers race, both calendar writes are idempotent and
// the status guard lets exactly one approval through.
func (s *Service) Approve(ctx context.Context, id, reviewerID uuid.UUID, adminNotes *string) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrAlreadyReviewed
	}
	if err := s.doctors.AddLeaveDate(ctx, req.DoctorID, req.RequestedDate); err != nil {
		return nil, fmt.Errorf("record leave date: %w", err)
	}
	if err := s.repo.MarkReviewed(ctx, id, StatusApproved, reviewerID, s.now(), adminNotes); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Reject closes the request with no calendar side effect.
func (s *Service) Reject(ctx context.Context, id, reviewerID uuid.UUID, adminNotes *string) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrAlreadyReviewed
	}
	if err := s.repo.MarkReviewed(ctx, id, StatusRejected, reviewerID, s.now(), adminNotes); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
