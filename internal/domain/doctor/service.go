package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hospital-api/internal/domain/schedule"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Provision creates the doctor profile for a freshly created doctor-role
// user. The profile starts with an empty schedule; the default week is
// installed explicitly on first use, never here. This is the explicit
// replacement for the reactive on-create hook the booking flow used to
// rely on.
func (s *Service) Provision(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user_id is required")
	}
	d := &Doctor{
		UserID:     userID,
		Active:     true,
		LeaveDates: []string{},
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update applies admin edits. An emergency-service doctor carries no
// department; the combination is rejected rather than silently fixed.
func (s *Service) Update(ctx context.Context, d *Doctor) error {
	if d.EmergencyDoctor && d.DepartmentID != nil {
		return fmt.Errorf("an emergency service doctor cannot belong to a department")
	}
	if err := d.WorkingHours.Validate(); err != nil {
		return fmt.Errorf("working_hours: %w", err)
	}
	return s.repo.Update(ctx, d)
}

// SetSchedule replaces the weekly schedule after boundary validation.
func (s *Service) SetSchedule(ctx context.Context, id uuid.UUID, ws schedule.WeekSchedule) error {
	if err := ws.Validate(); err != nil {
		return fmt.Errorf("working_hours: %w", err)
	}
	return s.repo.UpdateSchedule(ctx, id, ws)
}

// EnsureDefaultSchedule installs the Mon-Fri 08:00-17:00 default iff the
// doctor has no schedule configured yet. It returns the doctor with the
// schedule that is now in effect.
func (s *Service) EnsureDefaultSchedule(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.WorkingHours.IsZero() {
		return d, nil
	}
	d.WorkingHours = schedule.DefaultWeek()
	if err := s.repo.UpdateSchedule(ctx, id, d.WorkingHours); err != nil {
		return nil, err
	}
	return d, nil
}

// AddLeaveDate records an approved leave day. Safe to call twice for the
// same date.
func (s *Service) AddLeaveDate(ctx context.Context, id uuid.UUID, date time.Time) error {
	return s.repo.AddLeaveDate(ctx, id, date.Format(schedule.DateLayout))
}

// IsAvailableOnDate answers for a single doctor, by id.
func (s *Service) IsAvailableOnDate(ctx context.Context, id uuid.UUID, date time.Time) (bool, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return schedule.IsAvailableOnDate(d.WorkingHours, d.LeaveDates, date), nil
}

// AvailableDoctorsForDate returns the active doctors of a department that
// are individually available on the date. Department sizes are small, so a
// linear scan is fine.
func (s *Service) AvailableDoctorsForDate(ctx context.Context, departmentID uuid.UUID, date time.Time) ([]*Doctor, error) {
	doctors, err := s.repo.ListActiveByDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	var available []*Doctor
	for _, d := range doctors {
		if schedule.IsAvailableOnDate(d.WorkingHours, d.LeaveDates, date) {
			available = append(available, d)
		}
	}
	return available, nil
}

// DepartmentHasAvailability reports whether any active doctor of the
// department works on the date.
func (s *Service) DepartmentHasAvailability(ctx context.Context, departmentID uuid.UUID, date time.Time) (bool, error) {
	doctors, err := s.repo.ListActiveByDepartment(ctx, departmentID)
	if err != nil {
		return false, err
	}
	for _, d := range doctors {
		if schedule.IsAvailableOnDate(d.WorkingHours, d.LeaveDates, date) {
			return true, nil
		}
	}
	return false, nil
}
