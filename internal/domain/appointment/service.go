package appointment

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/hospital-api/internal/domain/department"
	"github.com/hospital/hospital-api/internal/domain/doctor"
	"github.com/hospital/hospital-api/internal/domain/schedule"
)

// DoctorDirectory is the slice of the doctor service the booking flow
// needs: the doctor with their effective schedule, defaults installed.
type DoctorDirectory interface {
	EnsureDefaultSchedule(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

// FeeSource resolves the examination fee for a department.
type FeeSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*department.Department, error)
}

// Notifier delivers booking messages. Implementations must not block the
// request path; failures are logged, never surfaced to the caller.
type Notifier interface {
	BookingConfirmed(ctx context.Context, a *Appointment)
	BookingCancelled(ctx context.Context, a *Appointment)
	PatientSMS(ctx context.Context, m *SMSMessage)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) BookingConfirmed(context.Context, *Appointment) {}
func (NopNotifier) BookingCancelled(context.Context, *Appointment) {}
func (NopNotifier) PatientSMS(context.Context, *SMSMessage)       {}

// Config carries the tunables of the booking flow. Zero values fall back
// to the standard 30-minute slots, 6-hour cancellation window and the
// default examination fee.
type Config struct {
	SlotMinutes  int
	CancelWindow time.Duration
	DefaultFee   decimal.Decimal
}

type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	fees     FeeSource
	notifier Notifier

	slotMinutes  int
	cancelWindow time.Duration
	defaultFee   decimal.Decimal

	now func() time.Time
}

func NewService(repo Repository, doctors DoctorDirectory, fees FeeSource, notifier Notifier, cfg Config) *Service {
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = schedule.DefaultSlotMinutes
	}
	if cfg.CancelWindow <= 0 {
		cfg.CancelWindow = 6 * time.Hour
	}
	if cfg.DefaultFee.IsZero() {
		cfg.DefaultFee = department.DefaultAppointmentFee
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:         repo,
		doctors:      doctors,
		fees:         fees,
		notifier:     notifier,
		slotMinutes:  cfg.SlotMinutes,
		cancelWindow: cfg.CancelWindow,
		defaultFee:   cfg.DefaultFee,
		now:          time.Now,
	}
}

// BookingRequest is the validated input to CreateBooking. PatientID must
// already be resolved; patient lookup and creation happen upstream.
type BookingRequest struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	TimeOfDay string
	Notes     *string
}

// CreateBooking runs the booking checks in a fixed order so the caller
// always sees the most fundamental failure first: weekend closure, then
// the doctor's day-level availability, then the working-hours window,
// then slot occupancy. The unique index re-checks occupancy at insert, so
// two racing requests for the same slot cannot both succeed.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if _, err := time.Parse(schedule.TimeLayout, req.TimeOfDay); err != nil {
		return nil, fmt.Errorf("time must be HH:MM: %w", err)
	}

	if schedule.IsWeekend(req.Date) {
		return nil, ErrClosedWeekend
	}

	doc, err := s.doctors.EnsureDefaultSchedule(ctx, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("resolve doctor: %w", err)
	}
	if !schedule.IsAvailableOnDate(doc.WorkingHours, doc.LeaveDates, req.Date) {
		return nil, ErrDoctorUnavailable
	}

	window, _ := doc.WorkingHours.WindowForWeekday(schedule.Weekday(req.Date))
	if !window.ContainsTime(req.TimeOfDay) {
		return nil, &OutsideWorkingHoursError{Start: window.Start, End: window.End}
	}

	taken, err := s.repo.ExistsActive(ctx, req.DoctorID, req.Date, req.TimeOfDay)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	fee, err := s.resolveFee(ctx, doc)
	if err != nil {
		return nil, err
	}
	token, err := newCancelToken()
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		Date:        req.Date,
		TimeOfDay:   req.TimeOfDay,
		Status:      StatusCompleted,
		Fee:         fee,
		CancelToken: token,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.notifier.BookingConfirmed(ctx, a)
	return a, nil
}

// resolveFee takes the department's examination fee; doctors without a
// department (emergency service) charge the configured default.
func (s *Service) resolveFee(ctx context.Context, doc *doctor.Doctor) (decimal.Decimal, error) {
	if doc.DepartmentID == nil {
		return s.defaultFee, nil
	}
	dept, err := s.fees.GetByID(ctx, *doc.DepartmentID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolve department fee: %w", err)
	}
	if dept.AppointmentFee.IsZero() {
		return s.defaultFee, nil
	}
	return dept.AppointmentFee, nil
}

func newCancelToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cancel token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AvailableSlots lists the open HH:MM slots for the doctor on the date.
// Weekends, leave days and fully booked days come back as an empty list,
// never an error.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	doc, err := s.doctors.EnsureDefaultSchedule(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("resolve doctor: %w", err)
	}
	times, err := s.repo.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]bool, len(times))
	for _, t := range times {
		booked[t] = true
	}
	return schedule.AvailableSlots(doc.WorkingHours, doc.LeaveDates, date, s.slotMinutes, booked), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

// CancelByToken is the unauthenticated cancellation path reached from the
// link in the confirmation mail. The token is checked before the state so
// a guessing caller learns nothing about the appointment; repeating a
// valid cancellation reports ErrAlreadyCancelled rather than succeeding
// twice.
func (s *Service) CancelByToken(ctx context.Context, id uuid.UUID, token string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.CancelToken)) != 1 {
		return ErrInvalidToken
	}
	return s.cancel(ctx, a, true)
}

// CancelByAdmin cancels on behalf of staff. Neither the token nor the
// 6-hour window applies, but a cancelled appointment stays cancelled.
func (s *Service) CancelByAdmin(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.cancel(ctx, a, false)
}

func (s *Service) cancel(ctx context.Context, a *Appointment, enforceWindow bool) error {
	if a.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if enforceWindow && s.now().After(a.StartsAt().Add(-s.cancelWindow)) {
		return ErrTooLateToCancel
	}
	if err := s.repo.UpdateStatus(ctx, a.ID, StatusCancelled); err != nil {
		return err
	}
	a.Status = StatusCancelled
	s.notifier.BookingCancelled(ctx, a)
	return nil
}

// AddNotes attaches the doctor's examination record. Cancelled
// appointments never carry clinical notes.
func (s *Service) AddNotes(ctx context.Context, id uuid.UUID, notes ClinicalNotes) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if err := s.repo.UpdateNotes(ctx, id, notes); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// SendSMS records and delivers a doctor-to-patient message tied to an
// appointment.
func (s *Service) SendSMS(ctx context.Context, appointmentID uuid.UUID, message string) (*SMSMessage, error) {
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}
	a, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	m := &SMSMessage{
		AppointmentID: a.ID,
		DoctorID:      a.DoctorID,
		PatientID:     a.PatientID,
		Message:       message,
	}
	if err := s.repo.CreateSMS(ctx, m); err != nil {
		return nil, err
	}
	s.notifier.PatientSMS(ctx, m)
	return m, nil
}

func (s *Service) ListSMS(ctx context.Context, appointmentID uuid.UUID) ([]*SMSMessage, error) {
	return s.repo.ListSMSByAppointment(ctx, appointmentID)
}
