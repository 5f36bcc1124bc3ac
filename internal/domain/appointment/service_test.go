package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hospital/hospital-api/internal/domain/department"
	"github.com/hospital/hospital-api/internal/domain/doctor"
	"github.com/hospital/hospital-api/internal/domain/schedule"
)

type mockRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*Appointment
	sms   []*SMSMessage
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.appts {
		if ex.DoctorID == a.DoctorID && ex.Date.Equal(a.Date) && ex.TimeOfDay == a.TimeOfDay && ex.Status != StatusCancelled {
			return ErrSlotTaken
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (m *mockRepo) UpdateNotes(_ context.Context, id uuid.UUID, notes ClinicalNotes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.PatientComplaints = notes.PatientComplaints
	a.Diagnosis = notes.Diagnosis
	a.Prescription = notes.Prescription
	a.Recommendations = notes.Recommendations
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			cp := *a
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID {
			cp := *a
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) BookedTimes(_ context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var times []string
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Status != StatusCancelled {
			times = append(times, a.TimeOfDay)
		}
	}
	return times, nil
}

func (m *mockRepo) ExistsActive(_ context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.TimeOfDay == timeOfDay && a.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) CreateSMS(_ context.Context, msg *SMSMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = uuid.New()
	msg.SentAt = time.Now()
	cp := *msg
	m.sms = append(m.sms, &cp)
	return nil
}

func (m *mockRepo) ListSMSByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*SMSMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*SMSMessage
	for _, msg := range m.sms {
		if msg.AppointmentID == appointmentID {
			cp := *msg
			items = append(items, &cp)
		}
	}
	return items, nil
}

type mockDirectory struct {
	doctors map[uuid.UUID]*doctor.Doctor
}

func (m *mockDirectory) EnsureDefaultSchedule(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, errors.New("doctor not found")
	}
	if d.WorkingHours.IsZero() {
		d.WorkingHours = schedule.DefaultWeek()
	}
	cp := *d
	return &cp, nil
}

type mockFees struct {
	departments map[uuid.UUID]*department.Department
}

func (m *mockFees) GetByID(_ context.Context, id uuid.UUID) (*department.Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, errors.New("department not found")
	}
	cp := *d
	return &cp, nil
}

type recordingNotifier struct {
	confirmed int
	cancelled int
	sms       int
}

func (n *recordingNotifier) BookingConfirmed(context.Context, *Appointment) { n.confirmed++ }
func (n *recordingNotifier) BookingCancelled(context.Context, *Appointment) { n.cancelled++ }
func (n *recordingNotifier) PatientSMS(context.Context, *SMSMessage)        { n.sms++ }

type fixture struct {
	svc      *Service
	repo     *mockRepo
	notifier *recordingNotifier
	doctorID uuid.UUID
	deptID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepo()
	notifier := &recordingNotifier{}
	deptID := uuid.New()
	doctorID := uuid.New()
	dir := &mockDirectory{doctors: map[uuid.UUID]*doctor.Doctor{
		doctorID: {
			ID:           doctorID,
			UserID:       uuid.New(),
			DepartmentID: &deptID,
			Active:       true,
			WorkingHours: schedule.DefaultWeek(),
			LeaveDates:   []string{},
		},
	}}
	fees := &mockFees{departments: map[uuid.UUID]*department.Department{
		deptID: {ID: deptID, Name: "Cardiology", AppointmentFee: decimal.NewFromInt(750)},
	}}
	svc := NewService(repo, dir, fees, notifier, Config{})
	return &fixture{svc: svc, repo: repo, notifier: notifier, doctorID: doctorID, deptID: deptID}
}

var (
	wednesday = time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	saturday  = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
)

func (f *fixture) book(t *testing.T, timeOfDay string) *Appointment {
	t.Helper()
	a, err := f.svc.CreateBooking(context.Background(), BookingRequest{
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		Date:      wednesday,
		TimeOfDay: timeOfDay,
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	return a
}

func TestCreateBooking_Weekend(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBooking(context.Background(), BookingRequest{
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		Date:      saturday,
		TimeOfDay: "10:00",
	})
	if !errors.Is(err, ErrClosedWeekend) {
		t.Errorf("got %v, want ErrClosedWeekend", err)
	}
}

func TestCreateBooking_DoctorOnLeave(t *testing.T) {
	f := newFixture(t)
	dir := f.svc.doctors.(*mockDirectory)
	dir.doctors[f.doctorID].LeaveDates = []string{"2025-06-11"}

	_, err := f.svc.CreateBooking(context.Background(), BookingRequest{
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		Date:      wednesday,
		TimeOfDay: "10:00",
	})
	if !errors.Is(err, ErrDoctorUnavailable) {
		t.Errorf("got %v, want ErrDoctorUnavailable", err)
	}
}

func TestCreateBooking_OutsideWorkingHours(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBooking(context.Background(), BookingRequest{
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		Date:      wednesday,
		TimeOfDay: "17:00", // window end is exclusive
	})
	var outside *OutsideWorkingHoursError
	if !errors.As(err, &outside) {
		t.Fatalf("got %v, want OutsideWorkingHoursError", err)
	}
	if outside.Start != "08:00" || outside.End != "17:00" {
		t.Errorf("window = %s-%s, want 08:00-17:00", outside.Start, outside.End)
	}
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	f := newFixture(t)
	f.book(t, "10:00")

	_, err := f.svc.CreateBooking(context.Background(), BookingRequest{
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		Date:      wednesday,
		TimeOfDay: "10:00",
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("got %v, want ErrSlotTaken", err)
	}
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	// Race several bookers for the same slot. The repository enforces
	// uniqueness at insert just like the partial unique index does, so
	// exactly one caller may win regardless of interleaving.
	const callers = 8
	results := make(chan error, callers)
	var release sync.WaitGroup
	release.Add(1)
	var done sync.WaitGroup
	for i := 0; i < callers; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			release.Wait()
			_, err := f.svc.CreateBooking(context.Background(), BookingRequest{
				PatientID: uuid.New(),
				DoctorID:  f.doctorID,
				Date:      wednesday,
				TimeOfDay: "11:00",
			})
			results <- err
		}()
	}
	release.Done()
	done.Wait()
	close(results)

	var booked, slotTaken int
	for err := range results {
		switch {
		case err == nil:
			booked++
		case errors.Is(err, ErrSlotTaken):
			slotTaken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if booked != 1 {
		t.Errorf("bookings succeeded = %d, want exactly 1", booked)
	}
	if slotTaken != callers-1 {
		t.Errorf("ErrSlotTaken count = %d, want %d", slotTaken, callers-1)
	}
	if f.notifier.confirmed != 1 {
		t.Errorf("confirmed notifications = %d, want 1", f.notifier.confirmed)
	}
}

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00")

	if a.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", a.Status, StatusCompleted)
	}
	if !a.Fee.Equal(decimal.NewFromInt(750)) {
		t.Errorf("fee = %s, want department fee 750", a.Fee)
	}
	if len(a.CancelToken) < 32 {
		t.Errorf("cancel token %q too short", a.CancelToken)
	}
	if f.notifier.confirmed != 1 {
		t.Errorf("confirmed notifications = %d, want 1", f.notifier.confirmed)
	}
}

func TestCreateBooking_DefaultFeeWithoutDepartment(t *testing.T) {
	f := newFixture(t)
	dir := f.svc.doctors.(*mockDirectory)
	dir.doctors[f.doctorID].DepartmentID = nil
	dir.doctors[f.doctorID].EmergencyDoctor = true

	a := f.book(t, "10:00")
	if !a.Fee.Equal(department.DefaultAppointmentFee) {
		t.Errorf("fee = %s, want default %s", a.Fee, department.DefaultAppointmentFee)
	}
}

func TestCreateBooking_CancelledSlotReusable(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00")
	f.svc.now = func() time.Time { return wednesday.Add(-24 * time.Hour) }
	if err := f.svc.CancelByAdmin(context.Background(), a.ID); err != nil {
		t.Fatalf("CancelByAdmin: %v", err)
	}

	if _, err := f.svc.CreateBooking(context.Background(), BookingRequest{
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		Date:      wednesday,
		TimeOfDay: "10:00",
	}); err != nil {
		t.Errorf("cancelled slot should be bookable again: %v", err)
	}
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slots, err := f.svc.AvailableSlots(ctx, f.doctorID, wednesday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 18 {
		t.Fatalf("got %d slots, want 18", len(slots))
	}

	f.book(t, "08:00")
	slots, err = f.svc.AvailableSlots(ctx, f.doctorID, wednesday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 17 {
		t.Errorf("got %d slots after booking, want 17", len(slots))
	}
	for _, s := range slots {
		if s == "08:00" {
			t.Error("booked slot still offered")
		}
	}

	slots, err = f.svc.AvailableSlots(ctx, f.doctorID, saturday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("got %d weekend slots, want 0", len(slots))
	}
}

func TestCancelByToken(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00")
	ctx := context.Background()
	f.svc.now = func() time.Time { return wednesday.Add(-24 * time.Hour) }

	if err := f.svc.CancelByToken(ctx, a.ID, "wrong"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
	if err := f.svc.CancelByToken(ctx, a.ID, ""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("empty token: got %v, want ErrInvalidToken", err)
	}

	if err := f.svc.CancelByToken(ctx, a.ID, a.CancelToken); err != nil {
		t.Fatalf("CancelByToken: %v", err)
	}
	got, _ := f.svc.Get(ctx, a.ID)
	if got.Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
	if f.notifier.cancelled != 1 {
		t.Errorf("cancelled notifications = %d, want 1", f.notifier.cancelled)
	}

	// A repeat with the same (still valid) token reports the state, it
	// does not cancel twice.
	if err := f.svc.CancelByToken(ctx, a.ID, a.CancelToken); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("got %v, want ErrAlreadyCancelled", err)
	}
}

func TestCancelByToken_TooLate(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00")

	// Five hours before the 10:00 start is inside the 6-hour window.
	f.svc.now = func() time.Time {
		return time.Date(2025, 6, 11, 5, 0, 0, 0, time.UTC)
	}
	if err := f.svc.CancelByToken(context.Background(), a.ID, a.CancelToken); !errors.Is(err, ErrTooLateToCancel) {
		t.Errorf("got %v, want ErrTooLateToCancel", err)
	}

	// Seven hours before is still fine.
	f.svc.now = func() time.Time {
		return time.Date(2025, 6, 11, 3, 0, 0, 0, time.UTC)
	}
	if err := f.svc.CancelByToken(context.Background(), a.ID, a.CancelToken); err != nil {
		t.Errorf("CancelByToken outside window: %v", err)
	}
}

func TestCancelByAdmin_IgnoresWindow(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00")
	ctx := context.Background()

	f.svc.now = func() time.Time {
		return time.Date(2025, 6, 11, 9, 30, 0, 0, time.UTC)
	}
	if err := f.svc.CancelByAdmin(ctx, a.ID); err != nil {
		t.Fatalf("CancelByAdmin: %v", err)
	}
	if err := f.svc.CancelByAdmin(ctx, a.ID); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("got %v, want ErrAlreadyCancelled", err)
	}
}

func TestAddNotes(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00")
	ctx := context.Background()

	diagnosis := "hypertension"
	got, err := f.svc.AddNotes(ctx, a.ID, ClinicalNotes{Diagnosis: &diagnosis})
	if err != nil {
		t.Fatalf("AddNotes: %v", err)
	}
	if got.Diagnosis == nil || *got.Diagnosis != diagnosis {
		t.Error("diagnosis not recorded")
	}

	f.svc.now = func() time.Time { return wednesday.Add(-24 * time.Hour) }
	if err := f.svc.CancelByAdmin(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.AddNotes(ctx, a.ID, ClinicalNotes{Diagnosis: &diagnosis}); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("got %v, want ErrAlreadyCancelled for cancelled appointment", err)
	}
}

func TestSendSMS(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "10:00")
	ctx := context.Background()

	if _, err := f.svc.SendSMS(ctx, a.ID, ""); err == nil {
		t.Error("empty message should be rejected")
	}

	m, err := f.svc.SendSMS(ctx, a.ID, "please arrive 10 minutes early")
	if err != nil {
		t.Fatalf("SendSMS: %v", err)
	}
	if m.DoctorID != a.DoctorID || m.PatientID != a.PatientID {
		t.Error("sms not linked to appointment parties")
	}
	if f.notifier.sms != 1 {
		t.Errorf("sms notifications = %d, want 1", f.notifier.sms)
	}

	items, err := f.svc.ListSMS(ctx, a.ID)
	if err != nil || len(items) != 1 {
		t.Errorf("ListSMS = %d items, err %v; want 1, nil", len(items), err)
	}
}
