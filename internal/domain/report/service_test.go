package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hospital-api/internal/domain/appointment"
)

type mockRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*MedicalReport
}

func newMockRepo() *mockRepo {
	return &mockRepo{reports: make(map[uuid.UUID]*MedicalReport)}
}

func (m *mockRepo) Create(_ context.Context, r *MedicalReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.reports {
		if ex.AppointmentID == r.AppointmentID {
			return ErrReportExists
		}
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*MedicalReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.AppointmentID == appointmentID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, r *MedicalReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, ok := m.reports[r.ID]
	if !ok {
		return ErrNotFound
	}
	ex.Title = r.Title
	ex.Content = r.Content
	return nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*MedicalReport
	for _, r := range m.reports {
		if r.DoctorID == doctorID {
			cp := *r
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

type mockAppts struct {
	appts map[uuid.UUID]*appointment.Appointment
}

func (m *mockAppts) Get(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func TestCreate(t *testing.T) {
	apptID, doctorID := uuid.New(), uuid.New()
	appts := &mockAppts{appts: map[uuid.UUID]*appointment.Appointment{
		apptID: {ID: apptID, DoctorID: doctorID, Status: appointment.StatusCompleted},
	}}
	svc := NewService(newMockRepo(), appts)
	ctx := context.Background()

	m, err := svc.Create(ctx, apptID, "Examination report", "Findings within normal limits.")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.DoctorID != doctorID {
		t.Error("doctor not taken from the appointment")
	}

	// One report per appointment.
	if _, err := svc.Create(ctx, apptID, "Second", "duplicate"); !errors.Is(err, ErrReportExists) {
		t.Errorf("got %v, want ErrReportExists", err)
	}
}

func TestCreate_RejectsCancelledAppointment(t *testing.T) {
	apptID := uuid.New()
	appts := &mockAppts{appts: map[uuid.UUID]*appointment.Appointment{
		apptID: {ID: apptID, DoctorID: uuid.New(), Status: appointment.StatusCancelled},
	}}
	svc := NewService(newMockRepo(), appts)

	if _, err := svc.Create(context.Background(), apptID, "Report", "text"); err == nil {
		t.Error("expected error for cancelled appointment")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo(), &mockAppts{appts: map[uuid.UUID]*appointment.Appointment{}})
	ctx := context.Background()

	if _, err := svc.Create(ctx, uuid.New(), "", "content"); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := svc.Create(ctx, uuid.New(), "title", ""); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestUpdateAndFetch(t *testing.T) {
	apptID := uuid.New()
	appts := &mockAppts{appts: map[uuid.UUID]*appointment.Appointment{
		apptID: {ID: apptID, DoctorID: uuid.New(), Status: appointment.StatusCompleted},
	}}
	svc := NewService(newMockRepo(), appts)
	ctx := context.Background()

	m, err := svc.Create(ctx, apptID, "Initial", "v1")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, m.ID, "Amended", "v2")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Content != "v2" {
		t.Error("content not updated")
	}

	byAppt, err := svc.GetByAppointment(ctx, apptID)
	if err != nil {
		t.Fatalf("GetByAppointment: %v", err)
	}
	if byAppt.ID != m.ID {
		t.Error("wrong report for appointment")
	}
}
