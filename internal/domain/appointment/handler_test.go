package appointment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type stubResolver struct {
	id     uuid.UUID
	called int
}

func (r *stubResolver) Resolve(_ context.Context, _ PatientDetails) (uuid.UUID, error) {
	r.called++
	return r.id, nil
}

func postBooking(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestCreatePublic_RejectsPatientID(t *testing.T) {
	f := newFixture(t)
	resolver := &stubResolver{id: uuid.New()}
	h := NewHandler(f.svc, resolver)

	body := fmt.Sprintf(`{"doctor_id":%q,"date":"2025-06-11","time":"10:00","patient_id":%q}`,
		f.doctorID, uuid.New())
	c, _ := postBooking(body)

	err := h.CreatePublic(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
	if resolver.called != 0 {
		t.Error("resolver must not run for a rejected request")
	}
	if len(f.repo.appts) != 0 {
		t.Error("no appointment may be created for an unverified patient id")
	}
}

func TestCreatePublic_ResolvesPatient(t *testing.T) {
	f := newFixture(t)
	resolver := &stubResolver{id: uuid.New()}
	h := NewHandler(f.svc, resolver)

	body := fmt.Sprintf(`{"doctor_id":%q,"date":"2025-06-11","time":"10:00","patient":{"first_name":"Fatma","last_name":"Demir","email":"fatma@example.com"}}`,
		f.doctorID)
	c, rec := postBooking(body)

	if err := h.CreatePublic(c); err != nil {
		t.Fatalf("CreatePublic: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if resolver.called != 1 {
		t.Errorf("resolver called %d times, want 1", resolver.called)
	}
	for _, a := range f.repo.appts {
		if a.PatientID != resolver.id {
			t.Errorf("patient = %s, want resolved id %s", a.PatientID, resolver.id)
		}
	}
}

func TestCreate_StaffBooksByPatientRoute(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, &stubResolver{})
	body := fmt.Sprintf(`{"doctor_id":%q,"date":"2025-06-11","time":"10:00"}`, f.doctorID)

	c, _ := postBooking(body)
	c.SetParamNames("patient_id")
	c.SetParamValues("not-a-uuid")
	if code := httpStatus(t, h.Create(c)); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}

	patientID := uuid.New()
	c, rec := postBooking(body)
	c.SetParamNames("patient_id")
	c.SetParamValues(patientID.String())
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	for _, a := range f.repo.appts {
		if a.PatientID != patientID {
			t.Errorf("patient = %s, want %s", a.PatientID, patientID)
		}
	}
}
