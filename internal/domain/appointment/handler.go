package appointment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospital/hospital-api/internal/domain/schedule"
	"github.com/hospital/hospital-api/internal/platform/auth"
	"github.com/hospital/hospital-api/pkg/pagination"
)

// PatientDetails is what an unauthenticated booker supplies about
// themselves. The resolver matches or creates the patient record.
type PatientDetails struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`
	Phone      string `json:"phone"`
}

// PatientResolver turns booker-supplied details into a patient id,
// matching by email first, then national id, creating otherwise.
type PatientResolver interface {
	Resolve(ctx context.Context, details PatientDetails) (uuid.UUID, error)
}

type Handler struct {
	svc      *Service
	patients PatientResolver
}

func NewHandler(svc *Service, patients PatientResolver) *Handler {
	return &Handler{svc: svc, patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group, public *echo.Group) {
	// Booking and cancellation are reachable without an account; the
	// cancel link in the confirmation mail carries the token.
	public.POST("/appointments", h.CreatePublic)
	public.POST("/appointments/:id/cancel", h.CancelByToken)
	public.GET("/doctors/:id/slots", h.AvailableSlots)

	staff := api.Group("", auth.RequireRole("admin", "secretary", "doctor"))
	staff.POST("/patients/:patient_id/appointments", h.Create)
	staff.GET("/appointments/:id", h.Get)
	staff.GET("/appointments", h.List)
	staff.DELETE("/appointments/:id", h.CancelByAdmin)

	doctors := api.Group("", auth.RequireRole("admin", "doctor"))
	doctors.PUT("/appointments/:id/notes", h.AddNotes)
	doctors.POST("/appointments/:id/sms", h.SendSMS)
	doctors.GET("/appointments/:id/sms", h.ListSMS)
}

type createRequest struct {
	DoctorID  uuid.UUID      `json:"doctor_id"`
	Date      string         `json:"date"`
	Time      string         `json:"time"`
	Notes     *string        `json:"notes,omitempty"`
	Patient   PatientDetails `json:"patient"`
	PatientID *uuid.UUID     `json:"patient_id,omitempty"`
}

func (h *Handler) CreatePublic(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse(schedule.DateLayout, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	// The public endpoint never trusts a caller-supplied patient id;
	// bookers identify themselves and go through the resolver.
	if req.PatientID != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is not accepted here; supply patient details")
	}
	patientID, err := h.patients.Resolve(c.Request().Context(), req.Patient)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.CreateBooking(c.Request().Context(), BookingRequest{
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		TimeOfDay: req.Time,
		Notes:     req.Notes,
	})
	if err != nil {
		return bookingHTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// Create books on behalf of a known patient. Staff only; the patient id
// comes from the route instead of the resolver.
func (h *Handler) Create(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := time.Parse(schedule.DateLayout, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	a, err := h.svc.CreateBooking(c.Request().Context(), BookingRequest{
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		TimeOfDay: req.Time,
		Notes:     req.Notes,
	})
	if err != nil {
		return bookingHTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	date, err := time.Parse(schedule.DateLayout, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	slots, err := h.svc.AvailableSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"date":  c.QueryParam("date"),
		"slots": slots,
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		pid, err := uuid.Parse(patientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListByPatient(ctx, pid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	if doctorID := c.QueryParam("doctor_id"); doctorID != "" {
		did, err := uuid.Parse(doctorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		items, total, err := h.svc.ListByDoctor(ctx, did, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "patient_id or doctor_id is required")
}

func (h *Handler) CancelByToken(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.CancelByToken(c.Request().Context(), id, c.QueryParam("token")); err != nil {
		return bookingHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": StatusCancelled})
}

func (h *Handler) CancelByAdmin(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.CancelByAdmin(c.Request().Context(), id); err != nil {
		return bookingHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": StatusCancelled})
}

func (h *Handler) AddNotes(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var notes ClinicalNotes
	if err := c.Bind(&notes); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.AddNotes(c.Request().Context(), id, notes)
	if err != nil {
		return bookingHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) SendSMS(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.SendSMS(c.Request().Context(), id, body.Message)
	if err != nil {
		return bookingHTTPError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListSMS(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListSMS(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// bookingHTTPError maps business-rule failures onto status codes; the
// working-hours rejection carries the valid window in the payload.
func bookingHTTPError(err error) error {
	var outside *OutsideWorkingHoursError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrInvalidToken):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrSlotTaken),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrTooLateToCancel):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &outside):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{
			"error": outside.Error(),
			"start": outside.Start,
			"end":   outside.End,
		})
	case errors.Is(err, ErrClosedWeekend), errors.Is(err, ErrDoctorUnavailable):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
