package department

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospital/hospital-api/internal/domain/doctor"
	"github.com/hospital/hospital-api/internal/domain/schedule"
	"github.com/hospital/hospital-api/internal/platform/auth"
	"github.com/hospital/hospital-api/pkg/pagination"
)

// AvailabilityProbe answers whether a department can see patients on a
// date, and which doctors are free.
type AvailabilityProbe interface {
	DepartmentHasAvailability(ctx context.Context, departmentID uuid.UUID, date time.Time) (bool, error)
	AvailableDoctorsForDate(ctx context.Context, departmentID uuid.UUID, date time.Time) ([]*doctor.Doctor, error)
}

type Handler struct {
	svc          *Service
	availability AvailabilityProbe
}

func NewHandler(svc *Service, availability AvailabilityProbe) *Handler {
	return &Handler{svc: svc, availability: availability}
}

func (h *Handler) RegisterRoutes(api *echo.Group, public *echo.Group) {
	// Booking UIs browse departments before authenticating.
	public.GET("/departments", h.List)
	public.GET("/departments/:id", h.Get)
	public.GET("/departments/:id/availability", h.Availability)

	admins := api.Group("", auth.RequireRole("admin"))
	admins.POST("/departments", h.Create)
	admins.PUT("/departments/:id", h.Update)
	admins.DELETE("/departments/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var d Department
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "department not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Department
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.Update(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Availability(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	date, err := time.Parse(schedule.DateLayout, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	ctx := c.Request().Context()
	available, err := h.availability.DepartmentHasAvailability(ctx, id, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	doctors, err := h.availability.AvailableDoctorsForDate(ctx, id, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"date":      c.QueryParam("date"),
		"available": available,
		"doctors":   doctors,
	})
}
