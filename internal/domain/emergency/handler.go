package emergency

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hospital-api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, public *echo.Group) {
	public.GET("/emergency-status", h.Get)
	api.PUT("/emergency-status", h.Update, auth.RequireRole("admin"))
}

func (h *Handler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Current())
}

func (h *Handler) Update(c echo.Context) error {
	var st Status
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.Update(c.Request().Context(), st)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}
