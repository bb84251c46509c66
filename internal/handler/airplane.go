package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airplane-seat-reservation/internal/layout"
	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
)

// AirplaneHandler serves the public, read-only airplane endpoints.
type AirplaneHandler struct {
	Coordinator *reservation.Coordinator
}

func NewAirplaneHandler(c *reservation.Coordinator) *AirplaneHandler {
	return &AirplaneHandler{Coordinator: c}
}

// View handles GET /api/planes/:type and returns the occupied seats and
// seat counts.
func (h *AirplaneHandler) View(c echo.Context) error {
	t, ok := airplaneParam(c)
	if !ok {
		return airplaneNotFound(c)
	}
	v, err := h.Coordinator.AirplaneView(c.Request().Context(), t)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Layout handles GET /api/planes/:type/layout.
func (h *AirplaneHandler) Layout(c echo.Context) error {
	t, ok := airplaneParam(c)
	if !ok {
		return airplaneNotFound(c)
	}
	return c.JSON(http.StatusOK, layout.Describe(t))
}
