package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
)

// ReservationHandler exposes reserve, cancel and listing for the
// authenticated user.  Routes are wrapped in JWTAuth and RequireSelf, so
// the :id parameter always names the caller.
type ReservationHandler struct {
	Coordinator *reservation.Coordinator
}

func NewReservationHandler(c *reservation.Coordinator) *ReservationHandler {
	return &ReservationHandler{Coordinator: c}
}

type reserveReq struct {
	Seats []string `json:"seats" validate:"max=150,dive,max=8"`
}

type reservationResp struct {
	Type  model.AirplaneType `json:"type"`
	Seats []string           `json:"seats"`
}

// Reserve handles PUT /api/planes/:type/user/:id with body {"seats": [...]}.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, ok := airplaneParam(c)
	if !ok {
		return airplaneNotFound(c)
	}
	var req reserveReq
	if !bind(c, &req) {
		return nil
	}

	seats, err := h.Coordinator.Reserve(c.Request().Context(), t, req.Seats, userID)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, reservationResp{Type: t, Seats: seats})
}

// Cancel handles DELETE /api/user/:id/planes/:type and returns the freed
// seats.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	t, ok := airplaneParam(c)
	if !ok {
		return airplaneNotFound(c)
	}

	seats, err := h.Coordinator.Cancel(c.Request().Context(), t, userID)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, reservationResp{Type: t, Seats: seats})
}

// List handles GET /api/users/:id/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Coordinator.UserReservations(c.Request().Context(), userID)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}
