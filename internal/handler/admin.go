package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
)

// AdminHandler exposes operational endpoints to ADMIN users.
type AdminHandler struct {
	Reconciler *reservation.Reconciler
}

func NewAdminHandler(r *reservation.Reconciler) *AdminHandler {
	return &AdminHandler{Reconciler: r}
}

// Audit handles GET /api/admin/planes/:type/audit and reports any
// divergence between the seat inventory and the users' reservations.
func (h *AdminHandler) Audit(c echo.Context) error {
	t, ok := airplaneParam(c)
	if !ok {
		return airplaneNotFound(c)
	}
	rep, err := h.Reconciler.Audit(c.Request().Context(), t)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"clean": rep.Clean(), "report": rep})
}
