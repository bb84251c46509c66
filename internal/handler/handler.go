package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airplane-seat-reservation/internal/middleware"
	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// bind decodes and validates the request body into req.  On failure the
// response has been written and false is returned.
func bind(c echo.Context, req any) bool {
	if err := c.Bind(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		return false
	}
	switch err := c.Validate(req).(type) {
	case nil:
		return true
	case validator.ValidationErrors:
		fields := make(map[string][]string, len(err))
		for _, ferr := range err {
			fields[ferr.Field()] = append(fields[ferr.Field()], ferr.Tag())
		}
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	default:
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return false
}

// getUserID returns the authenticated user id placed in the context by
// the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("no user in context")
	}
	return id, nil
}

// airplaneParam parses the :type path parameter.
func airplaneParam(c echo.Context) (model.AirplaneType, bool) {
	t, err := model.ParseAirplaneType(c.Param("type"))
	return t, err == nil
}

func airplaneNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "airplane not found"})
}

// reservationError writes the HTTP rendition of a coordinator error.
func reservationError(c echo.Context, err error) error {
	var (
		invalid      *reservation.InvalidSeatsError
		conflict     *reservation.SeatConflictError
		inconsistent *reservation.InconsistentError
	)
	switch {
	case errors.As(err, &invalid):
		seats := invalid.Seats
		if seats == nil {
			seats = []string{}
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": invalid.Error(), "invalidSeats": seats})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats already reserved", "alreadyReserved": conflict.Seats})
	case errors.Is(err, reservation.ErrAlreadyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, reservation.ErrNoActiveReservation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.As(err, &inconsistent):
		c.Logger().Errorf("reservation left inconsistent: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation could not be completed and is being repaired"})
	case errors.Is(err, reservation.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, reservation.ErrContention):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("reservation request failed: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
