package reservation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

// ErrAlreadyReserved is returned by Reserve when the user already holds
// seats on the airplane type; the reservation must be cancelled first.
var ErrAlreadyReserved = errors.New("user already has a reservation for this airplane")

// ErrNoActiveReservation is returned by Cancel when there is nothing to
// cancel.
var ErrNoActiveReservation = errors.New("user does not have a reservation for this airplane")

// ErrNotFound marks an unknown airplane type or user.  The underlying
// store error is wrapped alongside it.
var ErrNotFound = errors.New("not found")

// ErrContention is returned when every compare-and-swap attempt lost a
// race.  Nothing was written and the request may be retried.
var ErrContention = errors.New("seat inventory is busy, try again")

// InvalidSeatsError lists requested seat codes that are not part of the
// airplane's layout, duplicated, or missing altogether.
type InvalidSeatsError struct {
	Seats  []string
	Reason string
}

func (e *InvalidSeatsError) Error() string {
	if len(e.Seats) == 0 {
		return "invalid seats: " + e.Reason
	}
	return fmt.Sprintf("invalid seats (%s): %s", e.Reason, strings.Join(e.Seats, ","))
}

// SeatConflictError lists requested seats that are already occupied.  The
// inventory was not modified.
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return "seats already occupied: " + strings.Join(e.Seats, ",")
}

// Operation names a coordinator write sequence.
type Operation string

const (
	OpReserve Operation = "reserve"
	OpCancel  Operation = "cancel"
)

// InconsistentError is returned when the inventory write committed, the
// user-store write failed and the compensating inventory write failed
// too.  The inventory is authoritative; Reconciler.RollForward repairs the
// user store from it.
type InconsistentError struct {
	Op           Operation
	UserID       uint64
	Type         model.AirplaneType
	Seats        []string
	Cause        error // user-store failure
	Compensation error // failure of the rollback
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("inconsistent %s for user %d on %s (seats %s): store: %v; compensation: %v",
		e.Op, e.UserID, e.Type, strings.Join(e.Seats, ","), e.Cause, e.Compensation)
}

func (e *InconsistentError) Unwrap() []error { return []error{e.Cause, e.Compensation} }

func notFound(err error) error {
	return fmt.Errorf("%w: %w", ErrNotFound, err)
}
