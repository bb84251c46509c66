// Package reservation contains the seat reservation coordinator: the state
// machine that validates a seat request against the airplane layout,
// claims the seats in the shared inventory with a compare-and-swap and
// then records them on the user, compensating if the second write fails.
//
// The inventory is the source of truth.  For one (user, airplane type)
// pair the durable states are "no reservation" and "reserved"; the
// pending states exist only while a Reserve or Cancel call runs.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/airplane-seat-reservation/internal/layout"
	"github.com/iliyamo/airplane-seat-reservation/internal/lock"
	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/repository"
)

// Inventory owns the occupied seats of every airplane type.
// CompareAndSwapOccupied must be linearizable per type and return
// repository.ErrConflict when the stored set differs from expected.
type Inventory interface {
	Occupied(ctx context.Context, t model.AirplaneType) (model.SeatSet, error)
	CompareAndSwapOccupied(ctx context.Context, t model.AirplaneType, expected, next model.SeatSet) error
}

// ReservationStore owns each user's reservation per airplane type.
type ReservationStore interface {
	Reservation(ctx context.Context, userID uint64, t model.AirplaneType) (model.UserReservation, error)
	SetReservation(ctx context.Context, userID uint64, t model.AirplaneType, seats []string) error
	ListReservations(ctx context.Context, userID uint64) ([]model.UserReservation, error)
	ReservationsByType(ctx context.Context, t model.AirplaneType) ([]model.UserReservation, error)
}

// Coordinator runs reserve and cancel requests.  It is safe for
// concurrent use.
type Coordinator struct {
	inventory Inventory
	store     ReservationStore

	maxAttempts   int
	notifyTimeout time.Duration
	locker        lock.Locker
	notifier      Notifier
	logger        *log.Logger
}

// New instantiates a Coordinator over the two stores.  Optional settings
// are passed as functional options.
func New(inv Inventory, store ReservationStore, opts ...Option) (*Coordinator, error) {
	if inv == nil || store == nil {
		return nil, errors.New("reservation: inventory and store are required")
	}
	c := &Coordinator{inventory: inv, store: store}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if c.maxAttempts == 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.notifyTimeout == 0 {
		c.notifyTimeout = DefaultNotifyTimeout
	}
	if c.locker == nil {
		c.locker = lock.NewLocal()
	}
	if c.notifier == nil {
		c.notifier = NopNotifier{}
	}
	if c.logger == nil {
		c.logger = log.New("reservation")
	}
	return c, nil
}

// Reserve claims seats on airplane t for the user and records them as the
// user's reservation.  Seats are stored and returned in row-major order,
// whatever the order of the request.
//
// Failures: *InvalidSeatsError, ErrAlreadyReserved, *SeatConflictError,
// ErrNotFound, ErrContention, *InconsistentError, or a store error.
func (c *Coordinator) Reserve(ctx context.Context, t model.AirplaneType, seats []string, userID uint64) ([]string, error) {
	if !t.Valid() {
		return nil, notFound(repository.ErrAirplaneNotFound)
	}
	requested, err := validateSeats(t, seats)
	if err != nil {
		return nil, err
	}

	confirmed, err := c.reserve(ctx, t, requested, userID)
	if err != nil {
		c.reportInconsistency(ctx, err)
		return nil, err
	}
	c.notify(ctx, func(ctx context.Context) error { return c.notifier.Reserved(ctx, userID, t, confirmed) })
	return confirmed, nil
}

// reserve runs the locked part of Reserve.  The user lock is released
// before any event leaves the process.
func (c *Coordinator) reserve(ctx context.Context, t model.AirplaneType, requested model.SeatSet, userID uint64) ([]string, error) {
	unlock, err := c.locker.Lock(ctx, userKey(userID, t))
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := c.store.Reservation(ctx, userID, t)
	if err != nil {
		return nil, storeErr(err)
	}
	if current.Active() {
		return nil, ErrAlreadyReserved
	}

	err = c.swap(ctx, t, func(s0 model.SeatSet) (model.SeatSet, error) {
		if conflict := requested.Intersect(s0); len(conflict) > 0 {
			return nil, &SeatConflictError{Seats: conflict.Sorted()}
		}
		return s0.Union(requested), nil
	})
	if err != nil {
		return nil, err
	}

	confirmed := requested.Sorted()
	if err := c.store.SetReservation(ctx, userID, t, confirmed); err != nil {
		return nil, c.compensate(ctx, OpReserve, userID, t, confirmed, err, func(s0 model.SeatSet) (model.SeatSet, error) {
			return s0.Minus(requested), nil
		})
	}

	c.logger.Infoj(log.JSON{"op": OpReserve, "user_id": userID, "type": t.String(), "seats": confirmed})
	return confirmed, nil
}

// Cancel releases the user's reservation on airplane t and returns the
// freed seats.
//
// Failures: ErrNoActiveReservation, ErrNotFound, ErrContention,
// *InconsistentError, or a store error.
func (c *Coordinator) Cancel(ctx context.Context, t model.AirplaneType, userID uint64) ([]string, error) {
	if !t.Valid() {
		return nil, notFound(repository.ErrAirplaneNotFound)
	}

	freed, err := c.cancel(ctx, t, userID)
	if err != nil {
		c.reportInconsistency(ctx, err)
		return nil, err
	}
	c.notify(ctx, func(ctx context.Context) error { return c.notifier.Cancelled(ctx, userID, t, freed) })
	return freed, nil
}

// cancel runs the locked part of Cancel.
func (c *Coordinator) cancel(ctx context.Context, t model.AirplaneType, userID uint64) ([]string, error) {
	unlock, err := c.locker.Lock(ctx, userKey(userID, t))
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := c.store.Reservation(ctx, userID, t)
	if err != nil {
		return nil, storeErr(err)
	}
	if !current.Active() {
		return nil, ErrNoActiveReservation
	}
	held := model.NewSeatSet(current.Seats...)

	// Subtracting a fixed set is safe against any concurrent change: no
	// other request can legitimately hold these seats.
	err = c.swap(ctx, t, func(s0 model.SeatSet) (model.SeatSet, error) {
		return s0.Minus(held), nil
	})
	if err != nil {
		return nil, err
	}

	freed := held.Sorted()
	if err := c.store.SetReservation(ctx, userID, t, nil); err != nil {
		return nil, c.compensate(ctx, OpCancel, userID, t, freed, err, func(s0 model.SeatSet) (model.SeatSet, error) {
			if taken := held.Intersect(s0); len(taken) > 0 {
				return nil, &SeatConflictError{Seats: taken.Sorted()}
			}
			return s0.Union(held), nil
		})
	}

	c.logger.Infoj(log.JSON{"op": OpCancel, "user_id": userID, "type": t.String(), "seats": freed})
	return freed, nil
}

// swap performs the read-decide-write cycle on the inventory of t.  decide
// receives a fresh snapshot on every attempt and may veto the write by
// returning an error, which is passed through unchanged.  Lost races are
// retried up to maxAttempts times.
func (c *Coordinator) swap(ctx context.Context, t model.AirplaneType, decide func(s0 model.SeatSet) (model.SeatSet, error)) error {
	for attempt := 1; ; attempt++ {
		s0, err := c.inventory.Occupied(ctx, t)
		if err != nil {
			return storeErr(err)
		}
		next, err := decide(s0)
		if err != nil {
			return err
		}
		err = c.inventory.CompareAndSwapOccupied(ctx, t, s0, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return storeErr(err)
		}
		if attempt >= c.maxAttempts {
			c.logger.Warnj(log.JSON{"msg": "compare-and-swap retries exhausted", "type": t.String(), "attempts": attempt})
			return ErrContention
		}
		c.logger.Debugj(log.JSON{"msg": "compare-and-swap lost race, retrying", "type": t.String(), "attempt": attempt})
	}
}

// compensate undoes a committed inventory write after the user-store write
// failed.  It runs detached from ctx cancellation: once the inventory has
// moved, the rollback must not be abandoned halfway.  On success the
// original store error is returned; otherwise an *InconsistentError.
func (c *Coordinator) compensate(ctx context.Context, op Operation, userID uint64, t model.AirplaneType, seats []string, cause error, undo func(s0 model.SeatSet) (model.SeatSet, error)) error {
	ctx = context.WithoutCancel(ctx)
	compErr := c.swap(ctx, t, undo)
	if compErr == nil {
		c.logger.Warnj(log.JSON{"msg": "user store write failed, inventory rolled back",
			"op": op, "user_id": userID, "type": t.String(), "seats": seats, "error": cause.Error()})
		return storeErr(cause)
	}

	incident := &InconsistentError{Op: op, UserID: userID, Type: t, Seats: seats, Cause: cause, Compensation: compErr}
	c.logger.Errorj(log.JSON{"msg": "CRITICAL inventory and user store diverged",
		"op": op, "user_id": userID, "type": t.String(), "seats": seats,
		"error": cause.Error(), "compensation_error": compErr.Error()})
	return incident
}

// reportInconsistency publishes err when it is an *InconsistentError.
func (c *Coordinator) reportInconsistency(ctx context.Context, err error) {
	var incident *InconsistentError
	if errors.As(err, &incident) {
		c.notify(ctx, func(ctx context.Context) error { return c.notifier.Inconsistent(ctx, incident) })
	}
}

// notify delivers an event after the fact, outside the user lock.  The
// send gets its own deadline of notifyTimeout, independent of the caller's.
// Delivery failures are logged and never change the outcome of the request.
func (c *Coordinator) notify(ctx context.Context, send func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.notifyTimeout)
	defer cancel()
	if err := send(ctx); err != nil {
		c.logger.Warnj(log.JSON{"msg": "event delivery failed", "error": err.Error()})
	}
}

// validateSeats checks that seats is a non-empty list of distinct codes of
// t's layout and returns them as a set.
func validateSeats(t model.AirplaneType, seats []string) (model.SeatSet, error) {
	if len(seats) == 0 {
		return nil, &InvalidSeatsError{Reason: "no seats requested"}
	}
	if bad := layout.Invalid(t, seats); len(bad) > 0 {
		return nil, &InvalidSeatsError{Seats: bad, Reason: "not in the " + t.String() + " layout"}
	}
	set := make(model.SeatSet, len(seats))
	var dup []string
	for _, s := range seats {
		if set.Has(s) {
			dup = append(dup, s)
			continue
		}
		set[s] = struct{}{}
	}
	if len(dup) > 0 {
		return nil, &InvalidSeatsError{Seats: dup, Reason: "requested more than once"}
	}
	return set, nil
}

func storeErr(err error) error {
	if errors.Is(err, repository.ErrAirplaneNotFound) || errors.Is(err, repository.ErrUserNotFound) {
		return notFound(err)
	}
	return err
}

func userKey(userID uint64, t model.AirplaneType) string {
	return "reservation:" + strconv.FormatUint(userID, 10) + ":" + strconv.Itoa(int(t))
}
