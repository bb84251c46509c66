package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

// ErrStaleIncident is returned by RollForward when the stores have moved
// on since the incident and the repair no longer applies.  Nothing is
// written; the next audit shows whether manual action is needed.
var ErrStaleIncident = errors.New("incident no longer matches the inventory")

// Incident describes a divergence left behind by a failed compensation.
type Incident struct {
	ID     string             `json:"id,omitempty"`
	Op     Operation          `json:"op"`
	UserID uint64             `json:"userId"`
	Type   model.AirplaneType `json:"type"`
	Seats  []string           `json:"seats"`
}

// IncidentOf extracts the repair data from an InconsistentError.
func IncidentOf(e *InconsistentError) Incident {
	return Incident{Op: e.Op, UserID: e.UserID, Type: e.Type, Seats: e.Seats}
}

// DoubleBooking is a seat claimed by more than one user.
type DoubleBooking struct {
	Seat  string   `json:"seat"`
	Users []uint64 `json:"users"`
}

// Report is the result of comparing one airplane's inventory with the
// reservations held for it.
type Report struct {
	Type         model.AirplaneType `json:"type"`
	Occupied     int                `json:"occupied"`
	Reserved     int                `json:"reserved"`
	Orphaned     []string           `json:"orphaned"`     // occupied, no owner
	Missing      []string           `json:"missing"`      // reserved, not occupied
	DoubleBooked []DoubleBooking    `json:"doubleBooked"` // reserved by several users
}

// Clean reports whether inventory and reservations agree exactly.
func (r Report) Clean() bool {
	return len(r.Orphaned) == 0 && len(r.Missing) == 0 && len(r.DoubleBooked) == 0
}

// Reconciler detects and repairs divergence between the inventory and the
// user store.  The inventory is authoritative.
type Reconciler struct {
	c *Coordinator
}

// NewReconciler returns a Reconciler sharing c's stores, locks and logger.
func NewReconciler(c *Coordinator) *Reconciler {
	return &Reconciler{c: c}
}

// Audit compares the occupied seats of t with the union of all
// reservations for t.
func (r *Reconciler) Audit(ctx context.Context, t model.AirplaneType) (Report, error) {
	if !t.Valid() {
		return Report{}, ErrNotFound
	}
	occupied, err := r.c.inventory.Occupied(ctx, t)
	if err != nil {
		return Report{}, storeErr(err)
	}
	reservations, err := r.c.store.ReservationsByType(ctx, t)
	if err != nil {
		return Report{}, storeErr(err)
	}

	owners := make(map[string][]uint64)
	for _, res := range reservations {
		for _, s := range res.Seats {
			owners[s] = append(owners[s], res.UserID)
		}
	}

	rep := Report{Type: t, Occupied: len(occupied), Reserved: len(owners),
		Orphaned: []string{}, Missing: []string{}, DoubleBooked: []DoubleBooking{}}
	for s := range occupied {
		if _, ok := owners[s]; !ok {
			rep.Orphaned = append(rep.Orphaned, s)
		}
	}
	for s, users := range owners {
		if !occupied.Has(s) {
			rep.Missing = append(rep.Missing, s)
		}
		if len(users) > 1 {
			sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
			rep.DoubleBooked = append(rep.DoubleBooked, DoubleBooking{Seat: s, Users: users})
		}
	}
	model.SortSeats(rep.Orphaned)
	model.SortSeats(rep.Missing)
	sort.Slice(rep.DoubleBooked, func(i, j int) bool {
		return model.LessSeat(rep.DoubleBooked[i].Seat, rep.DoubleBooked[j].Seat)
	})
	return rep, nil
}

// RollForward brings the user store in line with the inventory for one
// incident.  A reserve incident records the seats on the user if they are
// all still occupied and the user holds nothing else for the type; a
// cancel incident clears the user's reservation if it still names exactly
// the incident seats.  Applying an incident twice is a no-op.
func (r *Reconciler) RollForward(ctx context.Context, in Incident) error {
	if !in.Type.Valid() {
		return ErrNotFound
	}
	if len(in.Seats) == 0 {
		return fmt.Errorf("%w: incident has no seats", ErrStaleIncident)
	}
	unlock, err := r.c.locker.Lock(ctx, userKey(in.UserID, in.Type))
	if err != nil {
		return err
	}
	defer unlock()

	seats := model.NewSeatSet(in.Seats...)
	current, err := r.c.store.Reservation(ctx, in.UserID, in.Type)
	if err != nil {
		return storeErr(err)
	}
	held := model.NewSeatSet(current.Seats...)

	switch in.Op {
	case OpReserve:
		if held.Equal(seats) {
			return nil
		}
		if current.Active() {
			return fmt.Errorf("%w: user %d holds other seats on %s", ErrStaleIncident, in.UserID, in.Type)
		}
		occupied, err := r.c.inventory.Occupied(ctx, in.Type)
		if err != nil {
			return storeErr(err)
		}
		if missing := seats.Minus(occupied); len(missing) > 0 {
			return fmt.Errorf("%w: seats no longer occupied: %v", ErrStaleIncident, missing.Sorted())
		}
		if err := r.c.store.SetReservation(ctx, in.UserID, in.Type, seats.Sorted()); err != nil {
			return storeErr(err)
		}
	case OpCancel:
		if !current.Active() {
			return nil
		}
		if !held.Equal(seats) {
			return fmt.Errorf("%w: user %d holds different seats on %s", ErrStaleIncident, in.UserID, in.Type)
		}
		if err := r.c.store.SetReservation(ctx, in.UserID, in.Type, nil); err != nil {
			return storeErr(err)
		}
	default:
		return fmt.Errorf("unknown operation %q", in.Op)
	}

	r.c.logger.Infoj(log.JSON{"msg": "incident rolled forward", "op": in.Op,
		"user_id": in.UserID, "type": in.Type.String(), "seats": seats.Sorted()})
	return nil
}

// StartAuditor audits the given types every interval until ctx is done.
// Clean reports are logged at debug level, divergent ones as errors.
func (r *Reconciler) StartAuditor(ctx context.Context, interval time.Duration, types []model.AirplaneType) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for _, t := range types {
			rep, err := r.Audit(ctx, t)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				r.c.logger.Warnj(log.JSON{"msg": "audit failed", "type": t.String(), "error": err.Error()})
			case rep.Clean():
				r.c.logger.Debugj(log.JSON{"msg": "audit clean", "type": t.String(), "occupied": rep.Occupied})
			default:
				r.c.logger.Errorj(log.JSON{"msg": "audit found divergence", "type": t.String(),
					"orphaned": rep.Orphaned, "missing": rep.Missing, "double_booked": rep.DoubleBooked})
			}
		}
	}
}
