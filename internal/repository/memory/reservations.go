package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/repository"
)

type reservationKey struct {
	userID uint64
	typ    model.AirplaneType
}

// Reservations maps (user, airplane type) to the reserved seats.  Only
// registered users may hold reservations.
type Reservations struct {
	mu    sync.RWMutex
	users map[uint64]struct{}
	seats map[reservationKey][]string
}

// NewReservations returns a store that knows the given user ids.
func NewReservations(userIDs ...uint64) *Reservations {
	r := &Reservations{
		users: make(map[uint64]struct{}),
		seats: make(map[reservationKey][]string),
	}
	for _, id := range userIDs {
		r.users[id] = struct{}{}
	}
	return r
}

// AddUser registers a user id.
func (r *Reservations) AddUser(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = struct{}{}
}

func (r *Reservations) Reservation(_ context.Context, userID uint64, t model.AirplaneType) (model.UserReservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.UserReservation{UserID: userID, Type: t, Seats: copySeats(r.seats[reservationKey{userID, t}])}, nil
}

func (r *Reservations) SetReservation(_ context.Context, userID uint64, t model.AirplaneType, seats []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return repository.ErrUserNotFound
	}
	r.seats[reservationKey{userID, t}] = copySeats(seats)
	return nil
}

func (r *Reservations) ListReservations(_ context.Context, userID uint64) ([]model.UserReservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.UserReservation{}
	for k, seats := range r.seats {
		if k.userID == userID && len(seats) > 0 {
			out = append(out, model.UserReservation{UserID: userID, Type: k.typ, Seats: copySeats(seats)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (r *Reservations) ReservationsByType(_ context.Context, t model.AirplaneType) ([]model.UserReservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.UserReservation
	for k, seats := range r.seats {
		if k.typ == t && len(seats) > 0 {
			out = append(out, model.UserReservation{UserID: k.userID, Type: t, Seats: copySeats(seats)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func copySeats(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
