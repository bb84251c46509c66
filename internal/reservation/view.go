package reservation

import (
	"context"

	"github.com/iliyamo/airplane-seat-reservation/internal/layout"
	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/repository"
)

// View is the public state of one airplane.
type View struct {
	Type           model.AirplaneType `json:"type"`
	OccupiedSeats  []string           `json:"occupiedSeats"`
	TotalSeats     int                `json:"totalSeats"`
	OccupiedCount  int                `json:"occupiedCount"`
	AvailableCount int                `json:"availableCount"`
}

// AirplaneView returns the occupied seats of airplane t with seat counts.
func (c *Coordinator) AirplaneView(ctx context.Context, t model.AirplaneType) (View, error) {
	if !t.Valid() {
		return View{}, notFound(repository.ErrAirplaneNotFound)
	}
	occupied, err := c.inventory.Occupied(ctx, t)
	if err != nil {
		return View{}, storeErr(err)
	}
	total := layout.SeatCount(t)
	return View{
		Type:           t,
		OccupiedSeats:  occupied.Sorted(),
		TotalSeats:     total,
		OccupiedCount:  len(occupied),
		AvailableCount: total - len(occupied),
	}, nil
}

// UserReservations returns the user's active reservations ordered by
// airplane type.
func (c *Coordinator) UserReservations(ctx context.Context, userID uint64) ([]model.UserReservation, error) {
	list, err := c.store.ListReservations(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return list, nil
}
