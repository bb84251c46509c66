// Package memory provides in-process implementations of the seat stores.
// They honour the same contracts and error values as the MySQL
// repositories and back the reservation tests.
package memory

import (
	"context"
	"sync"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/repository"
)

type airplaneSlot struct {
	mu       sync.Mutex
	occupied model.SeatSet
	version  uint64
}

// Inventory keeps the occupied seats of each airplane type behind its own
// mutex, so the compare and the write of a swap form one critical section
// per type and different types never contend.
type Inventory struct {
	mu     sync.RWMutex
	planes map[model.AirplaneType]*airplaneSlot
}

// NewInventory returns an inventory with the given types provisioned.
func NewInventory(types ...model.AirplaneType) *Inventory {
	inv := &Inventory{planes: make(map[model.AirplaneType]*airplaneSlot)}
	for _, t := range types {
		inv.Provision(t)
	}
	return inv
}

// Provision creates an empty record for t if none exists.
func (inv *Inventory) Provision(t model.AirplaneType) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.planes[t]; !ok {
		inv.planes[t] = &airplaneSlot{occupied: model.NewSeatSet()}
	}
}

func (inv *Inventory) slot(t model.AirplaneType) (*airplaneSlot, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	s, ok := inv.planes[t]
	if !ok {
		return nil, repository.ErrAirplaneNotFound
	}
	return s, nil
}

// Get returns a copy of the record for t.
func (inv *Inventory) Get(_ context.Context, t model.AirplaneType) (model.Airplane, error) {
	s, err := inv.slot(t)
	if err != nil {
		return model.Airplane{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Airplane{Type: t, Occupied: s.occupied.Clone(), Version: s.version}, nil
}

// Occupied returns a snapshot of the occupied seats of t.
func (inv *Inventory) Occupied(ctx context.Context, t model.AirplaneType) (model.SeatSet, error) {
	a, err := inv.Get(ctx, t)
	if err != nil {
		return nil, err
	}
	return a.Occupied, nil
}

// CompareAndSwapOccupied stores next if the current set equals expected.
func (inv *Inventory) CompareAndSwapOccupied(_ context.Context, t model.AirplaneType, expected, next model.SeatSet) error {
	s, err := inv.slot(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.occupied.Equal(expected) {
		return repository.ErrConflict
	}
	s.occupied = next.Clone()
	s.version++
	return nil
}
