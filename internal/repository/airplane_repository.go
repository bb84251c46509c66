package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

// AirplaneRepo stores the occupied seats of every airplane type in the
// `airplanes` table.  The seats column holds the canonical JSON encoding
// of the occupied set (see encodeSeats) and version counts successful
// writes.
type AirplaneRepo struct {
	db *sql.DB
}

// NewAirplaneRepo returns an AirplaneRepo bound to the given database.
func NewAirplaneRepo(db *sql.DB) *AirplaneRepo { return &AirplaneRepo{db: db} }

// Get loads the airplane record for t.  It returns ErrAirplaneNotFound when
// the type has not been provisioned.
func (r *AirplaneRepo) Get(ctx context.Context, t model.AirplaneType) (model.Airplane, error) {
	var (
		raw     string
		version uint64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT seats, version FROM airplanes WHERE type=? LIMIT 1",
		uint8(t)).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Airplane{}, ErrAirplaneNotFound
	}
	if err != nil {
		return model.Airplane{}, err
	}
	seats, err := decodeSeatList(raw)
	if err != nil {
		return model.Airplane{}, fmt.Errorf("decode seats of %s: %w", t, err)
	}
	return model.Airplane{Type: t, Occupied: model.NewSeatSet(seats...), Version: version}, nil
}

// Occupied returns the occupied seat set of t.
func (r *AirplaneRepo) Occupied(ctx context.Context, t model.AirplaneType) (model.SeatSet, error) {
	a, err := r.Get(ctx, t)
	if err != nil {
		return nil, err
	}
	return a.Occupied, nil
}

// CompareAndSwapOccupied replaces the occupied set of t with next only if
// the stored set still equals expected.  The check and the write are one
// UPDATE statement, so concurrent writers on the same row are serialised
// by InnoDB's row lock and at most one of two racing swaps from the same
// snapshot succeeds.  A lost race yields ErrConflict and leaves the row
// untouched.
func (r *AirplaneRepo) CompareAndSwapOccupied(ctx context.Context, t model.AirplaneType, expected, next model.SeatSet) error {
	oldRaw, err := encodeSeats(expected)
	if err != nil {
		return err
	}
	newRaw, err := encodeSeats(next)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE airplanes SET seats=?, version=version+1 WHERE type=? AND seats=?",
		newRaw, uint8(t), oldRaw)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	// Nothing matched: either the type is unknown or another writer won.
	var one int
	err = r.db.QueryRowContext(ctx, "SELECT 1 FROM airplanes WHERE type=? LIMIT 1", uint8(t)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAirplaneNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// Provision creates the record for t with no occupied seats.  Existing
// records are left alone so the call is safe to repeat.
func (r *AirplaneRepo) Provision(ctx context.Context, t model.AirplaneType) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO airplanes (type, seats, version) VALUES (?, '[]', 0)",
		uint8(t))
	return err
}
