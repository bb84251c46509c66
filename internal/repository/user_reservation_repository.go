package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

// mysqlErrNoReferencedRow is raised when the users foreign key is violated.
const mysqlErrNoReferencedRow = 1452

// UserReservationRepo keeps each user's reservation per airplane type in
// the `user_reservations` table, keyed by (user_id, airplane_type).  A
// cancelled reservation keeps its row with an empty seats array.
type UserReservationRepo struct {
	db *sql.DB
}

// NewUserReservationRepo returns a UserReservationRepo bound to db.
func NewUserReservationRepo(db *sql.DB) *UserReservationRepo {
	return &UserReservationRepo{db: db}
}

// Reservation returns the user's reservation for t.  A missing row is not
// an error: the result simply has no seats.
func (r *UserReservationRepo) Reservation(ctx context.Context, userID uint64, t model.AirplaneType) (model.UserReservation, error) {
	res := model.UserReservation{UserID: userID, Type: t, Seats: []string{}}
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT seats FROM user_reservations WHERE user_id=? AND airplane_type=? LIMIT 1",
		userID, uint8(t)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	seats, err := decodeSeatList(raw)
	if err != nil {
		return res, fmt.Errorf("decode reservation of user %d on %s: %w", userID, t, err)
	}
	res.Seats = seats
	return res, nil
}

// SetReservation creates or replaces the user's reservation for t.  Passing
// no seats clears it.  ErrUserNotFound is returned for unknown users.
func (r *UserReservationRepo) SetReservation(ctx context.Context, userID uint64, t model.AirplaneType, seats []string) error {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=? LIMIT 1", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	raw, err := encodeSeatList(seats)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO user_reservations (user_id, airplane_type, seats) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE seats=VALUES(seats)`,
		userID, uint8(t), raw)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlErrNoReferencedRow {
		return ErrUserNotFound
	}
	return err
}

// ListReservations returns the user's active reservations ordered by
// airplane type.
func (r *UserReservationRepo) ListReservations(ctx context.Context, userID uint64) ([]model.UserReservation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT airplane_type, seats FROM user_reservations WHERE user_id=? ORDER BY airplane_type",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.UserReservation{}
	for rows.Next() {
		var (
			typ uint8
			raw string
		)
		if err := rows.Scan(&typ, &raw); err != nil {
			return nil, err
		}
		seats, err := decodeSeatList(raw)
		if err != nil {
			return nil, err
		}
		if len(seats) == 0 {
			continue
		}
		out = append(out, model.UserReservation{UserID: userID, Type: model.AirplaneType(typ), Seats: seats})
	}
	return out, rows.Err()
}

// ReservationsByType returns every active reservation on t.  Used by the
// inventory audit.
func (r *UserReservationRepo) ReservationsByType(ctx context.Context, t model.AirplaneType) ([]model.UserReservation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, seats FROM user_reservations WHERE airplane_type=? AND seats<>'[]' ORDER BY user_id",
		uint8(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.UserReservation
	for rows.Next() {
		var (
			uid uint64
			raw string
		)
		if err := rows.Scan(&uid, &raw); err != nil {
			return nil, err
		}
		seats, err := decodeSeatList(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, model.UserReservation{UserID: uid, Type: t, Seats: seats})
	}
	return out, rows.Err()
}
