package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestAirplaneRepoGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAirplaneRepo(db)

	mock.ExpectQuery(q("SELECT seats, version FROM airplanes WHERE type=? LIMIT 1")).
		WithArgs(uint8(model.Local)).
		WillReturnRows(sqlmock.NewRows([]string{"seats", "version"}).AddRow(`["2B","1A"]`, 7))

	a, err := repo.Get(context.Background(), model.Local)
	require.NoError(t, err)
	assert.Equal(t, model.Local, a.Type)
	assert.Equal(t, uint64(7), a.Version)
	assert.Equal(t, []string{"1A", "2B"}, a.Occupied.Sorted())
}

func TestAirplaneRepoGetNotProvisioned(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAirplaneRepo(db)

	mock.ExpectQuery(q("SELECT seats, version FROM airplanes")).
		WithArgs(uint8(model.Regional)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Occupied(context.Background(), model.Regional)
	assert.ErrorIs(t, err, ErrAirplaneNotFound)
}

func TestAirplaneRepoGetCorruptSeats(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAirplaneRepo(db)

	mock.ExpectQuery(q("SELECT seats, version FROM airplanes")).
		WithArgs(uint8(model.Local)).
		WillReturnRows(sqlmock.NewRows([]string{"seats", "version"}).AddRow(`{not json`, 1))

	_, err := repo.Get(context.Background(), model.Local)
	assert.Error(t, err)
}

func TestAirplaneRepoCompareAndSwap(t *testing.T) {
	const update = "UPDATE airplanes SET seats=?, version=version+1 WHERE type=? AND seats=?"
	expected := model.NewSeatSet("1A")
	next := model.NewSeatSet("2B", "1A")

	t.Run("success", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(q(update)).
			WithArgs(`["1A","2B"]`, uint8(model.Local), `["1A"]`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewAirplaneRepo(db).CompareAndSwapOccupied(context.Background(), model.Local, expected, next)
		assert.NoError(t, err)
	})

	t.Run("lost race", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(q(update)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(q("SELECT 1 FROM airplanes WHERE type=? LIMIT 1")).
			WithArgs(uint8(model.Local)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		err := NewAirplaneRepo(db).CompareAndSwapOccupied(context.Background(), model.Local, expected, next)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unknown type", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(q(update)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(q("SELECT 1 FROM airplanes")).WillReturnError(sql.ErrNoRows)

		err := NewAirplaneRepo(db).CompareAndSwapOccupied(context.Background(), model.International, expected, next)
		assert.ErrorIs(t, err, ErrAirplaneNotFound)
	})

	t.Run("driver error", func(t *testing.T) {
		db, mock := newMock(t)
		boom := errors.New("connection reset")
		mock.ExpectExec(q(update)).WillReturnError(boom)

		err := NewAirplaneRepo(db).CompareAndSwapOccupied(context.Background(), model.Local, expected, next)
		assert.ErrorIs(t, err, boom)
	})
}

func TestAirplaneRepoProvision(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT IGNORE INTO airplanes (type, seats, version) VALUES (?, '[]', 0)")).
		WithArgs(uint8(model.International)).
		WillReturnResult(sqlmock.NewResult(3, 1))

	assert.NoError(t, NewAirplaneRepo(db).Provision(context.Background(), model.International))
}

func TestUserReservationRepoReservation(t *testing.T) {
	const query = "SELECT seats FROM user_reservations WHERE user_id=? AND airplane_type=? LIMIT 1"

	t.Run("found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q(query)).
			WithArgs(uint64(4), uint8(model.Local)).
			WillReturnRows(sqlmock.NewRows([]string{"seats"}).AddRow(`["3C","1A"]`))

		res, err := NewUserReservationRepo(db).Reservation(context.Background(), 4, model.Local)
		require.NoError(t, err)
		assert.Equal(t, []string{"3C", "1A"}, res.Seats)
		assert.True(t, res.Active())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q(query)).WillReturnError(sql.ErrNoRows)

		res, err := NewUserReservationRepo(db).Reservation(context.Background(), 4, model.Local)
		require.NoError(t, err)
		assert.NotNil(t, res.Seats)
		assert.False(t, res.Active())
	})
}

func TestUserReservationRepoSetReservation(t *testing.T) {
	const (
		userCheck = "SELECT 1 FROM users WHERE id=? LIMIT 1"
		upsert    = "INSERT INTO user_reservations (user_id, airplane_type, seats) VALUES (?, ?, ?)"
	)

	t.Run("upsert", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q(userCheck)).WithArgs(uint64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectExec(q(upsert)).
			WithArgs(uint64(9), uint8(model.Regional), `["5E","5D"]`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := NewUserReservationRepo(db).SetReservation(context.Background(), 9, model.Regional, []string{"5E", "5D"})
		assert.NoError(t, err)
	})

	t.Run("clear", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q(userCheck)).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectExec(q(upsert)).
			WithArgs(uint64(9), uint8(model.Regional), `[]`).
			WillReturnResult(sqlmock.NewResult(0, 2))

		assert.NoError(t, NewUserReservationRepo(db).SetReservation(context.Background(), 9, model.Regional, nil))
	})

	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q(userCheck)).WithArgs(uint64(404)).WillReturnError(sql.ErrNoRows)

		err := NewUserReservationRepo(db).SetReservation(context.Background(), 404, model.Local, []string{"1A"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("user deleted concurrently", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q(userCheck)).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectExec(q(upsert)).
			WillReturnError(&mysql.MySQLError{Number: mysqlErrNoReferencedRow, Message: "foreign key"})

		err := NewUserReservationRepo(db).SetReservation(context.Background(), 9, model.Local, []string{"1A"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserReservationRepoListReservations(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("SELECT airplane_type, seats FROM user_reservations WHERE user_id=? ORDER BY airplane_type")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"airplane_type", "seats"}).
			AddRow(1, `["1A"]`).
			AddRow(2, `[]`).
			AddRow(3, `["10F","10E"]`))

	list, err := NewUserReservationRepo(db).ListReservations(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.UserReservation{UserID: 2, Type: model.Local, Seats: []string{"1A"}}, list[0])
	assert.Equal(t, model.International, list[1].Type)
	assert.Equal(t, []string{"10F", "10E"}, list[1].Seats)
}

func TestUserReservationRepoReservationsByType(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("SELECT user_id, seats FROM user_reservations WHERE airplane_type=? AND seats<>'[]' ORDER BY user_id")).
		WithArgs(uint8(model.Local)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "seats"}).
			AddRow(1, `["1A","1B"]`).
			AddRow(5, `["2C"]`))

	list, err := NewUserReservationRepo(db).ReservationsByType(context.Background(), model.Local)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(5), list[1].UserID)
	assert.Equal(t, []string{"2C"}, list[1].Seats)
}

func newTokenRepo(db *sql.DB, now time.Time) *TokenRepo {
	r := NewTokenRepo(db)
	r.now = func() time.Time { return now }
	return r
}

func TestTokenRepoValidateRefresh(t *testing.T) {
	const query = "SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"user_id", "expires_at", "revoked_at"}

	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		err     error
		want    uint64
		wantErr error
	}{
		{name: "live", rows: sqlmock.NewRows(cols).AddRow(3, now.Add(time.Hour), nil), want: 3},
		{name: "expired", rows: sqlmock.NewRows(cols).AddRow(3, now, nil), wantErr: ErrRefreshInvalid},
		{name: "revoked", rows: sqlmock.NewRows(cols).AddRow(3, now.Add(time.Hour), now.Add(-time.Minute)), wantErr: ErrRefreshInvalid},
		{name: "unknown", err: sql.ErrNoRows, wantErr: ErrRefreshInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			exp := mock.ExpectQuery(q(query)).WithArgs("abc")
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			got, err := newTokenRepo(db, now).ValidateRefresh(context.Background(), "abc")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenRepoRevokeAndPurge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db, mock := newMock(t)
	repo := newTokenRepo(db, now)

	mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL")).
		WithArgs(now, "abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at=? WHERE user_id=? AND revoked_at IS NULL")).
		WithArgs(now, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q("DELETE FROM refresh_tokens WHERE expires_at < ?")).
		WithArgs(now, now).
		WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.RevokeByHash(context.Background(), "abc"))
	require.NoError(t, repo.RevokeAllForUser(context.Background(), 3))
	n, err := repo.PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
