package command

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/airplane-seat-reservation/internal/config"
	"github.com/iliyamo/airplane-seat-reservation/internal/database"
	"github.com/iliyamo/airplane-seat-reservation/internal/lock"
	"github.com/iliyamo/airplane-seat-reservation/internal/repository"
	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
)

// openDB connects to MySQL and makes sure every table exists.
func openDB(ctx context.Context, cfg config.Config, logger *log.Logger) (*sql.DB, error) {
	db, err := database.Open(ctx, cfg, config.LoadDBPoolConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// newCoordinator builds the coordinator over the MySQL stores.  rdb may be
// nil, in which case per-user locks stay in-process.
func newCoordinator(db *sql.DB, rdb *redis.Client, rc config.ReservationConfig, n reservation.Notifier, logger *log.Logger) (*reservation.Coordinator, error) {
	var locker lock.Locker = lock.NewLocal()
	if rdb != nil && rc.DistributedLocks {
		locker = lock.NewRedis(rdb, "lock", rc.LockTTL)
	}
	opts := []reservation.Option{
		reservation.WithMaxAttempts(rc.MaxAttempts),
		reservation.WithNotifyTimeout(rc.NotifyTimeout),
		reservation.WithLocker(locker),
		reservation.WithLogger(logger),
	}
	if n != nil {
		opts = append(opts, reservation.WithNotifier(n))
	}
	return reservation.New(
		repository.NewAirplaneRepo(db),
		repository.NewUserReservationRepo(db),
		opts...,
	)
}

func newLogger(prefix string, env string) *log.Logger {
	l := log.New(prefix)
	if env == "dev" {
		l.SetLevel(log.DEBUG)
	} else {
		l.SetLevel(log.INFO)
	}
	return l
}
