package command

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/airplane-seat-reservation/internal/config"
	"github.com/iliyamo/airplane-seat-reservation/internal/handler"
	"github.com/iliyamo/airplane-seat-reservation/internal/middleware"
	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	"github.com/iliyamo/airplane-seat-reservation/internal/queue"
	"github.com/iliyamo/airplane-seat-reservation/internal/repository"
	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
	"github.com/iliyamo/airplane-seat-reservation/internal/router"
	queue_publisher "github.com/iliyamo/airplane-seat-reservation/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, the event consumers and the auditor",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	rc := config.LoadReservationConfig()
	logger := newLogger("airplane-seats", cfg.Env)

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	airplanes := repository.NewAirplaneRepo(db)
	for _, t := range model.AirplaneTypes {
		if err := airplanes.Provision(ctx, t); err != nil {
			return err
		}
	}

	tokens := repository.NewTokenRepo(db)

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable: cache, rate limiting and distributed locks disabled")
	} else {
		defer rdb.Close()
	}

	var notifier reservation.Notifier
	if rc.RabbitURL != "" {
		pub := queue_publisher.NewPublisher(rc.RabbitURL, logger)
		defer pub.Close()
		notifier = pub
	} else {
		logger.Warn("RABBITMQ_URL not set: reservation events disabled")
	}

	coord, err := newCoordinator(db, rdb, rc, notifier, logger)
	if err != nil {
		return err
	}
	reconciler := reservation.NewReconciler(coord)

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			j := log.JSON{"method": v.Method, "uri": v.URI, "status": v.Status, "latency": v.Latency.String()}
			if v.Error != nil {
				j["error"] = v.Error.Error()
			}
			logger.Infoj(j)
			return nil
		},
	}))

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewAirplaneHandler(coord), middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterReservations(e, handler.NewReservationHandler(coord), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterAdmin(e, handler.NewAdminHandler(reconciler), cfg.JWTSecret)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infoj(log.JSON{"msg": "listening", "addr": ":" + cfg.Port, "env": cfg.Env})
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if rc.RabbitURL != "" {
		bookingLog := queue.BookingLogHandler(rc.BookingLogDir)
		for _, name := range []string{queue.ReservationConfirmedQueue, queue.ReservationCancelledQueue} {
			name := name
			g.Go(func() error {
				return queue.StartConsumer(gctx, rc.RabbitURL, name, bookingLog, logger)
			})
		}
		g.Go(func() error {
			return queue.StartConsumer(gctx, rc.RabbitURL, queue.ReservationInconsistentQueue,
				queue.InconsistencyHandler(reconciler, logger), logger)
		})
	}

	g.Go(func() error {
		reconciler.StartAuditor(gctx, rc.AuditInterval, model.AirplaneTypes)
		return nil
	})
	g.Go(func() error {
		sweepSessions(gctx, tokens, time.Hour, logger)
		return nil
	})

	return g.Wait()
}

// sweepSessions deletes dead refresh tokens every interval until ctx is
// done.  Rows stay for a day after they expire or are revoked.
func sweepSessions(ctx context.Context, tokens *repository.TokenRepo, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		n, err := tokens.PurgeExpired(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warnj(log.JSON{"msg": "session sweep failed", "error": err.Error()})
			continue
		}
		if n > 0 {
			logger.Infoj(log.JSON{"msg": "sessions purged", "count": n})
		}
	}
}
