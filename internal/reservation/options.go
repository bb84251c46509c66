package reservation

import (
	"errors"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/airplane-seat-reservation/internal/lock"
)

// DefaultMaxAttempts bounds the compare-and-swap retry loop.
const DefaultMaxAttempts = 5

// DefaultNotifyTimeout bounds the delivery of one event.
const DefaultNotifyTimeout = 2 * time.Second

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithMaxAttempts sets how many compare-and-swap attempts a single request
// makes before failing with ErrContention.
func WithMaxAttempts(n int) Option {
	return func(c *Coordinator) error {
		if n < 1 {
			return errors.New("max attempts must be at least 1")
		}
		c.maxAttempts = n
		return nil
	}
}

// WithLocker replaces the in-process per-user lock, e.g. with lock.Redis
// when several server instances share the stores.
func WithLocker(l lock.Locker) Option {
	return func(c *Coordinator) error {
		if l == nil {
			return errors.New("nil locker")
		}
		c.locker = l
		return nil
	}
}

// WithNotifyTimeout sets how long a single event delivery may take before
// it is abandoned and logged.
func WithNotifyTimeout(d time.Duration) Option {
	return func(c *Coordinator) error {
		if d <= 0 {
			return errors.New("notify timeout must be positive")
		}
		c.notifyTimeout = d
		return nil
	}
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) error {
		if n == nil {
			return errors.New("nil notifier")
		}
		c.notifier = n
		return nil
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) error {
		if l == nil {
			return errors.New("nil logger")
		}
		c.logger = l
		return nil
	}
}
