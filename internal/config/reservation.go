package config

import "time"

// ReservationConfig tunes the reservation coordinator and its background
// jobs.
type ReservationConfig struct {
	MaxAttempts      int           // RESERVE_MAX_ATTEMPTS, compare-and-swap attempts per request
	LockTTL          time.Duration // RESERVE_LOCK_TTL, lease of the Redis per-user lock
	DistributedLocks bool          // RESERVE_DISTRIBUTED_LOCKS, use Redis locks when Redis is up
	AuditInterval    time.Duration // AUDIT_INTERVAL, zero disables the periodic audit
	NotifyTimeout    time.Duration // EVENT_PUBLISH_TIMEOUT, bound on one event delivery
	RabbitURL        string        // RABBITMQ_URL or AMQP_URL, empty disables events
	BookingLogDir    string        // BOOKING_LOG_DIR
}

func LoadReservationConfig() ReservationConfig {
	c := ReservationConfig{
		MaxAttempts:      envInt("RESERVE_MAX_ATTEMPTS", 5),
		LockTTL:          envDur("RESERVE_LOCK_TTL", 10*time.Second),
		DistributedLocks: envBool("RESERVE_DISTRIBUTED_LOCKS", true),
		AuditInterval:    envDur("AUDIT_INTERVAL", 5*time.Minute),
		NotifyTimeout:    envDur("EVENT_PUBLISH_TIMEOUT", 2*time.Second),
		RabbitURL:        envStr("RABBITMQ_URL", envStr("AMQP_URL", "")),
		BookingLogDir:    envStr("BOOKING_LOG_DIR", "logs"),
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 10 * time.Second
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = 2 * time.Second
	}
	if c.AuditInterval < 0 {
		c.AuditInterval = 0
	}
	return c
}
