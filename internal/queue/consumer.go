package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
)

// Handler processes one message body.  A non-nil error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, body []byte) error

// StartConsumer connects to the broker at url, declares queue (durable)
// and feeds every delivery to h.  Broken connections are redialled with
// exponential backoff capped at 30s.  It returns nil once ctx is done.
func StartConsumer(ctx context.Context, url, queue string, h Handler, logger *log.Logger) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warnf("%s consumer: failed to dial broker: %v; retrying in %s", queue, err, backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, queue, h, logger)
		_ = conn.Close()
		if err == nil {
			return nil
		}
		logger.Warnf("%s consumer: consume loop ended: %v; reconnecting", queue, err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

// consumeLoop returns nil when ctx ends and an error when the broker side
// went away.
func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, h Handler, logger *log.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warnf("%s consumer: set QoS failed: %v", queue, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := h(ctx, d.Body); err != nil {
				logger.Errorf("%s consumer: handle message failed: %v", queue, err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// BookingLogHandler appends one human-friendly line per reservation event
// to dir/booking.log.
func BookingLogHandler(dir string) Handler {
	var mu sync.Mutex
	return func(_ context.Context, body []byte) error {
		var ev ReservationEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if ev.Kind != KindConfirmed && ev.Kind != KindCancelled {
			return fmt.Errorf("unknown event kind %q", ev.Kind)
		}

		mu.Lock()
		defer mu.Unlock()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir logs: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()

		line := fmt.Sprintf("[%s] Reservation %s | event_id=%s | user_id=%d | airplane=%q | seats=[%s]\n",
			ev.OccurredAt, ev.Kind, ev.EventID, ev.UserID, ev.AirplaneName, strings.Join(ev.Seats, ","))
		if _, err := f.WriteString(line); err != nil {
			return fmt.Errorf("write log: %w", err)
		}
		return nil
	}
}

// Repairer applies an incident to the user store.
type Repairer interface {
	RollForward(ctx context.Context, in reservation.Incident) error
}

// InconsistencyHandler decodes incident events and rolls each one forward.
// Stale incidents are logged and acknowledged.
func InconsistencyHandler(r Repairer, logger *log.Logger) Handler {
	return func(ctx context.Context, body []byte) error {
		var ev InconsistencyEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		in := reservation.Incident{
			ID:     ev.EventID,
			Op:     reservation.Operation(ev.Op),
			UserID: ev.UserID,
			Type:   ev.AirplaneType,
			Seats:  ev.Seats,
		}
		err := r.RollForward(ctx, in)
		if errors.Is(err, reservation.ErrStaleIncident) {
			logger.Warnj(log.JSON{"msg": "incident skipped", "event_id": ev.EventID, "error": err.Error()})
			return nil
		}
		return err
	}
}
