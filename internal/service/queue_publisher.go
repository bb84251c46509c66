// Package queue_publisher publishes reservation events to RabbitMQ.  Errors
// are logged and returned so callers can ignore failures without
// interrupting the main request flow.
package queue_publisher

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
	q "github.com/iliyamo/airplane-seat-reservation/internal/queue"
	"github.com/iliyamo/airplane-seat-reservation/internal/reservation"
)

// Publisher implements reservation.Notifier.  The broker connection is
// opened lazily and redialled after it closes.
type Publisher struct {
	url    string
	logger *log.Logger
	now    func() time.Time

	mu   sync.Mutex
	conn *amqp.Connection
}

var _ reservation.Notifier = (*Publisher)(nil)

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, logger *log.Logger) *Publisher {
	return &Publisher{url: url, logger: logger, now: time.Now}
}

func (p *Publisher) Reserved(ctx context.Context, userID uint64, t model.AirplaneType, seats []string) error {
	return p.publish(ctx, q.ReservationConfirmedQueue, p.reservationEvent(q.KindConfirmed, userID, t, seats))
}

func (p *Publisher) Cancelled(ctx context.Context, userID uint64, t model.AirplaneType, seats []string) error {
	return p.publish(ctx, q.ReservationCancelledQueue, p.reservationEvent(q.KindCancelled, userID, t, seats))
}

func (p *Publisher) Inconsistent(ctx context.Context, e *reservation.InconsistentError) error {
	return p.publish(ctx, q.ReservationInconsistentQueue, p.inconsistencyEvent(e))
}

func (p *Publisher) reservationEvent(kind string, userID uint64, t model.AirplaneType, seats []string) q.ReservationEvent {
	return q.ReservationEvent{
		EventID:      uuid.NewString(),
		Kind:         kind,
		UserID:       userID,
		AirplaneType: t,
		AirplaneName: t.String(),
		Seats:        seats,
		OccurredAt:   q.Timestamp(p.now()),
	}
}

func (p *Publisher) inconsistencyEvent(e *reservation.InconsistentError) q.InconsistencyEvent {
	ev := q.InconsistencyEvent{
		EventID:      uuid.NewString(),
		Op:           string(e.Op),
		UserID:       e.UserID,
		AirplaneType: e.Type,
		Seats:        e.Seats,
		DetectedAt:   q.Timestamp(p.now()),
	}
	if e.Cause != nil {
		ev.Cause = e.Cause.Error()
	}
	if e.Compensation != nil {
		ev.Compensation = e.Compensation.Error()
	}
	return ev
}

// dialTimeout caps connection setup when ctx carries no deadline.
const dialTimeout = 5 * time.Second

// connection returns the open connection or dials a new one, giving up by
// ctx's deadline.
func (p *Publisher) connection(ctx context.Context) (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := dialTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

// publish sends event as a persistent JSON message to queue.
func (p *Publisher) publish(ctx context.Context, queue string, event any) error {
	conn, err := p.connection(ctx)
	if err != nil {
		p.logger.Errorf("rabbitmq: dial failed: %v", err)
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		p.logger.Errorf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		p.logger.Errorf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Errorf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		p.logger.Errorf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// Close releases the broker connection if one is open.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}
