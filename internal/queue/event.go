// Package queue defines message payloads exchanged over the message broker
// and the background consumers that process them.
package queue

import (
	"time"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

// Queue names.  All queues are durable and fed through the default
// exchange with the queue name as routing key.
const (
	ReservationConfirmedQueue    = "reservation.confirmed"
	ReservationCancelledQueue    = "reservation.cancelled"
	ReservationInconsistentQueue = "reservation.inconsistent"
)

// Queues lists every queue the service declares.
var Queues = []string{ReservationConfirmedQueue, ReservationCancelledQueue, ReservationInconsistentQueue}

// ReservationEvent is published when a reservation is confirmed or
// cancelled.  It carries enough information for downstream consumers to
// log or notify without querying the primary database.
type ReservationEvent struct {
	EventID      string             `json:"event_id"`
	Kind         string             `json:"kind"` // "confirmed" or "cancelled"
	UserID       uint64             `json:"user_id"`
	AirplaneType model.AirplaneType `json:"airplane_type"`
	AirplaneName string             `json:"airplane_name"`
	Seats        []string           `json:"seats"`
	OccurredAt   string             `json:"occurred_at"`
}

const (
	KindConfirmed = "confirmed"
	KindCancelled = "cancelled"
)

// InconsistencyEvent is published when the inventory and the user store
// diverged and the coordinator could not roll back.
type InconsistencyEvent struct {
	EventID      string             `json:"event_id"`
	Op           string             `json:"op"`
	UserID       uint64             `json:"user_id"`
	AirplaneType model.AirplaneType `json:"airplane_type"`
	Seats        []string           `json:"seats"`
	Cause        string             `json:"cause"`
	Compensation string             `json:"compensation"`
	DetectedAt   string             `json:"detected_at"`
}

// Timestamp formats t the way every event does.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
