package reservation

import (
	"context"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

// Notifier receives the outcome of completed coordinator operations.
// Calls happen after the stores were written; an error is logged and does
// not undo anything.
type Notifier interface {
	Reserved(ctx context.Context, userID uint64, t model.AirplaneType, seats []string) error
	Cancelled(ctx context.Context, userID uint64, t model.AirplaneType, seats []string) error
	Inconsistent(ctx context.Context, incident *InconsistentError) error
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Reserved(context.Context, uint64, model.AirplaneType, []string) error  { return nil }
func (NopNotifier) Cancelled(context.Context, uint64, model.AirplaneType, []string) error { return nil }
func (NopNotifier) Inconsistent(context.Context, *InconsistentError) error                { return nil }
