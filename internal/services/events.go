package services

import (
	"context"
	"time"

	"github.com/HammerMeetNail/splitledger/internal/logging"
	"github.com/HammerMeetNail/splitledger/internal/models"
)

// EventPublisher delivers ledger events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.Event) error { return nil }

var timeNow = time.Now

// publish sends an event after a mutation has committed. Failures are logged
// and swallowed; the mutation already happened.
func publish(ctx context.Context, p EventPublisher, event models.Event) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = timeNow().UTC()
	}
	if err := p.Publish(ctx, event); err != nil {
		logging.Warn("Failed to publish event", map[string]interface{}{
			"error":      err.Error(),
			"event_type": string(event.Type),
			"subject_id": event.SubjectID,
		})
	}
}
