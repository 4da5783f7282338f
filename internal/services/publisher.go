package services

import (
	"context"
	"log/slog"
	"marketplace-service/internal/models"
)

// Publisher pushes marketplace events onto the event stream. The rabbitmq
// implementation lives in internal/event; tests use a recorder.
type Publisher interface {
	Publish(ctx context.Context, event models.MarketplaceEvent) error
}

// emit publishes best-effort: a broker outage must not fail the mutation
// that already committed.
func emit(ctx context.Context, publisher Publisher, event models.MarketplaceEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		slog.Error("Failed to publish marketplace event", "type", event.Type, "error", err)
	}
}
