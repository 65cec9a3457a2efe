package status_effects

import (
	"context"

	"shakeout/server/logging"
)

const (
	// EventApplied is emitted when a status effect is attached to a player.
	EventApplied logging.EventType = "status_effects.applied"
	// EventRefreshed is emitted when an active effect type is applied again.
	EventRefreshed logging.EventType = "status_effects.refreshed"
	// EventRemoved is emitted when an effect expires or is removed explicitly.
	EventRemoved logging.EventType = "status_effects.removed"
)

// Payload captures details about a status effect transition.
type Payload struct {
	StatusEffect string `json:"statusEffect"`
	Priority     int    `json:"priority"`
	DurationMs   int64  `json:"durationMs,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Applied publishes a status effect application event.
func Applied(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload Payload, extra map[string]any) {
	publish(ctx, pub, EventApplied, tick, target, payload, extra)
}

// Refreshed publishes a status effect refresh event.
func Refreshed(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload Payload, extra map[string]any) {
	publish(ctx, pub, EventRefreshed, tick, target, payload, extra)
}

// Removed publishes a status effect removal event.
func Removed(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload Payload, extra map[string]any) {
	publish(ctx, pub, EventRemoved, tick, target, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, tick uint64, target logging.EntityRef, payload Payload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    target,
		Severity: logging.SeverityDebug,
		Category: "status_effects",
		Payload:  payload,
		Extra:    extra,
	})
}
