package simulation

import (
	"context"

	"shakeout/server/logging"
)

const (
	// EventMovementRejected is emitted when a motion payload fails normalization.
	EventMovementRejected logging.EventType = "simulation.movement_rejected"
	// EventHookRecovered is emitted when a role, effect or mode hook panicked
	// and the engine absorbed it.
	EventHookRecovered logging.EventType = "simulation.hook_recovered"
	// EventRespawnRefused is emitted when too little round time remains to respawn.
	EventRespawnRefused logging.EventType = "simulation.respawn_refused"
	// EventLookupMissed is emitted when a hook referenced an unknown player.
	EventLookupMissed logging.EventType = "simulation.lookup_missed"
)

// MovementRejectedPayload captures why a motion sample was discarded.
type MovementRejectedPayload struct {
	Reason string `json:"reason"`
}

// HookRecoveredPayload names the hook that panicked.
type HookRecoveredPayload struct {
	Hook  string `json:"hook"`
	Panic string `json:"panic"`
}

// RespawnRefusedPayload captures the timing that made respawn impossible.
type RespawnRefusedPayload struct {
	GameTime      int64 `json:"gameTimeMs"`
	Delay         int64 `json:"delayMs"`
	RoundDuration int64 `json:"roundDurationMs"`
}

// LookupMissedPayload names the id that could not be resolved.
type LookupMissedPayload struct {
	PlayerID string `json:"playerId"`
	Context  string `json:"context"`
}

// MovementRejected publishes a warning for a malformed motion payload.
func MovementRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MovementRejectedPayload, extra map[string]any) {
	publish(ctx, pub, EventMovementRejected, logging.SeverityWarn, tick, actor, payload, extra)
}

// HookRecovered publishes an error for a panicking hook.
func HookRecovered(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload HookRecoveredPayload, extra map[string]any) {
	publish(ctx, pub, EventHookRecovered, logging.SeverityError, tick, actor, payload, extra)
}

// RespawnRefused publishes a debug event when a respawn is not scheduled.
func RespawnRefused(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RespawnRefusedPayload, extra map[string]any) {
	publish(ctx, pub, EventRespawnRefused, logging.SeverityDebug, tick, actor, payload, extra)
}

// LookupMissed publishes a warning when a hook referenced an unknown player.
func LookupMissed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LookupMissedPayload, extra map[string]any) {
	publish(ctx, pub, EventLookupMissed, logging.SeverityWarn, tick, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, sev logging.Severity, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Tick:     tick,
		Actor:    actor,
		Severity: sev,
		Category: "simulation",
		Payload:  payload,
		Extra:    extra,
	})
}
