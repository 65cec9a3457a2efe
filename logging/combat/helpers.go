package combat

import (
	"context"

	"shakeout/server/logging"
)

const (
	// EventDamage is emitted when movement damage lands on a player.
	EventDamage logging.EventType = "combat.damage"
	// EventDeath is emitted when a player is eliminated.
	EventDeath logging.EventType = "combat.death"
	// EventDeathPrevented is emitted when a status effect aborts a death.
	EventDeathPrevented logging.EventType = "combat.death_prevented"
)

// DamagePayload captures the amount dealt to a single player.
type DamagePayload struct {
	Raw         float64 `json:"raw"`
	Applied     float64 `json:"applied"`
	Accumulated float64 `json:"accumulated"`
	Intensity   float64 `json:"intensity,omitempty"`
}

// DeathPayload describes the context of an elimination.
type DeathPayload struct {
	Role       string  `json:"role,omitempty"`
	Damage     float64 `json:"damage"`
	DeathCount int     `json:"deathCount"`
	GameTime   int64   `json:"gameTimeMs"`
}

// DeathPreventedPayload names the effect that saved the player.
type DeathPreventedPayload struct {
	StatusEffect string `json:"statusEffect"`
	GameTime     int64  `json:"gameTimeMs"`
}

// Damage publishes a damage event for a single player.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DamagePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

// Death publishes an elimination event.
func Death(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DeathPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDeath,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}

// DeathPrevented publishes a death-prevention event.
func DeathPrevented(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DeathPreventedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDeathPrevented,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	})
}
