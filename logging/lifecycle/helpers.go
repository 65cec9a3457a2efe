package lifecycle

import (
	"context"

	"shakeout/server/logging"
)

const (
	// EventGameStarted is emitted when a game passes validation and enters countdown.
	EventGameStarted logging.EventType = "lifecycle.game_started"
	// EventGameStopped is emitted when a running game is torn down by the host.
	EventGameStopped logging.EventType = "lifecycle.game_stopped"
	// EventRoundStarted is emitted when a round becomes active.
	EventRoundStarted logging.EventType = "lifecycle.round_started"
	// EventRoundEnded is emitted when a round's win condition is met.
	EventRoundEnded logging.EventType = "lifecycle.round_ended"
	// EventGameFinished is emitted when the mode declares the game over.
	EventGameFinished logging.EventType = "lifecycle.game_finished"
)

// GameStartedPayload captures the validated configuration of a new game.
type GameStartedPayload struct {
	Mode    string `json:"mode"`
	Players int    `json:"players"`
	Roles   bool   `json:"roles"`
}

// GameStoppedPayload captures why a game was torn down.
type GameStoppedPayload struct {
	State  string `json:"state"`
	Reason string `json:"reason"`
}

// RoundPayload captures round transition details.
type RoundPayload struct {
	Round    int    `json:"round"`
	WinnerID string `json:"winnerId,omitempty"`
	GameTime int64  `json:"gameTimeMs"`
}

// GameFinishedPayload captures the terminal outcome.
type GameFinishedPayload struct {
	WinnerID    string `json:"winnerId,omitempty"`
	TotalRounds int    `json:"totalRounds"`
}

// GameStarted publishes a game start event.
func GameStarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload GameStartedPayload, extra map[string]any) {
	publish(ctx, pub, EventGameStarted, logging.SeverityInfo, tick, actor, payload, extra)
}

// GameStopped publishes a game teardown event.
func GameStopped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload GameStoppedPayload, extra map[string]any) {
	publish(ctx, pub, EventGameStopped, logging.SeverityInfo, tick, actor, payload, extra)
}

// RoundStarted publishes a round start event.
func RoundStarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RoundPayload, extra map[string]any) {
	publish(ctx, pub, EventRoundStarted, logging.SeverityInfo, tick, actor, payload, extra)
}

// RoundEnded publishes a round end event.
func RoundEnded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RoundPayload, extra map[string]any) {
	publish(ctx, pub, EventRoundEnded, logging.SeverityInfo, tick, actor, payload, extra)
}

// GameFinished publishes the terminal game event.
func GameFinished(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload GameFinishedPayload, extra map[string]any) {
	publish(ctx, pub, EventGameFinished, logging.SeverityInfo, tick, actor, payload, extra)
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
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}
