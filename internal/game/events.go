package game

import (
	"sync"
)

// EventType names an outbound engine event.
type EventType string

const (
	EventTick          EventType = "game:tick"
	EventCountdown     EventType = "game:countdown"
	EventGameEnd       EventType = "game:end"
	EventStateChanged  EventType = "game:state"
	EventRoundStart    EventType = "round:start"
	EventRoundEnd      EventType = "round:end"
	EventPlayerDeath   EventType = "player:death"
	EventPlayerRespawn EventType = "player:respawn"
	EventRoleAssigned  EventType = "role:assigned"
	EventModeEvent     EventType = "mode:event"
)

// Event is a single outbound notification. Seq increases monotonically per
// engine so consumers can order events delivered from different goroutines.
type Event struct {
	Seq     uint64    `json:"seq" msgpack:"seq"`
	Type    EventType `json:"type" msgpack:"type"`
	GameID  string    `json:"gameId,omitempty" msgpack:"gameId,omitempty"`
	Payload any       `json:"payload,omitempty" msgpack:"payload,omitempty"`
}

// TickPayload accompanies game:tick.
type TickPayload struct {
	GameTimeMs           int64        `json:"gameTimeMs" msgpack:"gameTimeMs"`
	Round                int          `json:"round" msgpack:"round"`
	RoundTimeRemainingMs *int64       `json:"roundTimeRemainingMs" msgpack:"roundTimeRemainingMs"`
	Players              []PlayerView `json:"players" msgpack:"players"`
	Motion               []MotionStat `json:"motion,omitempty" msgpack:"motion,omitempty"`
	ModeState            any          `json:"modeState,omitempty" msgpack:"modeState,omitempty"`
}

// MotionStat summarizes a player's recent movement intensities.
type MotionStat struct {
	PlayerID string  `json:"playerId" msgpack:"playerId"`
	Peak     float64 `json:"peak" msgpack:"peak"`
	Average  float64 `json:"average" msgpack:"average"`
}

// CountdownPhase labels a countdown emission.
type CountdownPhase string

const (
	PhaseCountdown CountdownPhase = "countdown"
	PhaseGo        CountdownPhase = "go"
)

// CountdownPayload accompanies game:countdown.
type CountdownPayload struct {
	SecondsRemaining int            `json:"secondsRemaining" msgpack:"secondsRemaining"`
	Phase            CountdownPhase `json:"phase" msgpack:"phase"`
	Round            int            `json:"round" msgpack:"round"`
}

// RoleAssignment pairs a player with the role they play this round.
type RoleAssignment struct {
	PlayerID string   `json:"playerId" msgpack:"playerId"`
	Role     RoleInfo `json:"role" msgpack:"role"`
}

// RoleAssignedPayload accompanies role:assigned.
type RoleAssignedPayload struct {
	Round       int              `json:"round" msgpack:"round"`
	Assignments []RoleAssignment `json:"assignments" msgpack:"assignments"`
}

// DeathEventPayload accompanies player:death.
type DeathEventPayload struct {
	VictimID   string `json:"victimId" msgpack:"victimId"`
	VictimName string `json:"victimName" msgpack:"victimName"`
	GameTimeMs int64  `json:"gameTimeMs" msgpack:"gameTimeMs"`
}

// RespawnEventPayload accompanies player:respawn.
type RespawnEventPayload struct {
	PlayerID   string `json:"playerId" msgpack:"playerId"`
	GameTimeMs int64  `json:"gameTimeMs" msgpack:"gameTimeMs"`
}

// RoundEventPayload accompanies round:start and round:end.
type RoundEventPayload struct {
	Round    int          `json:"round" msgpack:"round"`
	WinnerID string       `json:"winnerId,omitempty" msgpack:"winnerId,omitempty"`
	Scores   []ScoreEntry `json:"scores" msgpack:"scores"`
}

// GameEndPayload accompanies game:end.
type GameEndPayload struct {
	WinnerID    string       `json:"winnerId,omitempty" msgpack:"winnerId,omitempty"`
	Scores      []ScoreEntry `json:"scores" msgpack:"scores"`
	TotalRounds int          `json:"totalRounds" msgpack:"totalRounds"`
	Reason      string       `json:"reason,omitempty" msgpack:"reason,omitempty"`
}

// StatePayload accompanies game:state.
type StatePayload struct {
	From State `json:"from" msgpack:"from"`
	To   State `json:"to" msgpack:"to"`
}

// ModeEventPayload accompanies mode:event.
type ModeEventPayload struct {
	Name string `json:"name" msgpack:"name"`
	Data any    `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Handler receives delivered events.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers engine events to typed subscribers. Handlers run synchronously
// on the delivering goroutine, after the engine has released its lock.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	typed  map[EventType][]subscription
	all    []subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{typed: make(map[EventType][]subscription)}
}

// Subscribe registers a handler for one event type. The returned function
// removes the subscription.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	if b == nil || handler == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.typed[eventType] = append(b.typed[eventType], subscription{id: id, handler: handler})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.typed[eventType] = removeSubscription(b.typed[eventType], id)
	}
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) func() {
	if b == nil || handler == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: handler})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = removeSubscription(b.all, id)
	}
}

// Dispatch delivers events in order. Typed subscribers run before catch-all
// subscribers for each event.
func (b *Bus) Dispatch(events []Event) {
	if b == nil {
		return
	}
	for _, event := range events {
		b.mu.RLock()
		typed := append([]subscription(nil), b.typed[event.Type]...)
		all := append([]subscription(nil), b.all...)
		b.mu.RUnlock()
		for _, sub := range typed {
			sub.handler(event)
		}
		for _, sub := range all {
			sub.handler(event)
		}
	}
}

func removeSubscription(subs []subscription, id uint64) []subscription {
	for i, sub := range subs {
		if sub.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
