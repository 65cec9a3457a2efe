package logging

import (
	"context"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

type EntityKind string

const (
	EntityKindUnknown EntityKind = "unknown"
	EntityKindPlayer  EntityKind = "player"
	EntityKindEffect  EntityKind = "effect"
	EntityKindBase    EntityKind = "base"
	EntityKindGame    EntityKind = "game"
)

const (
	CategoryGameplay  = "gameplay"
	CategoryCombat    = "combat"
	CategorySystem    = "system"
	CategoryLifecycle = "lifecycle"
)

// FieldGameID is the Extra key carrying the game an event belongs to.
const FieldGameID = "gameId"

// Event is one structured record. Game-scoped events either name the game as
// their actor or carry FieldGameID in Extra.
type Event struct {
	Type      EventType      `json:"type"`
	Tick      uint64         `json:"tick"`
	Time      time.Time      `json:"time"`
	Actor     EntityRef      `json:"actor"`
	Targets   []EntityRef    `json:"targets,omitempty"`
	Severity  Severity       `json:"severity"`
	Category  string         `json:"category,omitempty"`
	Payload   any            `json:"payload,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
	TraceID   string         `json:"traceId,omitempty"`
	CommandID string         `json:"commandId,omitempty"`
}

type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

// PlayerRef builds an entity reference for a player id.
func PlayerRef(id string) EntityRef {
	if id == "" {
		return EntityRef{Kind: EntityKindUnknown}
	}
	return EntityRef{ID: id, Kind: EntityKindPlayer}
}

// GameRef builds an entity reference for a game id.
func GameRef(id string) EntityRef {
	return EntityRef{ID: id, Kind: EntityKindGame}
}

// GameID reports which game the event belongs to, or "".
func (e Event) GameID() string {
	if e.Actor.Kind == EntityKindGame && e.Actor.ID != "" {
		return e.Actor.ID
	}
	if id, ok := e.Extra[FieldGameID].(string); ok {
		return id
	}
	return ""
}

// clone copies the slices and maps so the result can be mutated or handed
// to another goroutine.
func (e Event) clone() Event {
	if len(e.Targets) > 0 {
		e.Targets = append([]EntityRef(nil), e.Targets...)
	}
	if e.Extra != nil {
		copied := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			copied[k] = v
		}
		e.Extra = copied
	}
	return e
}

// withDefaults returns a clone carrying every field the event does not set
// itself.
func (e Event) withDefaults(fields map[string]any) Event {
	e = e.clone()
	if len(fields) == 0 {
		return e
	}
	if e.Extra == nil {
		e.Extra = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		if _, exists := e.Extra[k]; !exists {
			e.Extra[k] = v
		}
	}
	return e
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

func NopPublisher() Publisher {
	return nopPublisher{}
}

type fieldPublisher struct {
	next   Publisher
	fields map[string]any
}

func (p *fieldPublisher) Publish(ctx context.Context, event Event) {
	p.next.Publish(ctx, event.withDefaults(p.fields))
}

// WithFields wraps p so every event carries fields unless it sets them
// itself. The engine uses it to stamp the game id and mode.
func WithFields(p Publisher, fields map[string]any) Publisher {
	if p == nil {
		return NopPublisher()
	}
	if len(fields) == 0 {
		return p
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &fieldPublisher{next: p, fields: copied}
}
