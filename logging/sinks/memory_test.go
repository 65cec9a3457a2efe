package sinks

import (
	"testing"

	"shakeout/server/logging"
)

func TestMemorySinkKeepsNewestEvents(t *testing.T) {
	sink := NewMemorySink(3)
	for _, typ := range []logging.EventType{"a", "b", "c", "d", "e"} {
		if err := sink.Write(logging.Event{Type: typ}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	var got []logging.EventType
	for _, event := range sink.Events() {
		got = append(got, event.Type)
	}
	if len(got) != 3 || got[0] != "c" || got[2] != "e" {
		t.Fatalf("expected the newest three events oldest first, got %v", got)
	}
	if sink.Evicted() != 2 {
		t.Fatalf("expected two evictions, got %d", sink.Evicted())
	}
}

func TestMemorySinkFiltersByGame(t *testing.T) {
	sink := NewMemorySink(0)
	sink.Write(logging.Event{Type: "game.started", Actor: logging.GameRef("g-1")})
	sink.Write(logging.Event{Type: "player.died", Actor: logging.PlayerRef("a"), Extra: map[string]any{logging.FieldGameID: "g-1"}})
	sink.Write(logging.Event{Type: "game.started", Actor: logging.GameRef("g-2")})

	if events := sink.ForGame("g-1"); len(events) != 2 {
		t.Fatalf("expected two events for g-1, got %d", len(events))
	}
	if events := sink.EventsOfType("game.started"); len(events) != 2 {
		t.Fatalf("expected two game.started events, got %d", len(events))
	}

	sink.Reset()
	if len(sink.Events()) != 0 {
		t.Fatalf("expected reset to clear the ring")
	}
}
