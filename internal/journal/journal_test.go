package journal

import (
	"testing"

	"shakeout/server/internal/game"
)

type countingMetrics struct {
	values map[string]uint64
}

func (m *countingMetrics) Add(key string, delta uint64) {
	if m.values == nil {
		m.values = make(map[string]uint64)
	}
	m.values[key] += delta
}

func (m *countingMetrics) Store(key string, value uint64) {
	if m.values == nil {
		m.values = make(map[string]uint64)
	}
	m.values[key] = value
}

func event(seq uint64, kind game.EventType, gameID string) game.Event {
	return game.Event{Seq: seq, Type: kind, GameID: gameID}
}

func TestJournalEvictsOldestAndSkipsTicks(t *testing.T) {
	metrics := &countingMetrics{}
	j := New(3, metrics)

	j.Record(event(1, game.EventRoundStart, "g1"))
	j.Record(event(2, game.EventTick, "g1"))
	j.Record(event(3, game.EventPlayerDeath, "g1"))
	j.Record(event(4, game.EventPlayerDeath, "g1"))
	j.Record(event(5, game.EventRoundEnd, "g1"))

	recent := j.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(recent))
	}
	for i, want := range []uint64{3, 4, 5} {
		if recent[i].Seq != want {
			t.Fatalf("event %d: expected seq %d, got %d", i, want, recent[i].Seq)
		}
	}
	if j.Evicted() != 1 {
		t.Fatalf("expected one eviction, got %d", j.Evicted())
	}
	if metrics.values[metricJournalEvents] != 4 || metrics.values[metricJournalEvicted] != 1 {
		t.Fatalf("unexpected metrics %v", metrics.values)
	}
}

func TestJournalResetsOnNewGame(t *testing.T) {
	j := New(4, nil)
	j.Record(event(1, game.EventRoundStart, "g1"))
	j.Record(event(2, game.EventGameEnd, "g1"))
	j.Record(event(3, game.EventRoundStart, "g2"))

	recent := j.Recent()
	if len(recent) != 1 || recent[0].Seq != 3 || j.GameID() != "g2" {
		t.Fatalf("expected only the new game's events, got %+v (game %q)", recent, j.GameID())
	}
}

func TestJournalAttachRecordsBusEvents(t *testing.T) {
	bus := game.NewBus()
	j := New(8, nil)
	detach := j.Attach(bus)

	bus.Dispatch([]game.Event{event(1, game.EventStateChanged, "g1"), event(2, game.EventTick, "g1")})
	detach()
	bus.Dispatch([]game.Event{event(3, game.EventStateChanged, "g1")})

	if got := len(j.Recent()); got != 1 {
		t.Fatalf("expected one recorded event, got %d", got)
	}
}
