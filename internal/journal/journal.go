package journal

import (
	"sync"

	"shakeout/server/internal/game"
	"shakeout/server/internal/telemetry"
)

const (
	// DefaultCapacity bounds the number of retained events.
	DefaultCapacity = 256

	metricJournalEvents  = "journal_events_total"
	metricJournalEvicted = "journal_evicted_total"
)

// Journal retains the most recent events of the current game in a fixed-size
// ring. Ticks are skipped; a new game id clears the ring.
type Journal struct {
	mu      sync.Mutex
	data    []game.Event
	head    int
	count   int
	gameID  string
	evicted uint64
	metrics telemetry.Metrics
}

// New constructs a journal holding at most capacity events.
func New(capacity int, metrics telemetry.Metrics) *Journal {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Journal{data: make([]game.Event, capacity), metrics: metrics}
}

// Attach records every event published on the bus until the returned
// function is called.
func (j *Journal) Attach(bus *game.Bus) func() {
	return bus.SubscribeAll(j.Record)
}

// Record appends an event, evicting the oldest one when the ring is full.
func (j *Journal) Record(e game.Event) {
	if j == nil || e.Type == game.EventTick {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if e.GameID != "" && e.GameID != j.gameID {
		j.resetLocked()
		j.gameID = e.GameID
	}
	if j.count == len(j.data) {
		j.head = (j.head + 1) % len(j.data)
		j.count--
		j.evicted++
		if j.metrics != nil {
			j.metrics.Add(metricJournalEvicted, 1)
		}
	}
	j.data[(j.head+j.count)%len(j.data)] = e
	j.count++
	if j.metrics != nil {
		j.metrics.Add(metricJournalEvents, 1)
	}
}

// Recent returns the retained events, oldest first.
func (j *Journal) Recent() []game.Event {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	events := make([]game.Event, j.count)
	for i := 0; i < j.count; i++ {
		events[i] = j.data[(j.head+i)%len(j.data)]
	}
	return events
}

// GameID reports the game the retained events belong to.
func (j *Journal) GameID() string {
	if j == nil {
		return ""
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.gameID
}

// Evicted counts events pushed out of the ring since the last reset.
func (j *Journal) Evicted() uint64 {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.evicted
}

func (j *Journal) resetLocked() {
	clear(j.data)
	j.head = 0
	j.count = 0
	j.evicted = 0
}
