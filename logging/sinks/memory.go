package sinks

import (
	"context"
	"sync"

	"shakeout/server/logging"
)

// DefaultMemoryCapacity bounds the memory sink when no capacity is given.
const DefaultMemoryCapacity = 256

// MemorySink keeps the most recent log events in a bounded ring. The server
// enables it so /diagnostics can show recent log output per game; tests use
// it to assert on published events.
type MemorySink struct {
	mu       sync.RWMutex
	events   []logging.Event
	start    int
	capacity int
	evicted  uint64
}

// NewMemorySink builds a sink holding at most capacity events. A
// non-positive capacity uses DefaultMemoryCapacity.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemorySink{capacity: capacity}
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) < s.capacity {
		s.events = append(s.events, event)
		return nil
	}
	s.events[s.start] = event
	s.start = (s.start + 1) % s.capacity
	s.evicted++
	return nil
}

// Events returns the retained events, oldest first.
func (s *MemorySink) Events() []logging.Event {
	return s.filter(func(logging.Event) bool { return true })
}

// EventsOfType returns the retained events of one type, oldest first.
func (s *MemorySink) EventsOfType(typ logging.EventType) []logging.Event {
	return s.filter(func(e logging.Event) bool { return e.Type == typ })
}

// ForGame returns the retained events belonging to gameID, oldest first.
func (s *MemorySink) ForGame(gameID string) []logging.Event {
	return s.filter(func(e logging.Event) bool { return e.GameID() == gameID })
}

// Evicted reports how many events the ring has overwritten.
func (s *MemorySink) Evicted() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicted
}

func (s *MemorySink) filter(keep func(logging.Event) bool) []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]logging.Event, 0, len(s.events))
	for i := range s.events {
		event := s.events[(s.start+i)%len(s.events)]
		if keep(event) {
			out = append(out, event)
		}
	}
	return out
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = s.events[:0]
	s.start = 0
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}
