package sim

import (
	"testing"
	"time"
)

func TestVirtualSchedulerFiresInDeadlineOrder(t *testing.T) {
	s := NewVirtualScheduler(time.Unix(0, 0))
	var order []string

	s.AfterFunc(300*time.Millisecond, func(Token) { order = append(order, "c") })
	s.AfterFunc(100*time.Millisecond, func(Token) { order = append(order, "a") })
	s.AfterFunc(100*time.Millisecond, func(Token) { order = append(order, "b") })

	if fired := s.Advance(200 * time.Millisecond); fired != 2 {
		t.Fatalf("expected 2 callbacks, got %d", fired)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected order %v", order)
	}
	if s.Elapsed() != 200*time.Millisecond {
		t.Fatalf("expected elapsed 200ms, got %s", s.Elapsed())
	}

	s.Advance(time.Second)
	if len(order) != 3 || order[2] != "c" {
		t.Fatalf("expected c to fire last, got %v", order)
	}
}

func TestVirtualSchedulerRunsTimersScheduledDuringAdvance(t *testing.T) {
	s := NewVirtualScheduler(time.Unix(0, 0))
	count := 0
	var chain func(Token)
	chain = func(Token) {
		count++
		if count < 3 {
			s.AfterFunc(time.Second, chain)
		}
	}
	s.AfterFunc(time.Second, chain)

	s.Advance(3 * time.Second)
	if count != 3 {
		t.Fatalf("expected chained timers to fire 3 times, got %d", count)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", s.Pending())
	}
}

func TestVirtualTimerCancel(t *testing.T) {
	s := NewVirtualScheduler(time.Unix(0, 0))
	fired := false
	timer := s.AfterFunc(time.Second, func(Token) { fired = true })

	if !timer.Cancel() {
		t.Fatalf("expected first cancel to report pending timer")
	}
	if timer.Cancel() {
		t.Fatalf("expected second cancel to be a no-op")
	}
	s.Advance(2 * time.Second)
	if fired {
		t.Fatalf("cancelled timer fired")
	}
}

func TestGroupCancelStopsAllTimers(t *testing.T) {
	s := NewVirtualScheduler(time.Unix(0, 0))
	g := NewGroup(s)
	fired := 0
	for i := 1; i <= 3; i++ {
		g.AfterFunc(time.Duration(i)*time.Second, func(Token) { fired++ })
	}

	s.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("expected one timer to fire before cancel, got %d", fired)
	}

	g.Cancel()
	g.Cancel()
	s.Advance(5 * time.Second)
	if fired != 1 {
		t.Fatalf("expected cancelled group to stay silent, got %d", fired)
	}
	if g.AfterFunc(time.Second, func(Token) { fired++ }) != nil {
		t.Fatalf("expected cancelled group to refuse new timers")
	}
	if !g.Cancelled() {
		t.Fatalf("expected group to report cancellation")
	}
}

func TestGroupTokenObservesLateCancel(t *testing.T) {
	s := NewVirtualScheduler(time.Unix(0, 0))
	g := NewGroup(s)
	var seen []bool
	g.AfterFunc(time.Second, func(tok Token) {
		seen = append(seen, tok.Cancelled())
		g.Cancel()
		seen = append(seen, tok.Cancelled())
	})
	s.Advance(time.Second)
	if len(seen) != 2 || seen[0] || !seen[1] {
		t.Fatalf("expected token to flip after cancel, got %v", seen)
	}
}

func TestLoopStepUsesNominalPeriod(t *testing.T) {
	var deltas []time.Duration
	clock := NewVirtualScheduler(time.Unix(0, 0))
	var results []LoopStepResult
	loop := NewLoop(TickerFunc(func(d time.Duration) { deltas = append(deltas, d) }), LoopConfig{TickRate: 20}, Deps{Clock: clock}, LoopHooks{
		AfterStep: func(r LoopStepResult) { results = append(results, r) },
	})

	loop.Step()
	loop.Step()

	if len(deltas) != 2 || deltas[0] != 50*time.Millisecond || deltas[1] != 50*time.Millisecond {
		t.Fatalf("unexpected deltas %v", deltas)
	}
	if len(results) != 2 || results[1].Tick != 2 {
		t.Fatalf("unexpected step results %+v", results)
	}
	if results[0].Overrun {
		t.Fatalf("virtual clock step should not overrun")
	}
}
