package logging

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

const (
	defaultRouterBuffer = 512
	minSinkBuffer       = 32
	maxSinkBuffer       = 1024
	maxRetryShift       = 5
	retryBase           = 100 * time.Millisecond
)

// Router fans game events out to one worker per sink. Publish never blocks
// the simulation: events below the minimum severity are discarded up front
// and a full queue drops the event and counts it. Each sink keeps its own
// backlog so a slow file sink cannot starve the console.
type Router struct {
	cfg      Config
	queue    chan Event
	sinks    []*sinkWorker
	clock    Clock
	fallback *log.Logger
	fields   map[string]any
	drops    *dropLimiter

	closed    atomic.Bool
	done      chan struct{}
	stop      context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once

	eventsTotal  atomic.Uint64
	droppedTotal atomic.Uint64
}

// RouterStats summarizes router throughput for diagnostics.
type RouterStats struct {
	EventsTotal  uint64      `json:"eventsTotal"`
	DroppedTotal uint64      `json:"droppedTotal"`
	Sinks        []SinkStats `json:"sinks,omitempty"`
}

// SinkStats is one sink's delivery record.
type SinkStats struct {
	Name    string `json:"name"`
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

// NewRouter builds a router over the enabled subset of sinks. Workers start
// in name order so console output is stable.
func NewRouter(cfg Config, clock Clock, fallback *log.Logger, sinks map[string]Sink) (*Router, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	if fallback == nil {
		fallback = log.New(os.Stderr, "[logging] ", log.LstdFlags)
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultRouterBuffer
	}
	r := &Router{
		cfg:      cfg,
		queue:    make(chan Event, bufferSize),
		clock:    clock,
		fallback: fallback,
		fields:   cfg.CloneFields(),
		drops:    newDropLimiter(cfg.DropWarnInterval),
		done:     make(chan struct{}),
	}

	sinkBuffer := min(max(bufferSize, minSinkBuffer), maxSinkBuffer)
	names := make([]string, 0, len(sinks))
	for name, sink := range sinks {
		if sink == nil || (len(cfg.EnabledSinks) > 0 && !cfg.HasSink(name)) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.sinks = append(r.sinks, &sinkWorker{
			name:     name,
			sink:     sinks[name],
			events:   make(chan Event, sinkBuffer),
			fallback: fallback,
			drops:    r.drops,
		})
	}

	r.start()
	return r, nil
}

func (r *Router) start() {
	r.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		r.stop = cancel
		r.wg.Add(1 + len(r.sinks))
		go func() {
			defer r.wg.Done()
			r.dispatch(ctx)
		}()
		for _, worker := range r.sinks {
			go func(w *sinkWorker) {
				defer r.wg.Done()
				w.run()
			}(worker)
		}
		go func() {
			r.wg.Wait()
			close(r.done)
		}()
	})
}

// dispatch forwards queued events until ctx ends, then drains what is left
// and closes every sink backlog.
func (r *Router) dispatch(ctx context.Context) {
	defer func() {
		for _, worker := range r.sinks {
			close(worker.events)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-r.queue:
					r.forward(event)
				default:
					return
				}
			}
		case event := <-r.queue:
			r.forward(event)
		}
	}
}

func (r *Router) forward(event Event) {
	event = event.withDefaults(r.fields)
	r.eventsTotal.Add(1)
	for _, worker := range r.sinks {
		worker.enqueue(event)
	}
}

// Publish implements Publisher.
func (r *Router) Publish(ctx context.Context, event Event) {
	if r == nil || event.Type == "" || event.Severity < r.cfg.MinimumSeverity {
		return
	}
	if r.closed.Load() {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	select {
	case r.queue <- event:
	default:
		r.droppedTotal.Add(1)
		if r.drops.allow("router") {
			r.fallback.Printf("queue full dropping event type=%s game=%s tick=%d", event.Type, event.GameID(), event.Tick)
		}
	}
}

// Close drains queued events into the sinks and closes them. A second call
// is a no-op.
func (r *Router) Close(ctx context.Context) error {
	if r == nil || !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.stop()
	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	var firstErr error
	for _, worker := range r.sinks {
		if err := worker.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal:  r.eventsTotal.Load(),
		DroppedTotal: r.droppedTotal.Load(),
	}
	for _, worker := range r.sinks {
		stats.Sinks = append(stats.Sinks, SinkStats{
			Name:    worker.name,
			Written: worker.written.Load(),
			Dropped: worker.dropped.Load(),
			Failed:  worker.failed.Load(),
		})
	}
	return stats
}

func (r *Router) Sink(name string) Sink {
	for _, worker := range r.sinks {
		if worker.name == name {
			return worker.sink
		}
	}
	return nil
}

type sinkWorker struct {
	name     string
	sink     Sink
	events   chan Event
	fallback *log.Logger
	drops    *dropLimiter

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64

	// Only touched by run.
	failures  int
	nextRetry time.Time
}

func (w *sinkWorker) enqueue(event Event) {
	select {
	case w.events <- event.clone():
	default:
		w.dropped.Add(1)
		if w.drops.allow(w.name) {
			w.fallback.Printf("sink %s backlog full dropping event type=%s game=%s", w.name, event.Type, event.GameID())
		}
	}
}

func (w *sinkWorker) run() {
	for event := range w.events {
		if wait := time.Until(w.nextRetry); w.failures > 0 && wait > 0 {
			time.Sleep(wait)
		}
		if err := w.sink.Write(event); err != nil {
			w.failed.Add(1)
			w.backoff(err)
			continue
		}
		w.written.Add(1)
		w.failures = 0
	}
}

func (w *sinkWorker) backoff(err error) {
	w.failures++
	delay := retryBase << min(w.failures, maxRetryShift)
	w.nextRetry = time.Now().Add(delay)
	w.fallback.Printf("sink %s failed: %v (retry in %s)", w.name, err, delay)
}

// dropLimiter rate-limits drop warnings per source so a saturated sink does
// not flood the fallback logger every tick.
type dropLimiter struct {
	interval time.Duration
	mu       sync.Mutex
	next     map[string]time.Time
}

func newDropLimiter(interval time.Duration) *dropLimiter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &dropLimiter{interval: interval, next: make(map[string]time.Time)}
}

func (d *dropLimiter) allow(source string) bool {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if now.Before(d.next[source]) {
		return false
	}
	d.next[source] = now.Add(d.interval)
	return true
}
