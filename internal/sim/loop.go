package sim

import (
	"context"
	"time"

	"shakeout/server/internal/telemetry"
	"shakeout/server/logging"
)

const (
	// DefaultTickRate yields the 100ms simulation period.
	DefaultTickRate = 10

	metricLoopTicks   = "sim_loop_ticks_total"
	metricLoopOverrun = "sim_loop_overruns_total"
)

// Ticker is advanced once per loop period with the nominal period as delta.
type Ticker interface {
	Tick(delta time.Duration)
}

// TickerFunc adapts a function into a Ticker.
type TickerFunc func(delta time.Duration)

// Tick implements Ticker.
func (f TickerFunc) Tick(delta time.Duration) {
	if f == nil {
		return
	}
	f(delta)
}

// LoopConfig tunes the fixed-period driver.
type LoopConfig struct {
	TickRate int
	// CatchupMaxTicks bounds how many periods a single wake-up may replay
	// after the process stalled.
	CatchupMaxTicks int
}

// LoopHooks exposes optional instrumentation callbacks.
type LoopHooks struct {
	AfterStep func(LoopStepResult)
}

// LoopStepResult describes one executed period.
type LoopStepResult struct {
	Tick     uint64
	Delta    time.Duration
	Duration time.Duration
	Budget   time.Duration
	Overrun  bool
}

// Loop drives a Ticker on a fixed period. Every step advances simulated time
// by exactly one period so wall-clock jitter never leaks into the simulation.
type Loop struct {
	target  Ticker
	config  LoopConfig
	hooks   LoopHooks
	logger  telemetry.Logger
	metrics telemetry.Metrics
	clock   logging.Clock
	tick    uint64
}

// NewLoop wraps the target in a fixed-period loop.
func NewLoop(target Ticker, cfg LoopConfig, deps Deps, hooks LoopHooks) *Loop {
	if target == nil {
		return nil
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.CatchupMaxTicks <= 0 {
		cfg.CatchupMaxTicks = 1
	}
	clock := deps.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	return &Loop{
		target:  target,
		config:  cfg,
		hooks:   hooks,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		clock:   clock,
	}
}

// Period reports the nominal tick period.
func (l *Loop) Period() time.Duration {
	if l == nil {
		return time.Second / DefaultTickRate
	}
	return time.Second / time.Duration(l.config.TickRate)
}

// Step executes exactly one period.
func (l *Loop) Step() LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	period := l.Period()
	start := l.clock.Now()
	l.target.Tick(period)
	l.tick++
	result := LoopStepResult{
		Tick:     l.tick,
		Delta:    period,
		Duration: l.clock.Now().Sub(start),
		Budget:   period,
	}
	result.Overrun = result.Duration > result.Budget
	if l.metrics != nil {
		l.metrics.Add(metricLoopTicks, 1)
		if result.Overrun {
			l.metrics.Add(metricLoopOverrun, 1)
		}
	}
	if l.hooks.AfterStep != nil {
		l.hooks.AfterStep(result)
	}
	return result
}

// Run drives the loop until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil {
		return nil
	}
	period := l.Period()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := l.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := l.clock.Now()
			steps := int(now.Sub(last) / period)
			if steps < 1 {
				steps = 1
			}
			if steps > l.config.CatchupMaxTicks {
				if l.logger != nil {
					l.logger.Printf("[sim] loop behind by %d periods, replaying %d", steps, l.config.CatchupMaxTicks)
				}
				steps = l.config.CatchupMaxTicks
				last = now
			} else {
				last = last.Add(time.Duration(steps) * period)
			}
			for i := 0; i < steps; i++ {
				result := l.Step()
				if result.Overrun && l.logger != nil {
					l.logger.Printf("[sim] tick %d took %s (budget %s)", result.Tick, result.Duration, result.Budget)
				}
			}
		}
	}
}
