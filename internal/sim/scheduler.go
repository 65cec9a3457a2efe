package sim

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Token is handed to every scheduled callback. A callback that fires after its
// timer (or the owning group) was cancelled must observe Cancelled() == true
// and return without side effects.
type Token interface {
	Cancelled() bool
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Cancel prevents the callback from running. It reports whether the timer
	// was still pending.
	Cancel() bool
}

// Scheduler runs callbacks after a delay. Implementations exist for the wall
// clock and for a manually advanced virtual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func(Token)) Timer
}

type cancelFlag struct {
	cancelled atomic.Bool
	parent    *cancelFlag
}

func (f *cancelFlag) Cancelled() bool {
	for cur := f; cur != nil; cur = cur.parent {
		if cur.cancelled.Load() {
			return true
		}
	}
	return false
}

// WallScheduler schedules callbacks on the real clock.
type WallScheduler struct{}

type wallTimer struct {
	flag  *cancelFlag
	timer *time.Timer
}

// AfterFunc implements Scheduler using time.AfterFunc.
func (WallScheduler) AfterFunc(d time.Duration, fn func(Token)) Timer {
	flag := &cancelFlag{}
	t := &wallTimer{flag: flag}
	t.timer = time.AfterFunc(d, func() {
		if flag.Cancelled() || fn == nil {
			return
		}
		fn(flag)
	})
	return t
}

func (t *wallTimer) Cancel() bool {
	if t == nil {
		return false
	}
	already := t.flag.cancelled.Swap(true)
	stopped := t.timer.Stop()
	return stopped && !already
}

// VirtualScheduler fires callbacks only when Advance is called. Timers fire in
// deadline order; timers sharing a deadline fire in creation order.
type VirtualScheduler struct {
	mu      sync.Mutex
	epoch   time.Time
	elapsed time.Duration
	seq     uint64
	pending []*virtualTimer
}

type virtualTimer struct {
	owner    *VirtualScheduler
	flag     *cancelFlag
	deadline time.Duration
	seq      uint64
	fn       func(Token)
}

// NewVirtualScheduler constructs a virtual scheduler whose clock starts at epoch.
func NewVirtualScheduler(epoch time.Time) *VirtualScheduler {
	return &VirtualScheduler{epoch: epoch}
}

// Now reports the virtual time. VirtualScheduler satisfies logging.Clock.
func (v *VirtualScheduler) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.epoch.Add(v.elapsed)
}

// Elapsed reports the virtual time advanced so far.
func (v *VirtualScheduler) Elapsed() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.elapsed
}

// Pending reports the number of timers that have neither fired nor been cancelled.
func (v *VirtualScheduler) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	count := 0
	for _, t := range v.pending {
		if !t.flag.Cancelled() {
			count++
		}
	}
	return count
}

// AfterFunc implements Scheduler.
func (v *VirtualScheduler) AfterFunc(d time.Duration, fn func(Token)) Timer {
	if d < 0 {
		d = 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	t := &virtualTimer{
		owner:    v,
		flag:     &cancelFlag{},
		deadline: v.elapsed + d,
		seq:      v.seq,
		fn:       fn,
	}
	v.pending = append(v.pending, t)
	return t
}

// Advance moves the virtual clock forward by d, firing every timer whose
// deadline falls within the window. Callbacks run without the scheduler lock
// held and may schedule further timers. It returns the number of callbacks run.
func (v *VirtualScheduler) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	v.mu.Lock()
	target := v.elapsed + d
	v.mu.Unlock()

	fired := 0
	for {
		v.mu.Lock()
		next := v.popDueLocked(target)
		if next == nil {
			v.elapsed = target
			v.mu.Unlock()
			return fired
		}
		v.elapsed = next.deadline
		v.mu.Unlock()

		if next.flag.Cancelled() || next.fn == nil {
			continue
		}
		next.fn(next.flag)
		fired++
	}
}

func (v *VirtualScheduler) popDueLocked(target time.Duration) *virtualTimer {
	if len(v.pending) == 0 {
		return nil
	}
	sort.SliceStable(v.pending, func(i, j int) bool {
		if v.pending[i].deadline != v.pending[j].deadline {
			return v.pending[i].deadline < v.pending[j].deadline
		}
		return v.pending[i].seq < v.pending[j].seq
	})
	head := v.pending[0]
	if head.deadline > target {
		return nil
	}
	v.pending = v.pending[1:]
	return head
}

func (t *virtualTimer) Cancel() bool {
	if t == nil {
		return false
	}
	if t.flag.cancelled.Swap(true) {
		return false
	}
	owner := t.owner
	owner.mu.Lock()
	defer owner.mu.Unlock()
	for i, candidate := range owner.pending {
		if candidate == t {
			owner.pending = append(owner.pending[:i], owner.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Group schedules timers that can be cancelled as a unit. Once cancelled, the
// group refuses new timers and every outstanding callback observes a
// cancelled token.
type Group struct {
	scheduler Scheduler
	flag      *cancelFlag

	mu     sync.Mutex
	timers []Timer
}

// NewGroup creates a cancellation group on top of the scheduler.
func NewGroup(s Scheduler) *Group {
	if s == nil {
		s = WallScheduler{}
	}
	return &Group{scheduler: s, flag: &cancelFlag{}}
}

// AfterFunc schedules fn within the group. It returns nil when the group has
// already been cancelled.
func (g *Group) AfterFunc(d time.Duration, fn func(Token)) Timer {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.flag.Cancelled() {
		return nil
	}
	groupFlag := g.flag
	timer := g.scheduler.AfterFunc(d, func(tok Token) {
		combined := &cancelFlag{parent: groupFlag}
		if tok.Cancelled() {
			combined.cancelled.Store(true)
		}
		if combined.Cancelled() || fn == nil {
			return
		}
		fn(combined)
	})
	g.timers = append(g.timers, timer)
	return timer
}

// Cancel stops every timer in the group. It is idempotent.
func (g *Group) Cancel() {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.flag.cancelled.Store(true)
	for _, t := range g.timers {
		if t != nil {
			t.Cancel()
		}
	}
	g.timers = nil
}

// Cancelled reports whether Cancel was called.
func (g *Group) Cancelled() bool {
	if g == nil {
		return true
	}
	return g.flag.Cancelled()
}
