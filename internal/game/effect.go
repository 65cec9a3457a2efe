package game

import (
	"sort"
	"time"
)

// StatusEffect is a timed or permanent modifier attached to one player.
// Concrete effects embed EffectBase and override the hooks they need.
type StatusEffect interface {
	Type() string
	Priority() int
	Base() *EffectBase

	OnApply(p *Player, gameTime time.Duration)
	OnRemove(p *Player, gameTime time.Duration)
	// OnRefresh runs when an effect of the same type is applied while this
	// one is active. The incoming instance is discarded afterwards.
	OnRefresh(p *Player, incoming StatusEffect, gameTime time.Duration)
	OnTick(p *Player, gameTime, delta time.Duration)
	OnMovement(p *Player, intensity float64, gameTime time.Duration)
	ModifyIncomingDamage(p *Player, damage float64) float64
	// OnPreventDeath returns true to abort a pending death.
	OnPreventDeath(p *Player, gameTime time.Duration) bool
	ShouldExpire(gameTime time.Duration) bool
}

// EffectBase carries the bookkeeping shared by every status effect and the
// default no-op hooks. A duration of zero or less makes the effect permanent.
type EffectBase struct {
	kind     string
	priority int
	duration time.Duration
	start    time.Duration
	end      time.Duration
	active   bool
	seq      uint64
}

// NewEffectBase builds the shared state for an effect.
func NewEffectBase(kind string, priority int, duration time.Duration) EffectBase {
	if duration < 0 {
		duration = 0
	}
	return EffectBase{kind: kind, priority: priority, duration: duration}
}

func (b *EffectBase) Type() string      { return b.kind }
func (b *EffectBase) Priority() int     { return b.priority }
func (b *EffectBase) Base() *EffectBase { return b }

// Timed reports whether the effect has an end time.
func (b *EffectBase) Timed() bool { return b.duration > 0 }

func (b *EffectBase) Duration() time.Duration  { return b.duration }
func (b *EffectBase) StartTime() time.Duration { return b.start }
func (b *EffectBase) Active() bool             { return b.active }

// EndTime returns the expiry time and whether one is set.
func (b *EffectBase) EndTime() (time.Duration, bool) {
	if !b.Timed() {
		return 0, false
	}
	return b.end, true
}

// Remaining returns the time left before expiry, or zero for permanent effects.
func (b *EffectBase) Remaining(gameTime time.Duration) time.Duration {
	if !b.Timed() || gameTime >= b.end {
		return 0
	}
	return b.end - gameTime
}

// Extend restarts the expiry window from gameTime. A non-positive duration
// makes the effect permanent.
func (b *EffectBase) Extend(duration, gameTime time.Duration) {
	if duration <= 0 {
		b.duration = 0
		b.end = 0
		return
	}
	b.duration = duration
	b.end = gameTime + duration
}

func (b *EffectBase) attach(gameTime time.Duration, seq uint64) {
	b.start = gameTime
	b.active = true
	b.seq = seq
	if b.Timed() {
		b.end = gameTime + b.duration
	}
}

func (b *EffectBase) detach() {
	b.active = false
}

func (b *EffectBase) OnApply(*Player, time.Duration)  {}
func (b *EffectBase) OnRemove(*Player, time.Duration) {}

// OnRefresh extends the active instance to the incoming duration.
func (b *EffectBase) OnRefresh(_ *Player, incoming StatusEffect, gameTime time.Duration) {
	if incoming == nil {
		return
	}
	b.Extend(incoming.Base().duration, gameTime)
}

func (b *EffectBase) OnTick(*Player, time.Duration, time.Duration)      {}
func (b *EffectBase) OnMovement(*Player, float64, time.Duration)        {}
func (b *EffectBase) ModifyIncomingDamage(_ *Player, d float64) float64 { return d }
func (b *EffectBase) OnPreventDeath(*Player, time.Duration) bool        { return false }

func (b *EffectBase) ShouldExpire(gameTime time.Duration) bool {
	return b.Timed() && gameTime >= b.end
}

// EffectSet holds a player's active effects. Iteration order is priority
// descending, ties broken by insertion order.
type EffectSet struct {
	items []StatusEffect
	seq   uint64
}

// Len returns the number of active effects.
func (s *EffectSet) Len() int {
	return len(s.items)
}

// Ordered returns a snapshot of the effects by descending priority, ties in
// application order. Callers may add or remove effects while iterating the
// snapshot.
func (s *EffectSet) Ordered() []StatusEffect {
	out := append([]StatusEffect(nil), s.items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() > out[j].Priority()
		}
		return out[i].Base().seq < out[j].Base().seq
	})
	return out
}

// Find returns the active effect of the given type.
func (s *EffectSet) Find(kind string) StatusEffect {
	for _, effect := range s.items {
		if effect.Type() == kind {
			return effect
		}
	}
	return nil
}

// Contains reports whether the exact instance is in the set.
func (s *EffectSet) Contains(effect StatusEffect) bool {
	for _, existing := range s.items {
		if existing == effect {
			return true
		}
	}
	return false
}

func (s *EffectSet) add(effect StatusEffect, gameTime time.Duration) {
	s.seq++
	effect.Base().attach(gameTime, s.seq)
	s.items = append(s.items, effect)
}

func (s *EffectSet) remove(effect StatusEffect) bool {
	for i, existing := range s.items {
		if existing == effect {
			s.items = append(s.items[:i], s.items[i+1:]...)
			effect.Base().detach()
			return true
		}
	}
	return false
}
