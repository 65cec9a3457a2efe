// Package effects implements the built-in status effects.
package effects

import (
	"time"

	"shakeout/server/internal/game"
)

const (
	TypeInvulnerable = "invulnerable"
	TypeShield       = "shield"
	TypeLastStand    = "last-stand"
	TypeBloodlust    = "bloodlust"
	TypeResistance   = "resistance"
	TypeVulnerable   = "vulnerable"
	TypeRegeneration = "regeneration"
)

// Priorities. Higher values see incoming damage first.
const (
	PriorityInvulnerable = 100
	PriorityShield       = 90
	PriorityLastStand    = 80
	PriorityBloodlust    = 70
	PriorityResistance   = 50
	PriorityVulnerable   = 20
	PriorityRegeneration = 10
)

const (
	DefaultInvulnerableDuration = 3 * time.Second
	DefaultBloodlustDuration    = 5 * time.Second
	DefaultResistanceDuration   = 10 * time.Second
	DefaultVulnerableDuration   = 10 * time.Second
	DefaultRegenerationDuration = 5 * time.Second

	DefaultShieldCharges     = 3
	MaxShieldCharges         = 5
	DefaultResistanceFactor  = 0.5
	DefaultVulnerableFactor  = 1.5
	DefaultRegenerationRate  = 10.0
	BloodlustHealPerSecond   = 5.0
	LastStandInvulnerability = 2 * time.Second
	// LastStandRecovery is the fraction of the kill threshold a saved player
	// is healed down to.
	LastStandRecovery = 0.5
)

// Invulnerable ignores all damage and vetoes death while active.
type Invulnerable struct {
	game.EffectBase
}

func NewInvulnerable(duration time.Duration) *Invulnerable {
	return &Invulnerable{EffectBase: game.NewEffectBase(TypeInvulnerable, PriorityInvulnerable, duration)}
}

func (e *Invulnerable) ModifyIncomingDamage(*game.Player, float64) float64 { return 0 }
func (e *Invulnerable) OnPreventDeath(*game.Player, time.Duration) bool    { return true }

// Shield absorbs a fixed number of damaging hits and then expires.
type Shield struct {
	game.EffectBase
	charges int
}

func NewShield(charges int) *Shield {
	if charges <= 0 {
		charges = DefaultShieldCharges
	}
	return &Shield{EffectBase: game.NewEffectBase(TypeShield, PriorityShield, 0), charges: charges}
}

// Charges returns the hits left to absorb.
func (e *Shield) Charges() int { return e.charges }

func (e *Shield) ModifyIncomingDamage(_ *game.Player, damage float64) float64 {
	if damage <= 0 || e.charges <= 0 {
		return damage
	}
	e.charges--
	return 0
}

// OnRefresh stacks the incoming charges up to MaxShieldCharges.
func (e *Shield) OnRefresh(_ *game.Player, incoming game.StatusEffect, _ time.Duration) {
	if other, ok := incoming.(*Shield); ok {
		e.charges += other.charges
	}
	if e.charges > MaxShieldCharges {
		e.charges = MaxShieldCharges
	}
}

func (e *Shield) ShouldExpire(gameTime time.Duration) bool {
	return e.charges <= 0 || e.EffectBase.ShouldExpire(gameTime)
}

// LastStand vetoes one death, heals the player and grants a brief
// invulnerability. It is consumed by use.
type LastStand struct {
	game.EffectBase
	spent bool
}

func NewLastStand() *LastStand {
	return &LastStand{EffectBase: game.NewEffectBase(TypeLastStand, PriorityLastStand, 0)}
}

func (e *LastStand) OnPreventDeath(p *game.Player, gameTime time.Duration) bool {
	if e.spent {
		return false
	}
	e.spent = true
	p.Heal(p.Damage() - p.KillThreshold()*LastStandRecovery)
	p.ApplyStatusEffect(NewInvulnerable(LastStandInvulnerability), gameTime)
	return true
}

func (e *LastStand) ShouldExpire(time.Duration) bool { return e.spent }

// Bloodlust makes the player immune to movement damage and slowly heals them.
type Bloodlust struct {
	game.EffectBase
}

func NewBloodlust(duration time.Duration) *Bloodlust {
	if duration <= 0 {
		duration = DefaultBloodlustDuration
	}
	return &Bloodlust{EffectBase: game.NewEffectBase(TypeBloodlust, PriorityBloodlust, duration)}
}

func (e *Bloodlust) ModifyIncomingDamage(*game.Player, float64) float64 { return 0 }

func (e *Bloodlust) OnTick(p *game.Player, _ time.Duration, delta time.Duration) {
	p.Heal(BloodlustHealPerSecond * delta.Seconds())
}

// Resistance scales incoming damage down.
type Resistance struct {
	game.EffectBase
	factor float64
}

func NewResistance(duration time.Duration, factor float64) *Resistance {
	if duration <= 0 {
		duration = DefaultResistanceDuration
	}
	if factor <= 0 || factor >= 1 {
		factor = DefaultResistanceFactor
	}
	return &Resistance{EffectBase: game.NewEffectBase(TypeResistance, PriorityResistance, duration), factor: factor}
}

func (e *Resistance) ModifyIncomingDamage(_ *game.Player, damage float64) float64 {
	return damage * e.factor
}

// Vulnerable scales incoming damage up.
type Vulnerable struct {
	game.EffectBase
	factor float64
}

func NewVulnerable(duration time.Duration, factor float64) *Vulnerable {
	if duration <= 0 {
		duration = DefaultVulnerableDuration
	}
	if factor <= 1 {
		factor = DefaultVulnerableFactor
	}
	return &Vulnerable{EffectBase: game.NewEffectBase(TypeVulnerable, PriorityVulnerable, duration), factor: factor}
}

func (e *Vulnerable) ModifyIncomingDamage(_ *game.Player, damage float64) float64 {
	return damage * e.factor
}

// Regeneration heals a fixed amount per second.
type Regeneration struct {
	game.EffectBase
	rate float64
}

func NewRegeneration(duration time.Duration, ratePerSecond float64) *Regeneration {
	if duration <= 0 {
		duration = DefaultRegenerationDuration
	}
	if ratePerSecond <= 0 {
		ratePerSecond = DefaultRegenerationRate
	}
	return &Regeneration{EffectBase: game.NewEffectBase(TypeRegeneration, PriorityRegeneration, duration), rate: ratePerSecond}
}

func (e *Regeneration) OnTick(p *game.Player, _ time.Duration, delta time.Duration) {
	p.Heal(e.rate * delta.Seconds())
}

// Register adds every built-in effect to the registry. A zero duration
// passed to a factory selects the effect's default.
func Register(r *game.Registry) {
	r.RegisterEffect(TypeInvulnerable, func(d time.Duration) game.StatusEffect {
		if d <= 0 {
			d = DefaultInvulnerableDuration
		}
		return NewInvulnerable(d)
	})
	r.RegisterEffect(TypeShield, func(time.Duration) game.StatusEffect { return NewShield(DefaultShieldCharges) })
	r.RegisterEffect(TypeLastStand, func(time.Duration) game.StatusEffect { return NewLastStand() })
	r.RegisterEffect(TypeBloodlust, func(d time.Duration) game.StatusEffect { return NewBloodlust(d) })
	r.RegisterEffect(TypeResistance, func(d time.Duration) game.StatusEffect { return NewResistance(d, DefaultResistanceFactor) })
	r.RegisterEffect(TypeVulnerable, func(d time.Duration) game.StatusEffect { return NewVulnerable(d, DefaultVulnerableFactor) })
	r.RegisterEffect(TypeRegeneration, func(d time.Duration) game.StatusEffect { return NewRegeneration(d, DefaultRegenerationRate) })
}
