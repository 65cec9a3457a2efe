package game

import (
	"context"
	"math"
	"time"

	"shakeout/server/logging"
	loggingcombat "shakeout/server/logging/combat"
	loggingstatus "shakeout/server/logging/status_effects"
)

// PlayerSpec describes a roster entry supplied when a game starts.
type PlayerSpec struct {
	ID     string
	Name   string
	TeamID string
	// Conn is an opaque connection reference owned by the transport.
	Conn any
}

// Player is one participant in the current game. Players are mutated only by
// the engine and by role, effect and mode hooks it invokes.
type Player struct {
	id     string
	name   string
	teamID string
	conn   any

	role  Role
	world World

	alive       bool
	damage      float64
	toughness   float64
	points      int
	totalPoints int
	deathCount  int
	lastDeath   time.Duration
	targetID    string
	intensity   float64

	dangerThreshold  float64
	damageMultiplier float64
	killThreshold    float64
	instantDeath     bool

	effects EffectSet
	onDeath func(p *Player, gameTime time.Duration)
}

// NewPlayer builds a standalone player. The engine builds its own roster;
// this is for tools and tests that exercise roles and effects directly.
// A nil world disables logging and world lookups.
func NewPlayer(spec PlayerSpec, world World, cfg ModeConfig) *Player {
	cfg = cfg.Normalized()
	name := spec.Name
	if name == "" {
		name = spec.ID
	}
	return &Player{
		id:               spec.ID,
		name:             name,
		teamID:           spec.TeamID,
		conn:             spec.Conn,
		world:            world,
		alive:            true,
		toughness:        1,
		dangerThreshold:  cfg.DangerThreshold,
		damageMultiplier: cfg.DamageMultiplier,
		killThreshold:    cfg.KillThreshold,
		instantDeath:     cfg.DamagePolicy == DamageInstant,
	}
}

func (p *Player) ID() string       { return p.id }
func (p *Player) Name() string     { return p.name }
func (p *Player) TeamID() string   { return p.teamID }
func (p *Player) Conn() any        { return p.conn }
func (p *Player) Role() Role       { return p.role }
func (p *Player) World() World     { return p.world }
func (p *Player) Alive() bool      { return p.alive }
func (p *Player) Damage() float64  { return p.damage }
func (p *Player) Points() int      { return p.points }
func (p *Player) TotalPoints() int { return p.totalPoints }
func (p *Player) DeathCount() int  { return p.deathCount }
func (p *Player) TargetID() string { return p.targetID }

// LastIntensity returns the most recent normalized movement intensity.
func (p *Player) LastIntensity() float64 { return p.intensity }

// LastDeath returns the game time of the most recent death.
func (p *Player) LastDeath() time.Duration { return p.lastDeath }

func (p *Player) Toughness() float64        { return p.toughness }
func (p *Player) DangerThreshold() float64  { return p.dangerThreshold }
func (p *Player) DamageMultiplier() float64 { return p.damageMultiplier }
func (p *Player) KillThreshold() float64    { return p.killThreshold }

// RoleName returns the assigned role key.
func (p *Player) RoleName() string {
	if p.role == nil {
		return ""
	}
	return p.role.Name()
}

// AssignRole replaces the player's role.
func (p *Player) AssignRole(role Role) { p.role = role }

// SetTeam moves the player to a team.
func (p *Player) SetTeam(teamID string) { p.teamID = teamID }

// SetTarget records the player's current target, or clears it when empty.
func (p *Player) SetTarget(id string) { p.targetID = id }

// SetToughness sets the damage divisor. Non-positive values are ignored.
func (p *Player) SetToughness(v float64) {
	if v > 0 && !math.IsInf(v, 0) {
		p.toughness = v
	}
}

// SetDangerThreshold clamps the movement threshold to [0, 1].
func (p *Player) SetDangerThreshold(v float64) {
	p.dangerThreshold = math.Max(0, math.Min(1, v))
}

// SetDamageMultiplier sets the damage scale. Negative values are ignored.
func (p *Player) SetDamageMultiplier(v float64) {
	if v >= 0 {
		p.damageMultiplier = v
	}
}

// AddPoints adds to the current round's points.
func (p *Player) AddPoints(n int) {
	p.points += n
}

// Heal reduces accumulated damage, never below zero.
func (p *Player) Heal(amount float64) {
	if amount <= 0 || math.IsNaN(amount) {
		return
	}
	p.damage = math.Max(0, p.damage-amount)
}

// HasStatusEffect reports whether an effect of the given type is active.
func (p *Player) HasStatusEffect(kind string) bool {
	return p.effects.Find(kind) != nil
}

// StatusEffect returns the active effect of the given type.
func (p *Player) StatusEffect(kind string) StatusEffect {
	return p.effects.Find(kind)
}

// StatusEffects returns the active effects by descending priority, ties in
// application order.
func (p *Player) StatusEffects() []StatusEffect {
	return p.effects.Ordered()
}

// ApplyStatusEffect attaches an effect. If one of the same type is already
// active it is refreshed instead and the active instance is returned.
func (p *Player) ApplyStatusEffect(effect StatusEffect, gameTime time.Duration) StatusEffect {
	if p == nil || effect == nil {
		return nil
	}
	if existing := p.effects.Find(effect.Type()); existing != nil {
		existing.OnRefresh(p, effect, gameTime)
		p.logEffect(loggingstatus.Refreshed, existing, "")
		return existing
	}
	p.effects.add(effect, gameTime)
	effect.OnApply(p, gameTime)
	p.logEffect(loggingstatus.Applied, effect, "")
	return effect
}

// RemoveStatusEffect detaches an effect. OnRemove runs at most once per
// instance; removing an effect that is not attached does nothing.
func (p *Player) RemoveStatusEffect(effect StatusEffect, gameTime time.Duration) bool {
	return p.removeStatusEffect(effect, gameTime, "removed")
}

// RemoveStatusEffectType detaches the active effect of the given type.
func (p *Player) RemoveStatusEffectType(kind string, gameTime time.Duration) bool {
	return p.removeStatusEffect(p.effects.Find(kind), gameTime, "removed")
}

func (p *Player) removeStatusEffect(effect StatusEffect, gameTime time.Duration, reason string) bool {
	if p == nil || effect == nil {
		return false
	}
	if !p.effects.remove(effect) {
		return false
	}
	effect.OnRemove(p, gameTime)
	p.logEffect(loggingstatus.Removed, effect, reason)
	return true
}

func (p *Player) clearStatusEffects(gameTime time.Duration, reason string) {
	for _, effect := range p.effects.Ordered() {
		p.removeStatusEffect(effect, gameTime, reason)
	}
}

func (p *Player) expireStatusEffects(gameTime time.Duration) {
	for _, effect := range p.effects.Ordered() {
		if effect.ShouldExpire(gameTime) {
			p.removeStatusEffect(effect, gameTime, "expired")
		}
	}
}

// TakeDamage runs raw damage through active effects in priority order,
// divides by toughness and accumulates the result. It returns the applied
// amount. Reaching the kill threshold triggers a death attempt that effects
// may veto.
func (p *Player) TakeDamage(raw float64, gameTime time.Duration) float64 {
	if p == nil || !p.alive || !(raw > 0) || math.IsInf(raw, 0) {
		return 0
	}
	damage := raw
	for _, effect := range p.effects.Ordered() {
		if !effect.Base().Active() {
			continue
		}
		damage = effect.ModifyIncomingDamage(p, damage)
		if !(damage > 0) {
			damage = 0
		}
	}
	applied := damage / p.toughness
	if applied > 0 {
		p.damage += applied
	}
	if p.world != nil {
		loggingcombat.Damage(context.Background(), p.world.Publisher(), p.world.TickCount(), logging.PlayerRef(p.id), loggingcombat.DamagePayload{
			Raw:         raw,
			Applied:     applied,
			Accumulated: p.damage,
			Intensity:   p.intensity,
		}, nil)
	}
	if p.damage >= p.killThreshold || (p.instantDeath && applied > 0) {
		p.attemptDeath(gameTime)
	}
	return applied
}

// attemptDeath asks each effect, in priority order, whether to prevent the
// death. The first veto wins.
func (p *Player) attemptDeath(gameTime time.Duration) bool {
	for _, effect := range p.effects.Ordered() {
		if !effect.Base().Active() {
			continue
		}
		if effect.OnPreventDeath(p, gameTime) {
			if p.world != nil {
				loggingcombat.DeathPrevented(context.Background(), p.world.Publisher(), p.world.TickCount(), logging.PlayerRef(p.id), loggingcombat.DeathPreventedPayload{
					StatusEffect: effect.Type(),
					GameTime:     gameTime.Milliseconds(),
				}, nil)
			}
			return false
		}
	}
	p.Die(gameTime)
	return true
}

// Die eliminates the player. Calling Die on a dead player does nothing.
func (p *Player) Die(gameTime time.Duration) {
	if p == nil || !p.alive {
		return
	}
	p.alive = false
	p.deathCount++
	p.lastDeath = gameTime
	p.clearStatusEffects(gameTime, "death")
	if p.world != nil {
		loggingcombat.Death(context.Background(), p.world.Publisher(), p.world.TickCount(), logging.PlayerRef(p.id), loggingcombat.DeathPayload{
			Role:       p.RoleName(),
			Damage:     p.damage,
			DeathCount: p.deathCount,
			GameTime:   gameTime.Milliseconds(),
		}, nil)
	}
	if p.onDeath != nil {
		p.onDeath(p, gameTime)
	}
}

// revive brings the player back with a clean slate for the current round.
func (p *Player) revive(gameTime time.Duration) {
	p.clearStatusEffects(gameTime, "respawn")
	p.alive = true
	p.damage = 0
}

// resetForRound restores the per-round state. Totals, death counts and
// role-level stat changes carry over.
func (p *Player) resetForRound(gameTime time.Duration) {
	p.clearStatusEffects(gameTime, "round-reset")
	p.alive = true
	p.damage = 0
	p.points = 0
	p.targetID = ""
	p.intensity = 0
}

// foldPoints moves round points into the running total and returns them.
func (p *Player) foldPoints() int {
	delta := p.points
	p.totalPoints += delta
	return delta
}

func (p *Player) logEffect(fn func(context.Context, logging.Publisher, uint64, logging.EntityRef, loggingstatus.Payload, map[string]any), effect StatusEffect, reason string) {
	if p.world == nil {
		return
	}
	fn(context.Background(), p.world.Publisher(), p.world.TickCount(), logging.PlayerRef(p.id), loggingstatus.Payload{
		StatusEffect: effect.Type(),
		Priority:     effect.Priority(),
		DurationMs:   effect.Base().Duration().Milliseconds(),
		Reason:       reason,
	}, nil)
}

// PlayerView is the public, copyable state of a player.
type PlayerView struct {
	ID            string   `json:"id" msgpack:"id"`
	Name          string   `json:"name" msgpack:"name"`
	Role          string   `json:"role,omitempty" msgpack:"role,omitempty"`
	TeamID        string   `json:"teamId,omitempty" msgpack:"teamId,omitempty"`
	Alive         bool     `json:"alive" msgpack:"alive"`
	Damage        float64  `json:"damage" msgpack:"damage"`
	Toughness     float64  `json:"toughness" msgpack:"toughness"`
	Points        int      `json:"points" msgpack:"points"`
	TotalPoints   int      `json:"totalPoints" msgpack:"totalPoints"`
	DeathCount    int      `json:"deathCount" msgpack:"deathCount"`
	TargetID      string   `json:"targetId,omitempty" msgpack:"targetId,omitempty"`
	Intensity     float64  `json:"intensity" msgpack:"intensity"`
	StatusEffects []string `json:"statusEffects,omitempty" msgpack:"statusEffects,omitempty"`
}

// View copies the player's public state.
func (p *Player) View() PlayerView {
	view := PlayerView{
		ID:          p.id,
		Name:        p.name,
		Role:        p.RoleName(),
		TeamID:      p.teamID,
		Alive:       p.alive,
		Damage:      p.damage,
		Toughness:   p.toughness,
		Points:      p.points,
		TotalPoints: p.totalPoints,
		DeathCount:  p.deathCount,
		TargetID:    p.targetID,
		Intensity:   p.intensity,
	}
	for _, effect := range p.effects.Ordered() {
		view.StatusEffects = append(view.StatusEffects, effect.Type())
	}
	return view
}
