// Package roles implements the built-in player roles and the themed role
// pools modes draw from.
package roles

import (
	"time"

	"shakeout/server/internal/game"
	"shakeout/server/internal/game/effects"
)

const (
	KeyVillager  = "villager"
	KeyBeast     = "beast"
	KeyVampire   = "vampire"
	KeyAssassin  = "assassin"
	KeyMedic     = "medic"
	KeyIronclad  = "ironclad"
	KeyBodyguard = "bodyguard"
	KeyBerserker = "berserker"
)

const (
	BeastToughness = 2.0

	VampireCooldown     = 30 * time.Second
	VampireWindow       = 5 * time.Second
	VampireFeedHealing  = 25.0
	VampireKillPoints   = 1
	AssassinTargetBonus = 3

	MedicInterval     = 10 * time.Second
	MedicRegenWindow  = 3 * time.Second
	MedicRegenPerSec  = 10.0
	IroncladCharges   = 3
	IroncladRecharge  = 20 * time.Second
	BodyguardInterval = 10 * time.Second

	BerserkerThresholdBonus = 0.1
	BerserkerDamageScale    = 1.5
	BerserkerInterval       = 10 * time.Second
)

// Villager has no abilities.
func NewVillager(game.World) game.Role {
	return game.BaseRole{Key: KeyVillager, DisplayName: "Villager", Description: "Keep still and outlast everyone."}
}

// Beast shrugs off damage with doubled toughness.
type Beast struct {
	game.BaseRole
}

func NewBeast(game.World) game.Role {
	return &Beast{BaseRole: game.BaseRole{Key: KeyBeast, DisplayName: "Beast", Description: "Takes half damage from every jolt."}}
}

func (r *Beast) Init(p *game.Player, _ time.Duration) {
	p.SetToughness(p.Toughness() * BeastToughness)
}

// Vampire periodically enters bloodlust, becoming immune to movement damage
// and healing when someone else dies during the window.
type Vampire struct {
	game.BaseRole
	nextBloodlust time.Duration
}

func NewVampire(game.World) game.Role {
	return &Vampire{BaseRole: game.BaseRole{Key: KeyVampire, DisplayName: "Vampire", Description: "Every 30 seconds, bloodlust makes you untouchable for a moment."}}
}

// NextBloodlust returns the game time the next window opens.
func (r *Vampire) NextBloodlust() time.Duration { return r.nextBloodlust }

func (r *Vampire) Init(_ *game.Player, gameTime time.Duration) {
	r.nextBloodlust = gameTime + VampireCooldown
}

func (r *Vampire) Tick(p *game.Player, gameTime, _ time.Duration) {
	if gameTime < r.nextBloodlust {
		return
	}
	p.ApplyStatusEffect(effects.NewBloodlust(VampireWindow), gameTime)
	r.nextBloodlust = gameTime + VampireCooldown
}

func (r *Vampire) PlayerDied(p *game.Player, _ *game.Player, _ time.Duration) {
	if !p.Alive() || !p.HasStatusEffect(effects.TypeBloodlust) {
		return
	}
	p.Heal(VampireFeedHealing)
	p.AddPoints(VampireKillPoints)
}

// Assassin is handed a target each round and scores when it falls.
type Assassin struct {
	game.BaseRole
	world game.World
}

func NewAssassin(w game.World) game.Role {
	return &Assassin{
		BaseRole: game.BaseRole{Key: KeyAssassin, DisplayName: "Assassin", Description: "Outlive your target to earn a bonus."},
		world:    w,
	}
}

func (r *Assassin) PreRoundSetup(p *game.Player, players []*game.Player) {
	p.SetTarget("")
	target := game.PickPlayer(r.world.RNG(), others(p, players))
	if target != nil {
		p.SetTarget(target.ID())
	}
}

func (r *Assassin) PlayerDied(p *game.Player, victim *game.Player, _ time.Duration) {
	if p.Alive() && p.TargetID() != "" && victim.ID() == p.TargetID() {
		p.AddPoints(AssassinTargetBonus)
	}
}

// Medic periodically regenerates itself and one random living ally.
type Medic struct {
	game.BaseRole
	world    game.World
	nextHeal time.Duration
}

func NewMedic(w game.World) game.Role {
	return &Medic{
		BaseRole: game.BaseRole{Key: KeyMedic, DisplayName: "Medic", Description: "Patches up yourself and an ally every few seconds."},
		world:    w,
	}
}

func (r *Medic) Init(_ *game.Player, gameTime time.Duration) {
	r.nextHeal = gameTime + MedicInterval
}

func (r *Medic) Tick(p *game.Player, gameTime, _ time.Duration) {
	if gameTime < r.nextHeal {
		return
	}
	r.nextHeal = gameTime + MedicInterval
	p.ApplyStatusEffect(effects.NewRegeneration(MedicRegenWindow, MedicRegenPerSec), gameTime)
	if ally := game.PickPlayer(r.world.RNG(), aliveOthers(p, r.world.AlivePlayers())); ally != nil {
		ally.ApplyStatusEffect(effects.NewRegeneration(MedicRegenWindow, MedicRegenPerSec), gameTime)
	}
}

// Ironclad starts every round behind a shield that slowly recharges.
type Ironclad struct {
	game.BaseRole
	nextCharge time.Duration
}

func NewIronclad(game.World) game.Role {
	return &Ironclad{BaseRole: game.BaseRole{Key: KeyIronclad, DisplayName: "Ironclad", Description: "A shield absorbs your first few jolts."}}
}

func (r *Ironclad) PreRoundSetup(p *game.Player, _ []*game.Player) {
	var gameTime time.Duration
	if w := p.World(); w != nil {
		gameTime = w.GameTime()
	}
	p.ApplyStatusEffect(effects.NewShield(IroncladCharges), gameTime)
	r.nextCharge = gameTime + IroncladRecharge
}

func (r *Ironclad) Tick(p *game.Player, gameTime, _ time.Duration) {
	if gameTime < r.nextCharge {
		return
	}
	r.nextCharge = gameTime + IroncladRecharge
	p.ApplyStatusEffect(effects.NewShield(1), gameTime)
}

// Bodyguard protects another player, earning points while both survive, and
// carries one last stand per round.
type Bodyguard struct {
	game.BaseRole
	world     game.World
	nextBonus time.Duration
}

func NewBodyguard(w game.World) game.Role {
	return &Bodyguard{
		BaseRole: game.BaseRole{Key: KeyBodyguard, DisplayName: "Bodyguard", Description: "Keep your charge alive to earn points."},
		world:    w,
	}
}

func (r *Bodyguard) PreRoundSetup(p *game.Player, players []*game.Player) {
	p.SetTarget("")
	if charge := game.PickPlayer(r.world.RNG(), others(p, players)); charge != nil {
		p.SetTarget(charge.ID())
	}
	gameTime := r.world.GameTime()
	p.ApplyStatusEffect(effects.NewLastStand(), gameTime)
	r.nextBonus = gameTime + BodyguardInterval
}

func (r *Bodyguard) Tick(p *game.Player, gameTime, _ time.Duration) {
	if gameTime < r.nextBonus {
		return
	}
	r.nextBonus = gameTime + BodyguardInterval
	if p.TargetID() == "" {
		return
	}
	if charge := r.world.Player(p.TargetID()); charge != nil && charge.Alive() {
		p.AddPoints(1)
	}
}

// Berserker tolerates more movement but takes heavier damage, and scores for
// every stretch survived.
type Berserker struct {
	game.BaseRole
	nextBonus time.Duration
}

func NewBerserker(game.World) game.Role {
	return &Berserker{BaseRole: game.BaseRole{Key: KeyBerserker, DisplayName: "Berserker", Description: "Move more freely, hurt more when you slip."}}
}

func (r *Berserker) Init(p *game.Player, gameTime time.Duration) {
	p.SetDangerThreshold(p.DangerThreshold() + BerserkerThresholdBonus)
	p.SetDamageMultiplier(p.DamageMultiplier() * BerserkerDamageScale)
	r.nextBonus = gameTime + BerserkerInterval
}

func (r *Berserker) Tick(p *game.Player, gameTime, _ time.Duration) {
	if gameTime < r.nextBonus {
		return
	}
	r.nextBonus = gameTime + BerserkerInterval
	p.AddPoints(1)
}

func others(p *game.Player, players []*game.Player) []*game.Player {
	out := make([]*game.Player, 0, len(players))
	for _, candidate := range players {
		if candidate == p {
			continue
		}
		if p.TeamID() != "" && candidate.TeamID() == p.TeamID() {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

func aliveOthers(p *game.Player, players []*game.Player) []*game.Player {
	out := make([]*game.Player, 0, len(players))
	for _, candidate := range players {
		if candidate != p && candidate.Alive() {
			out = append(out, candidate)
		}
	}
	return out
}

// Register adds every built-in role to the registry.
func Register(r *game.Registry) {
	r.RegisterRole(KeyVillager, NewVillager)
	r.RegisterRole(KeyBeast, NewBeast)
	r.RegisterRole(KeyVampire, NewVampire)
	r.RegisterRole(KeyAssassin, NewAssassin)
	r.RegisterRole(KeyMedic, NewMedic)
	r.RegisterRole(KeyIronclad, NewIronclad)
	r.RegisterRole(KeyBodyguard, NewBodyguard)
	r.RegisterRole(KeyBerserker, NewBerserker)
}
