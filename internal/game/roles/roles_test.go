package roles_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"shakeout/server/internal/game"
	"shakeout/server/internal/game/effects"
	"shakeout/server/internal/game/roles"
	"shakeout/server/logging"
)

type stubWorld struct {
	players []*game.Player
	now     time.Duration
	rng     *rand.Rand
}

func newWorld() *stubWorld {
	return &stubWorld{rng: game.NewDeterministicRNG("roles-test", "hooks")}
}

func (w *stubWorld) add(ids ...string) []*game.Player {
	for _, id := range ids {
		w.players = append(w.players, game.NewPlayer(game.PlayerSpec{ID: id}, w, game.ModeConfig{Mode: "test"}))
	}
	return w.players
}

func (w *stubWorld) GameTime() time.Duration     { return w.now }
func (w *stubWorld) RoundElapsed() time.Duration { return w.now }
func (w *stubWorld) RoundNumber() int            { return 1 }
func (w *stubWorld) TickCount() uint64           { return 0 }
func (w *stubWorld) Players() []*game.Player     { return w.players }
func (w *stubWorld) RNG() *rand.Rand             { return w.rng }
func (w *stubWorld) Config() game.ModeConfig     { return game.ModeConfig{Mode: "test"}.Normalized() }
func (w *stubWorld) Emit(game.EventType, any)    {}
func (w *stubWorld) Publisher() logging.Publisher {
	return logging.NopPublisher()
}

func (w *stubWorld) Player(id string) *game.Player {
	for _, p := range w.players {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

func (w *stubWorld) AlivePlayers() []*game.Player {
	var out []*game.Player
	for _, p := range w.players {
		if p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

func TestBeastDoublesToughness(t *testing.T) {
	w := newWorld()
	p := w.add("beast")[0]
	roles.NewBeast(w).Init(p, 0)
	if p.Toughness() != roles.BeastToughness {
		t.Fatalf("expected toughness %v, got %v", roles.BeastToughness, p.Toughness())
	}
	if applied := p.TakeDamage(60, 0); applied != 30 {
		t.Fatalf("expected halved damage, got %v", applied)
	}
}

func TestVampireBloodlustCycle(t *testing.T) {
	w := newWorld()
	players := w.add("vamp", "victim")
	vamp, victim := players[0], players[1]
	role := roles.NewVampire(w).(*roles.Vampire)
	role.Init(vamp, 0)

	vamp.TakeDamage(40, 0)

	role.Tick(vamp, roles.VampireCooldown-time.Millisecond, 100*time.Millisecond)
	if vamp.HasStatusEffect(effects.TypeBloodlust) {
		t.Fatalf("bloodlust started before the cooldown elapsed")
	}
	role.Tick(vamp, roles.VampireCooldown, 100*time.Millisecond)
	if !vamp.HasStatusEffect(effects.TypeBloodlust) {
		t.Fatalf("expected bloodlust once the cooldown elapsed")
	}
	if role.NextBloodlust() != 2*roles.VampireCooldown {
		t.Fatalf("expected the next window at 60s, got %s", role.NextBloodlust())
	}

	victim.Die(roles.VampireCooldown)
	role.PlayerDied(vamp, victim, roles.VampireCooldown)
	if vamp.Damage() != 40-roles.VampireFeedHealing || vamp.Points() != roles.VampireKillPoints {
		t.Fatalf("expected feeding to heal and score, got damage=%v points=%d", vamp.Damage(), vamp.Points())
	}
}

func TestVampireDoesNotFeedOutsideBloodlust(t *testing.T) {
	w := newWorld()
	players := w.add("vamp", "victim")
	role := roles.NewVampire(w)
	role.Init(players[0], 0)
	role.PlayerDied(players[0], players[1], time.Second)
	if players[0].Points() != 0 {
		t.Fatalf("expected no points outside bloodlust")
	}
}

func TestAssassinTargetsAnotherPlayerAndScores(t *testing.T) {
	w := newWorld()
	players := w.add("assassin", "b", "c")
	assassin := players[0]
	role := roles.NewAssassin(w)
	role.PreRoundSetup(assassin, players)

	target := w.Player(assassin.TargetID())
	if target == nil || target == assassin {
		t.Fatalf("expected another player as target, got %q", assassin.TargetID())
	}
	for _, p := range players[1:] {
		if p != target {
			role.PlayerDied(assassin, p, 0)
		}
	}
	if assassin.Points() != 0 {
		t.Fatalf("bystander deaths must not score")
	}
	role.PlayerDied(assassin, target, 0)
	if assassin.Points() != roles.AssassinTargetBonus {
		t.Fatalf("expected %d points, got %d", roles.AssassinTargetBonus, assassin.Points())
	}
}

func TestAssassinSkipsTeammates(t *testing.T) {
	w := newWorld()
	players := w.add("assassin", "mate", "enemy")
	players[0].SetTeam("team-1")
	players[1].SetTeam("team-1")
	players[2].SetTeam("team-2")
	roles.NewAssassin(w).PreRoundSetup(players[0], players)
	if players[0].TargetID() != "enemy" {
		t.Fatalf("expected the only enemy as target, got %q", players[0].TargetID())
	}
}

func TestAssassinWithoutCandidatesHasNoTarget(t *testing.T) {
	w := newWorld()
	players := w.add("alone")
	roles.NewAssassin(w).PreRoundSetup(players[0], players)
	if players[0].TargetID() != "" {
		t.Fatalf("expected no target")
	}
}

func TestIroncladStartsShieldedAndRecharges(t *testing.T) {
	w := newWorld()
	p := w.add("iron")[0]
	role := roles.NewIronclad(w)
	role.Init(p, 0)
	role.PreRoundSetup(p, w.players)

	shield, ok := p.StatusEffect(effects.TypeShield).(*effects.Shield)
	if !ok || shield.Charges() != roles.IroncladCharges {
		t.Fatalf("expected a %d-charge shield", roles.IroncladCharges)
	}
	p.TakeDamage(10, 0)
	role.Tick(p, roles.IroncladRecharge, 100*time.Millisecond)
	if shield.Charges() != roles.IroncladCharges {
		t.Fatalf("expected a recharge after %s, got %d charges", roles.IroncladRecharge, shield.Charges())
	}
}

func TestIroncladShieldsPlayerWithoutWorld(t *testing.T) {
	p := game.NewPlayer(game.PlayerSpec{ID: "iron"}, nil, game.ModeConfig{Mode: "test"})
	role := roles.NewIronclad(nil)
	role.Init(p, 0)
	role.PreRoundSetup(p, []*game.Player{p})

	if !p.HasStatusEffect(effects.TypeShield) {
		t.Fatalf("expected a shield without a world attached")
	}
}

func TestBodyguardGetsLastStandAndScoresWhileChargeLives(t *testing.T) {
	w := newWorld()
	players := w.add("guard", "charge")
	guard := players[0]
	role := roles.NewBodyguard(w)
	role.PreRoundSetup(guard, players)

	if guard.TargetID() != "charge" || !guard.HasStatusEffect(effects.TypeLastStand) {
		t.Fatalf("expected a charge and a last stand, got target=%q", guard.TargetID())
	}
	role.Tick(guard, roles.BodyguardInterval, 100*time.Millisecond)
	if guard.Points() != 1 {
		t.Fatalf("expected a point while the charge lives, got %d", guard.Points())
	}
	players[1].Die(roles.BodyguardInterval)
	role.Tick(guard, 2*roles.BodyguardInterval, 100*time.Millisecond)
	if guard.Points() != 1 {
		t.Fatalf("expected no points once the charge died")
	}
}

func TestBerserkerTradesThresholdForDamage(t *testing.T) {
	w := newWorld()
	p := w.add("berserk")[0]
	role := roles.NewBerserker(w)
	before := p.DamageMultiplier()
	role.Init(p, 0)

	if want := game.DefaultDangerThreshold + roles.BerserkerThresholdBonus; math.Abs(p.DangerThreshold()-want) > 1e-9 {
		t.Fatalf("unexpected threshold %v", p.DangerThreshold())
	}
	if p.DamageMultiplier() != before*roles.BerserkerDamageScale {
		t.Fatalf("unexpected multiplier %v", p.DamageMultiplier())
	}
	role.Tick(p, roles.BerserkerInterval, 100*time.Millisecond)
	if p.Points() != 1 {
		t.Fatalf("expected a survival point")
	}
}

func TestMedicRegeneratesSelfAndAlly(t *testing.T) {
	w := newWorld()
	players := w.add("medic", "ally")
	role := roles.NewMedic(w)
	role.Init(players[0], 0)
	role.Tick(players[0], roles.MedicInterval, 100*time.Millisecond)

	for _, p := range players {
		if !p.HasStatusEffect(effects.TypeRegeneration) {
			t.Fatalf("expected %s to regenerate", p.ID())
		}
	}
}

func TestPoolPadsWithVillagers(t *testing.T) {
	pool, err := roles.Pool(roles.ThemeStandard, 9)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(pool) != 9 || pool[7] != roles.KeyVillager || pool[8] != roles.KeyVillager {
		t.Fatalf("unexpected pool %v", pool)
	}
	if _, err := roles.Pool("circus", 3); err == nil {
		t.Fatalf("expected unknown theme to fail")
	}
}

func TestVillagerIsTheDefaultRole(t *testing.T) {
	w := newWorld()
	p := w.add("v")[0]
	role := roles.NewVillager(w)
	info := role.Describe(p)
	if role.Name() != roles.KeyVillager || info.DisplayName != "Villager" {
		t.Fatalf("unexpected villager %+v", info)
	}
}
