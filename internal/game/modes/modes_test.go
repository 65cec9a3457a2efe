package modes_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"shakeout/server/internal/game"
	"shakeout/server/internal/game/catalog"
	"shakeout/server/internal/game/modes"
	"shakeout/server/internal/game/roles"
	"shakeout/server/internal/motion"
	"shakeout/server/internal/sim"
)

type recorder struct {
	mu     sync.Mutex
	events []game.Event
}

func (r *recorder) record(e game.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t game.EventType) []game.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []game.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newEngine(t *testing.T, registry *game.Registry) (*game.Engine, *sim.VirtualScheduler, *recorder) {
	t.Helper()
	if registry == nil {
		registry = catalog.Default()
	}
	scheduler := sim.NewVirtualScheduler(time.Unix(0, 0))
	engine := game.NewEngine(game.DefaultConfig(), game.Deps{Registry: registry, Scheduler: scheduler})
	rec := &recorder{}
	engine.Events().SubscribeAll(rec.record)
	return engine, scheduler, rec
}

func players(ids ...string) []game.PlayerSpec {
	out := make([]game.PlayerSpec, 0, len(ids))
	for _, id := range ids {
		out = append(out, game.PlayerSpec{ID: id})
	}
	return out
}

func kill(t *testing.T, e *game.Engine, id string) {
	t.Helper()
	full := 1.0
	if err := e.HandlePlayerMovement(id, motion.Sample{Intensity: &full}); err != nil {
		t.Fatalf("movement for %s: %v", id, err)
	}
	if view, _ := e.GetPlayerByID(id); view.Alive {
		t.Fatalf("expected %s to die", id)
	}
}

func alive(e *game.Engine, id string) bool {
	view, _ := e.GetPlayerByID(id)
	return view.Alive
}

func instantStart(cfg game.ModeConfig) game.ModeConfig {
	cfg.CountdownSeconds = game.CountdownSecondsPtr(0)
	cfg.DamageMultiplier = 1000
	return cfg
}

func TestDeathCountRanksFewestDeathsFirst(t *testing.T) {
	engine, _, rec := newEngine(t, nil)
	if err := engine.StartGame(players("a", "b", "c", "d"), instantStart(game.ModeConfig{Mode: modes.KeyDeathCount, RoundDurationMs: 60000})); err != nil {
		t.Fatalf("start: %v", err)
	}

	targets := map[string]int{"b": 2, "c": 2, "d": 5}
	for cycle := 1; cycle <= 5; cycle++ {
		for _, id := range []string{"b", "c", "d"} {
			if targets[id] >= cycle {
				kill(t, engine, id)
			}
		}
		engine.FastForward(5100 * time.Millisecond)
		for _, id := range []string{"b", "c", "d"} {
			if !alive(engine, id) {
				t.Fatalf("cycle %d: expected %s to respawn", cycle, id)
			}
		}
	}
	engine.FastForward(60 * time.Second)

	ends := rec.ofType(game.EventGameEnd)
	if len(ends) != 1 {
		t.Fatalf("expected one game:end, got %d", len(ends))
	}
	payload := ends[0].Payload.(game.GameEndPayload)
	if payload.WinnerID != "a" {
		t.Fatalf("expected a to win, got %q", payload.WinnerID)
	}
	ranks := map[string]int{}
	medals := map[string]game.Medal{}
	for _, entry := range payload.Scores {
		ranks[entry.PlayerID] = entry.Rank
		medals[entry.PlayerID] = entry.Medal
	}
	if !reflect.DeepEqual(ranks, map[string]int{"a": 1, "b": 2, "c": 2, "d": 4}) {
		t.Fatalf("unexpected ranks %v", ranks)
	}
	wantMedals := map[string]game.Medal{"a": game.MedalGold, "b": game.MedalSilver, "c": game.MedalSilver, "d": game.MedalNone}
	if !reflect.DeepEqual(medals, wantMedals) {
		t.Fatalf("unexpected medals %v", medals)
	}
	if respawns := rec.ofType(game.EventPlayerRespawn); len(respawns) != 9 {
		t.Fatalf("expected 9 respawns, got %d", len(respawns))
	}
}

func TestDeathCountRefusesRespawnNearRoundEnd(t *testing.T) {
	engine, _, _ := newEngine(t, nil)
	if err := engine.StartGame(players("a", "b", "c"), instantStart(game.ModeConfig{Mode: modes.KeyDeathCount, RoundDurationMs: 8000})); err != nil {
		t.Fatalf("start: %v", err)
	}

	engine.FastForward(time.Second)
	kill(t, engine, "c")
	engine.FastForward(3 * time.Second)
	kill(t, engine, "b")
	engine.FastForward(2500 * time.Millisecond)

	if !alive(engine, "c") {
		t.Fatalf("expected c to respawn within the round")
	}
	if alive(engine, "b") {
		t.Fatalf("expected b's respawn to be refused so close to the end")
	}
}

func TestDeathCountDefaultsToNinetySeconds(t *testing.T) {
	engine, _, _ := newEngine(t, nil)
	if err := engine.StartGame(players("a", "b"), instantStart(game.ModeConfig{Mode: modes.KeyDeathCount})); err != nil {
		t.Fatalf("start: %v", err)
	}
	engine.FastForward(89 * time.Second)
	if engine.State() != game.StateActive {
		t.Fatalf("expected the round to still run at 89s, got %s", engine.State())
	}
	engine.FastForward(time.Second)
	if engine.State() != game.StateFinished {
		t.Fatalf("expected the round to end at 90s, got %s", engine.State())
	}
}

func TestDominationCaptureAndScoring(t *testing.T) {
	engine, _, rec := newEngine(t, nil)
	cfg := instantStart(game.ModeConfig{Mode: modes.KeyDomination, ControlIntervalMs: 1000, TargetScore: 3, BaseCount: 1})
	if err := engine.StartGame(players("a", "b", "c", "d"), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	if view, _ := engine.GetPlayerByID("b"); view.TeamID != "team-2" {
		t.Fatalf("expected round-robin team assignment, got %q", view.TeamID)
	}

	if err := engine.CaptureBase("a", "base-1"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	engine.FastForward(time.Second)
	if scored := rec.ofType(game.EventModeEvent); countNamed(scored, "base-scored") != 1 {
		t.Fatalf("expected team-1 to score once")
	}

	if err := engine.CaptureBase("b", "base-1"); err != nil {
		t.Fatalf("recapture: %v", err)
	}
	engine.FastForward(500 * time.Millisecond)
	if countNamed(rec.ofType(game.EventModeEvent), "base-scored") != 1 {
		t.Fatalf("capture must reset control progress")
	}
	engine.FastForward(2500 * time.Millisecond)

	ends := rec.ofType(game.EventGameEnd)
	if len(ends) != 1 {
		t.Fatalf("expected the target score to end the game")
	}
	payload := ends[0].Payload.(game.GameEndPayload)
	if payload.WinnerID != "team-2" {
		t.Fatalf("expected team-2 to win, got %q", payload.WinnerID)
	}
	for _, entry := range payload.Scores {
		if entry.TeamID == "team-2" && (entry.Score != 3 || entry.Rank != 1) {
			t.Fatalf("unexpected team-2 entry %+v", entry)
		}
	}
}

func TestDominationReportsBaseStateEachTick(t *testing.T) {
	engine, _, rec := newEngine(t, nil)
	cfg := instantStart(game.ModeConfig{Mode: modes.KeyDomination, ControlIntervalMs: 1000, BaseCount: 2})
	if err := engine.StartGame(players("a", "b"), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := engine.CaptureBase("a", "base-1"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	engine.FastForward(500 * time.Millisecond)

	ticks := rec.ofType(game.EventTick)
	if len(ticks) == 0 {
		t.Fatalf("expected ticks")
	}
	state, ok := ticks[len(ticks)-1].Payload.(game.TickPayload).ModeState.(modes.DominationState)
	if !ok {
		t.Fatalf("expected domination state on the tick")
	}
	want := []modes.BaseState{{ID: "base-1", OwnerTeam: "team-1", Progress: 0.5}, {ID: "base-2"}}
	if !reflect.DeepEqual(state.Bases, want) {
		t.Fatalf("unexpected bases %+v", state.Bases)
	}

	engine.FastForward(500 * time.Millisecond)
	snap, ok := engine.Snapshot().ModeState.(modes.DominationState)
	if !ok {
		t.Fatalf("expected domination state on the snapshot")
	}
	if snap.Scores["team-1"] != 1 || snap.Scores["team-2"] != 0 {
		t.Fatalf("unexpected scores %v", snap.Scores)
	}
	if snap.Bases[0].Progress != 0 {
		t.Fatalf("expected progress to restart after scoring, got %v", snap.Bases[0].Progress)
	}
}

func TestDominationCaptureValidation(t *testing.T) {
	engine, _, _ := newEngine(t, nil)
	if err := engine.StartGame(players("a", "b"), instantStart(game.ModeConfig{Mode: modes.KeyDomination})); err != nil {
		t.Fatalf("start: %v", err)
	}
	var verr *game.ValidationError
	if err := engine.CaptureBase("a", "base-9"); !errors.As(err, &verr) {
		t.Fatalf("expected unknown base to be rejected, got %v", err)
	}
	kill(t, engine, "a")
	if err := engine.CaptureBase("a", "base-1"); !errors.As(err, &verr) {
		t.Fatalf("expected dead players to be rejected, got %v", err)
	}
	engine.FastForward(5 * time.Second)
	if !alive(engine, "a") {
		t.Fatalf("expected a to respawn in domination")
	}
}

func TestCaptureUnsupportedOutsideDomination(t *testing.T) {
	engine, _, _ := newEngine(t, nil)
	if err := engine.StartGame(players("a", "b"), instantStart(game.ModeConfig{Mode: modes.KeyClassic})); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := engine.CaptureBase("a", "base-1"); !errors.Is(err, game.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestRoleBasedPlaysConfiguredRounds(t *testing.T) {
	engine, _, rec := newEngine(t, nil)
	if err := engine.StartGame(players("a", "b", "c"), instantStart(game.ModeConfig{Mode: modes.KeyRoleBased, Rounds: 2})); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := engine.NextRound(); !errors.Is(err, game.ErrNotRoundEnded) {
		t.Fatalf("expected ErrNotRoundEnded mid-round, got %v", err)
	}

	kill(t, engine, "b")
	kill(t, engine, "c")
	engine.Tick(100 * time.Millisecond)
	if engine.State() != game.StateRoundEnded {
		t.Fatalf("expected round-ended, got %s", engine.State())
	}
	roundEnds := rec.ofType(game.EventRoundEnd)
	if len(roundEnds) != 1 || roundEnds[0].Payload.(game.RoundEventPayload).WinnerID != "a" {
		t.Fatalf("expected a to win round 1, got %+v", roundEnds)
	}
	if view, _ := engine.GetPlayerByID("a"); view.TotalPoints < modes.LastStandingBonus {
		t.Fatalf("expected the survivor bonus to be folded into totals, got %d", view.TotalPoints)
	}

	if err := engine.NextRound(); err != nil {
		t.Fatalf("next round: %v", err)
	}
	if !alive(engine, "b") || !alive(engine, "c") {
		t.Fatalf("expected everyone reset for round 2")
	}
	kill(t, engine, "a")
	kill(t, engine, "b")
	engine.Tick(100 * time.Millisecond)

	if engine.State() != game.StateFinished {
		t.Fatalf("expected finished after 2 rounds, got %s", engine.State())
	}
	ends := rec.ofType(game.EventGameEnd)
	if len(ends) != 1 || ends[0].Payload.(game.GameEndPayload).TotalRounds != 2 {
		t.Fatalf("expected a 2-round game end, got %+v", ends)
	}
	if assigned := rec.ofType(game.EventRoleAssigned); len(assigned) != 2 {
		t.Fatalf("expected role:assigned once per round, got %d", len(assigned))
	}
	snap := engine.Snapshot()
	if len(snap.Rounds) != 2 || !snap.Rounds[0].Ended() || snap.Rounds[1].WinnerID != "c" {
		t.Fatalf("unexpected round records %+v", snap.Rounds)
	}
}

func TestRoleBasedTargetScoreEndsEarly(t *testing.T) {
	engine, _, rec := newEngine(t, nil)
	if err := engine.StartGame(players("a", "b"), instantStart(game.ModeConfig{Mode: modes.KeyRoleBased, TargetScore: 5})); err != nil {
		t.Fatalf("start: %v", err)
	}
	kill(t, engine, "b")
	engine.Tick(100 * time.Millisecond)

	if engine.State() != game.StateFinished {
		t.Fatalf("expected the survivor bonus to reach the target, got %s", engine.State())
	}
	if ends := rec.ofType(game.EventGameEnd); ends[0].Payload.(game.GameEndPayload).WinnerID != "a" {
		t.Fatalf("expected a to win the game")
	}
}

func TestFinishedGameCanRestart(t *testing.T) {
	engine, _, rec := newEngine(t, nil)
	cfg := instantStart(game.ModeConfig{Mode: modes.KeyClassic})
	if err := engine.StartGame(players("a", "b"), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	kill(t, engine, "a")
	engine.Tick(100 * time.Millisecond)
	if engine.State() != game.StateFinished {
		t.Fatalf("expected finished, got %s", engine.State())
	}
	if err := engine.StartGame(players("a", "b"), cfg); err != nil {
		t.Fatalf("restart: %v", err)
	}
	var path []game.State
	for _, e := range rec.ofType(game.EventStateChanged) {
		path = append(path, e.Payload.(game.StatePayload).To)
	}
	want := []game.State{game.StateCountdown, game.StateActive, game.StateFinished, game.StateWaiting, game.StateCountdown, game.StateActive}
	if !reflect.DeepEqual(path, want) {
		t.Fatalf("unexpected state path %v", path)
	}
}

type duelMode struct {
	game.BaseMode
}

func (duelMode) Name() string          { return "duel" }
func (duelMode) UseRoles() bool        { return true }
func (duelMode) RolePool(int) []string { return []string{roles.KeyVampire, roles.KeyVillager} }

func (duelMode) CheckWinCondition(*game.Engine) game.WinResult { return game.WinResult{} }

func (duelMode) CalculateFinalScores(e *game.Engine) []game.ScoreEntry {
	return game.PointsScores(e.Players(), true)
}

func TestFastForwardMatchesRealTimeTicking(t *testing.T) {
	registry := catalog.Default()
	registry.RegisterMode("duel", func(cfg game.ModeConfig) (game.Mode, error) {
		return duelMode{BaseMode: game.BaseMode{Cfg: cfg}}, nil
	})
	cfg := game.ModeConfig{Mode: "duel", CountdownSeconds: game.CountdownSecondsPtr(1)}

	fast, _, _ := newEngine(t, registry)
	slow, slowScheduler, _ := newEngine(t, registry)
	for _, e := range []*game.Engine{fast, slow} {
		if err := e.StartGame(players("a", "b"), cfg); err != nil {
			t.Fatalf("start: %v", err)
		}
	}

	fast.FastForward(31500 * time.Millisecond)
	for i := 0; i < 315; i++ {
		slowScheduler.Advance(100 * time.Millisecond)
		slow.Tick(100 * time.Millisecond)
	}

	fastSnap, slowSnap := fast.Snapshot(), slow.Snapshot()
	if fastSnap.GameTimeMs != slowSnap.GameTimeMs || fastSnap.Tick != slowSnap.Tick {
		t.Fatalf("time diverged: fast=%d/%d slow=%d/%d", fastSnap.GameTimeMs, fastSnap.Tick, slowSnap.GameTimeMs, slowSnap.Tick)
	}
	if !reflect.DeepEqual(fastSnap.Players, slowSnap.Players) {
		t.Fatalf("player state diverged:\nfast=%+v\nslow=%+v", fastSnap.Players, slowSnap.Players)
	}
	if fastSnap.GameTimeMs < 30000 {
		t.Fatalf("expected at least 30s of active game time after the countdown, got %d", fastSnap.GameTimeMs)
	}
	var vampire *game.PlayerView
	for i := range fastSnap.Players {
		if fastSnap.Players[i].Role == roles.KeyVampire {
			vampire = &fastSnap.Players[i]
		}
	}
	if vampire == nil {
		t.Fatalf("expected a vampire in the duel")
	}
	if !reflect.DeepEqual(vampire.StatusEffects, []string{"bloodlust"}) {
		t.Fatalf("expected bloodlust after the 30s cooldown, got %v", vampire.StatusEffects)
	}
}

func countNamed(events []game.Event, name string) int {
	n := 0
	for _, e := range events {
		if e.Payload.(game.ModeEventPayload).Name == name {
			n++
		}
	}
	return n
}

func TestClassicSpeedShiftTogglesAroundBaseThreshold(t *testing.T) {
	engine, _, rec := newEngine(t, nil)
	cfg := game.ModeConfig{
		Mode:                 modes.KeyClassic,
		CountdownSeconds:     game.CountdownSecondsPtr(0),
		DangerThreshold:      0.95,
		SpeedShift:           true,
		SpeedShiftIntervalMs: 1000,
	}
	if err := engine.StartGame(players("a", "b"), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}

	seen := 0
	for step := 0; step < 200 && seen < 5; step++ {
		engine.FastForward(100 * time.Millisecond)
		shifts := rec.ofType(game.EventModeEvent)
		if countNamed(shifts, "speed-shift") == seen {
			continue
		}
		seen = countNamed(shifts, "speed-shift")
		want := 0.95
		if seen%2 == 1 {
			want = 1
		}
		for _, id := range []string{"a", "b"} {
			if got := engine.Player(id).DangerThreshold(); got != want {
				t.Fatalf("shift %d: expected %s threshold %v, got %v", seen, id, want, got)
			}
		}
	}
	if seen < 4 {
		t.Fatalf("expected at least 4 speed shifts, got %d", seen)
	}
}

func TestClassicAllEliminatedIsADraw(t *testing.T) {
	engine, _, rec := newEngine(t, nil)
	if err := engine.StartGame(players("a", "b"), instantStart(game.ModeConfig{Mode: modes.KeyClassic})); err != nil {
		t.Fatalf("start: %v", err)
	}
	kill(t, engine, "a")
	kill(t, engine, "b")
	engine.Tick(100 * time.Millisecond)

	if engine.State() != game.StateFinished {
		t.Fatalf("expected finished, got %s", engine.State())
	}
	ends := rec.ofType(game.EventGameEnd)
	if len(ends) != 1 {
		t.Fatalf("expected one game:end, got %d", len(ends))
	}
	payload := ends[0].Payload.(game.GameEndPayload)
	if payload.WinnerID != "" || payload.Reason != "draw" {
		t.Fatalf("expected a winnerless draw, got %+v", payload)
	}
	for _, entry := range payload.Scores {
		if entry.Status != modes.StatusEliminated {
			t.Fatalf("expected %s to be eliminated, got %q", entry.PlayerID, entry.Status)
		}
	}
}

func TestRoleBasedAllEliminatedFallsBackToRoundLeader(t *testing.T) {
	cases := []struct {
		name   string
		points map[string]int
		want   string
	}{
		{"tied", nil, ""},
		{"leader", map[string]int{"b": 3}, "b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, _, rec := newEngine(t, nil)
			if err := engine.StartGame(players("a", "b"), instantStart(game.ModeConfig{Mode: modes.KeyRoleBased, Rounds: 3})); err != nil {
				t.Fatalf("start: %v", err)
			}
			for id, n := range tc.points {
				engine.Player(id).AddPoints(n)
			}
			kill(t, engine, "a")
			kill(t, engine, "b")
			engine.Tick(100 * time.Millisecond)

			if engine.State() != game.StateRoundEnded {
				t.Fatalf("expected round-ended, got %s", engine.State())
			}
			roundEnds := rec.ofType(game.EventRoundEnd)
			if len(roundEnds) != 1 {
				t.Fatalf("expected one round:end, got %d", len(roundEnds))
			}
			if got := roundEnds[0].Payload.(game.RoundEventPayload).WinnerID; got != tc.want {
				t.Fatalf("expected round winner %q, got %q", tc.want, got)
			}
			if ends := rec.ofType(game.EventGameEnd); len(ends) != 0 {
				t.Fatalf("a wiped-out round must not end the game")
			}
		})
	}
}
