package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"shakeout/server/internal/motion"
	"shakeout/server/internal/sim"
	"shakeout/server/internal/telemetry"
	"shakeout/server/logging"
	logginglifecycle "shakeout/server/logging/lifecycle"
	loggingsimulation "shakeout/server/logging/simulation"
)

const (
	// DefaultTickInterval is the nominal simulation step.
	DefaultTickInterval = 100 * time.Millisecond
	// DefaultGoDelay separates the go announcement from round activation.
	DefaultGoDelay = 500 * time.Millisecond
	// DefaultRoleKey is assigned when a mode has no roles or runs out of them.
	DefaultRoleKey = "villager"

	metricTicks            = "game_ticks_total"
	metricDeaths           = "game_deaths_total"
	metricRounds           = "game_rounds_total"
	metricHookPanics       = "game_hook_panics_total"
	metricMovementRejected = "game_movement_rejected_total"
)

// Config tunes the engine itself. Game rules live in ModeConfig.
type Config struct {
	TickInterval time.Duration
	GoDelay      time.Duration
	Motion       motion.Config
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: DefaultTickInterval,
		GoDelay:      DefaultGoDelay,
		Motion:       motion.DefaultConfig(),
	}
}

// Deps carries the engine's collaborators.
type Deps struct {
	Registry  *Registry
	Scheduler sim.Scheduler
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
}

// Snapshot is a copy of the engine's observable state.
type Snapshot struct {
	GameID               string       `json:"gameId,omitempty" msgpack:"gameId,omitempty"`
	Mode                 string       `json:"mode,omitempty" msgpack:"mode,omitempty"`
	State                State        `json:"state" msgpack:"state"`
	Round                int          `json:"round" msgpack:"round"`
	Tick                 uint64       `json:"tick" msgpack:"tick"`
	GameTimeMs           int64        `json:"gameTimeMs" msgpack:"gameTimeMs"`
	RoundTimeRemainingMs *int64       `json:"roundTimeRemainingMs" msgpack:"roundTimeRemainingMs"`
	Players              []PlayerView `json:"players" msgpack:"players"`
	Rounds               []Round      `json:"rounds,omitempty" msgpack:"rounds,omitempty"`
	ModeState            any          `json:"modeState,omitempty" msgpack:"modeState,omitempty"`
}

// BaseCapturer is implemented by modes with capturable bases.
type BaseCapturer interface {
	CaptureBase(e *Engine, p *Player, baseID string) error
}

// ModeStateReporter is implemented by modes that keep state of their own,
// such as capture points. It is attached to every tick and snapshot.
type ModeStateReporter interface {
	ModeState() any
}

// Engine owns one game at a time. Every public method is serialized by an
// internal lock; events raised during a call are delivered after the lock is
// released, in Seq order across every caller.
type Engine struct {
	mu sync.Mutex

	cfg           Config
	registry      *Registry
	scheduler     sim.Scheduler
	basePublisher logging.Publisher
	publisher     logging.Publisher
	logger        telemetry.Logger
	metrics       telemetry.Metrics
	bus           *Bus
	outbox        []Event
	pending       []Event
	dispatching   bool
	seq           uint64

	state      State
	gameID     string
	mode       Mode
	modeConfig ModeConfig
	players    []*Player
	byID       map[string]*Player
	rounds     []*Round
	gameTime   time.Duration
	roundStart time.Duration
	tick       uint64
	rng        *rand.Rand

	normalizer *motion.Normalizer
	setup      *RoundSetupManager
	respawns   *RespawnManager
}

// NewEngine builds an idle engine.
func NewEngine(cfg Config, deps Deps) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.GoDelay <= 0 {
		cfg.GoDelay = DefaultGoDelay
	}
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = sim.WallScheduler{}
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.Discard()
	}
	e := &Engine{
		cfg:           cfg,
		registry:      deps.Registry,
		scheduler:     deps.Scheduler,
		basePublisher: deps.Publisher,
		publisher:     deps.Publisher,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		bus:           NewBus(),
		state:         StateWaiting,
		byID:          make(map[string]*Player),
		rng:           NewDeterministicRNG(DefaultSeed, "hooks"),
		normalizer:    motion.NewNormalizer(cfg.Motion),
		respawns:      NewRespawnManager(DefaultRespawnDelayMs * time.Millisecond),
	}
	e.setup = newRoundSetupManager(e, e.scheduler, cfg.GoDelay)
	return e
}

// Events returns the engine's event bus.
func (e *Engine) Events() *Bus {
	return e.bus
}

// Subscribe registers a handler for one event type.
func (e *Engine) Subscribe(eventType EventType, handler Handler) func() {
	return e.bus.Subscribe(eventType, handler)
}

// TickInterval returns the nominal step used by FastForward.
func (e *Engine) TickInterval() time.Duration {
	return e.cfg.TickInterval
}

// locked runs fn under the engine lock and then delivers the events it
// queued. Only one goroutine delivers at a time; batches queued by other
// callers meanwhile are delivered by that goroutine after its own, so
// subscribers always observe events in Seq order. A handler that calls back
// into the engine has its events appended and delivered once it returns.
func (e *Engine) locked(fn func()) {
	e.mu.Lock()
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.outbox = nil
				e.mu.Unlock()
				panic(r)
			}
		}()
		fn()
	}()
	e.pending = append(e.pending, e.outbox...)
	e.outbox = nil
	if e.dispatching {
		e.mu.Unlock()
		return
	}
	e.dispatching = true
	for len(e.pending) > 0 {
		batch := e.pending
		e.pending = nil
		e.mu.Unlock()
		e.deliver(batch)
		e.mu.Lock()
	}
	e.dispatching = false
	e.mu.Unlock()
}

// deliver hands a batch to the bus. A panicking subscriber releases the
// delivery role before the panic propagates.
func (e *Engine) deliver(batch []Event) {
	defer func() {
		if r := recover(); r != nil {
			e.mu.Lock()
			e.dispatching = false
			e.mu.Unlock()
			panic(r)
		}
	}()
	e.bus.Dispatch(batch)
}

// StartGame validates the roster and configuration, builds players and
// roles, and begins the first round's countdown.
func (e *Engine) StartGame(specs []PlayerSpec, cfg ModeConfig) error {
	var err error
	e.locked(func() {
		err = e.startGameLocked(specs, cfg)
	})
	return err
}

func (e *Engine) startGameLocked(specs []PlayerSpec, cfg ModeConfig) error {
	if e.state.InProgress() {
		return ErrGameActive
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.Normalized()
	mode, err := e.registry.NewMode(cfg)
	if err != nil {
		return err
	}
	if err := validateRoster(specs, mode); err != nil {
		return err
	}
	roles, err := e.buildRoles(mode, mode.Rules(), len(specs))
	if err != nil {
		return err
	}

	if e.state == StateFinished {
		e.transition(StateWaiting)
	}
	e.clearGameLocked()

	e.gameID = uuid.NewString()
	e.mode = mode
	e.modeConfig = mode.Rules()
	e.rng = NewDeterministicRNG(e.modeConfig.Seed, "hooks")
	e.publisher = logging.WithFields(e.basePublisher, map[string]any{logging.FieldGameID: e.gameID, "mode": mode.Name()})
	e.respawns = NewRespawnManager(e.modeConfig.RespawnDelay())
	for i, spec := range specs {
		p := NewPlayer(spec, e, e.modeConfig)
		p.role = roles[i]
		p.onDeath = e.handleDeath
		e.players = append(e.players, p)
		e.byID[p.id] = p
	}

	if err := mode.Setup(e); err != nil {
		e.clearGameLocked()
		return err
	}
	for _, p := range e.players {
		e.guard("role.init", p, func() {
			p.role.Init(p, e.gameTime)
		})
	}

	logginglifecycle.GameStarted(context.Background(), e.publisher, e.tick, logging.GameRef(e.gameID), logginglifecycle.GameStartedPayload{
		Mode:    mode.Name(),
		Players: len(e.players),
		Roles:   mode.UseRoles(),
	}, nil)
	e.beginRoundLocked()
	return nil
}

func validateRoster(specs []PlayerSpec, mode Mode) error {
	if len(specs) < mode.MinPlayers() {
		return validationErrorf("players", "%s requires at least %d players", mode.Name(), mode.MinPlayers())
	}
	if limit := mode.MaxPlayers(); limit > 0 && len(specs) > limit {
		return validationErrorf("players", "%s allows at most %d players", mode.Name(), limit)
	}
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if spec.ID == "" {
			return validationErrorf("players", "player id must not be empty")
		}
		if _, dup := seen[spec.ID]; dup {
			return validationErrorf("players", "duplicate player id %q", spec.ID)
		}
		seen[spec.ID] = struct{}{}
	}
	return nil
}

func (e *Engine) buildRoles(mode Mode, cfg ModeConfig, count int) ([]Role, error) {
	names := make([]string, count)
	var pool []string
	if mode.UseRoles() {
		pool = append(pool, mode.RolePool(count)...)
		rng := NewDeterministicRNG(cfg.Seed, "roles")
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	for i := range names {
		if i < len(pool) {
			names[i] = pool[i]
		} else {
			names[i] = DefaultRoleKey
		}
	}
	roles := make([]Role, count)
	for i, name := range names {
		if name == DefaultRoleKey && !e.registry.HasRole(name) {
			roles[i] = BaseRole{Key: DefaultRoleKey}
			continue
		}
		role, err := e.registry.NewRole(name, e)
		if err != nil {
			return nil, err
		}
		roles[i] = role
	}
	return roles, nil
}

func (e *Engine) clearGameLocked() {
	e.setup.Cancel()
	e.respawns.Clear()
	e.normalizer.ResetAll()
	e.players = nil
	e.byID = make(map[string]*Player)
	e.rounds = nil
	e.gameTime = 0
	e.roundStart = 0
	e.tick = 0
	e.mode = nil
	e.gameID = ""
	e.publisher = e.basePublisher
}

func (e *Engine) beginRoundLocked() {
	e.respawns.Clear()
	number := len(e.rounds) + 1
	e.rounds = append(e.rounds, &Round{Number: number, StartTime: e.gameTime, Points: make(map[string]int)})
	e.transition(StateCountdown)
	e.setup.Start(number, e.players, e.modeConfig.Countdown(), e.gameTime, e.activateRoundLocked)
}

func (e *Engine) activateRoundLocked() {
	if e.state != StateCountdown {
		return
	}
	e.transition(StateActive)
	round := e.currentRound()
	round.StartTime = e.gameTime
	e.roundStart = e.gameTime
	e.guard("mode.round_started", nil, func() {
		e.mode.RoundStarted(e)
	})
	e.Emit(EventRoundStart, RoundEventPayload{Round: round.Number, Scores: PointsScores(e.players, true)})
	logginglifecycle.RoundStarted(context.Background(), e.publisher, e.tick, logging.GameRef(e.gameID), logginglifecycle.RoundPayload{
		Round:    round.Number,
		GameTime: e.gameTime.Milliseconds(),
	}, nil)
}

// NextRound starts the next round's countdown after a round has ended.
func (e *Engine) NextRound() error {
	var err error
	e.locked(func() {
		if e.state != StateRoundEnded {
			err = ErrNotRoundEnded
			return
		}
		e.beginRoundLocked()
	})
	return err
}

// StopGame tears down the current game and returns to waiting. Pending
// countdown and respawn timers are cancelled. Stopping an idle engine does
// nothing.
func (e *Engine) StopGame() {
	e.locked(func() {
		if e.state == StateWaiting {
			return
		}
		prev := e.state
		e.setup.Cancel()
		e.respawns.Clear()
		if prev.InProgress() {
			var scores []ScoreEntry
			e.guard("mode.final_scores", nil, func() {
				scores = e.mode.CalculateFinalScores(e)
			})
			e.Emit(EventGameEnd, GameEndPayload{Scores: scores, TotalRounds: len(e.rounds), Reason: "stopped"})
		}
		logginglifecycle.GameStopped(context.Background(), e.publisher, e.tick, logging.GameRef(e.gameID), logginglifecycle.GameStoppedPayload{
			State:  string(prev),
			Reason: "stopped",
		}, nil)
		e.setState(StateWaiting)
		e.clearGameLocked()
	})
}

// Tick advances an active game by delta. Outside the active state it does
// nothing, so game time only moves while a round is running.
func (e *Engine) Tick(delta time.Duration) {
	e.locked(func() {
		e.tickLocked(delta)
	})
}

func (e *Engine) tickLocked(delta time.Duration) {
	if e.state != StateActive || delta <= 0 {
		return
	}
	e.tick++
	e.gameTime += delta
	if e.metrics != nil {
		e.metrics.Add(metricTicks, 1)
	}

	for _, p := range e.players {
		if !p.Alive() {
			continue
		}
		e.guard("role.tick", p, func() {
			p.role.Tick(p, e.gameTime, delta)
		})
		for _, effect := range p.effects.Ordered() {
			if !p.Alive() || !effect.Base().Active() {
				continue
			}
			e.guard("effect.tick", p, func() {
				effect.OnTick(p, e.gameTime, delta)
			})
		}
		p.expireStatusEffects(e.gameTime)
	}

	for _, p := range e.respawns.CheckRespawns(e.RoundElapsed(), e.Player) {
		e.Emit(EventPlayerRespawn, RespawnEventPayload{PlayerID: p.ID(), GameTimeMs: e.gameTime.Milliseconds()})
	}

	e.guard("mode.tick", nil, func() {
		e.mode.Tick(e, e.gameTime, delta)
	})
	e.Emit(EventTick, TickPayload{
		GameTimeMs:           e.gameTime.Milliseconds(),
		Round:                e.RoundNumber(),
		RoundTimeRemainingMs: e.roundRemainingMs(),
		Players:              e.views(),
		Motion:               e.motionStats(),
		ModeState:            e.modeState(),
	})

	var result WinResult
	e.guard("mode.check_win", nil, func() {
		result = e.mode.CheckWinCondition(e)
	})
	if result.RoundEnded || result.GameEnded {
		e.endRoundLocked(result)
	}
}

func (e *Engine) endRoundLocked(result WinResult) {
	result.RoundEnded = true
	e.guard("mode.round_ended", nil, func() {
		result = e.mode.RoundEnded(e, result)
	})
	round := e.currentRound()
	end := e.gameTime
	round.EndTime = &end
	round.WinnerID = result.WinnerID
	for _, p := range e.players {
		round.Points[p.id] = p.foldPoints()
	}
	if !e.mode.MultiRound() || (e.mode.RoundCount() > 0 && round.Number >= e.mode.RoundCount()) {
		result.GameEnded = true
	}
	e.respawns.Clear()

	var scores []ScoreEntry
	e.guard("mode.final_scores", nil, func() {
		scores = e.mode.CalculateFinalScores(e)
	})
	if e.metrics != nil {
		e.metrics.Add(metricRounds, 1)
	}
	e.Emit(EventRoundEnd, RoundEventPayload{Round: round.Number, WinnerID: result.WinnerID, Scores: scores})
	logginglifecycle.RoundEnded(context.Background(), e.publisher, e.tick, logging.GameRef(e.gameID), logginglifecycle.RoundPayload{
		Round:    round.Number,
		WinnerID: result.WinnerID,
		GameTime: e.gameTime.Milliseconds(),
	}, nil)

	if !result.GameEnded {
		e.transition(StateRoundEnded)
		return
	}
	winner := result.WinnerID
	if e.mode.MultiRound() {
		winner = result.GameWinnerID
	}
	e.setup.Cancel()
	e.transition(StateFinished)
	e.Emit(EventGameEnd, GameEndPayload{WinnerID: winner, Scores: scores, TotalRounds: round.Number, Reason: result.Reason})
	logginglifecycle.GameFinished(context.Background(), e.publisher, e.tick, logging.GameRef(e.gameID), logginglifecycle.GameFinishedPayload{
		WinnerID:    winner,
		TotalRounds: round.Number,
	}, nil)
}

// FastForward advances virtual time by d in nominal tick steps. With a
// virtual scheduler the pending timers fire between ticks exactly as they
// would in real time.
func (e *Engine) FastForward(d time.Duration) {
	advancer, _ := e.scheduler.(interface{ Advance(time.Duration) int })
	step := e.cfg.TickInterval
	for remaining := d; remaining > 0; remaining -= step {
		if remaining < step {
			step = remaining
		}
		if advancer != nil {
			advancer.Advance(step)
		}
		e.Tick(step)
	}
}

// HandlePlayerMovement normalizes a motion sample and runs it through the
// player's effects and role. Samples for unknown players are ignored.
// Malformed samples are rejected with an error and do not affect the game.
func (e *Engine) HandlePlayerMovement(playerID string, sample motion.Sample) error {
	var err error
	e.locked(func() {
		p := e.byID[playerID]
		if p == nil {
			return
		}
		reading, nerr := e.normalizer.Normalize(playerID, sample)
		if nerr != nil {
			err = nerr
			if e.metrics != nil {
				e.metrics.Add(metricMovementRejected, 1)
			}
			loggingsimulation.MovementRejected(context.Background(), e.publisher, e.tick, logging.PlayerRef(playerID), loggingsimulation.MovementRejectedPayload{
				Reason: nerr.Error(),
			}, nil)
			return
		}
		p.intensity = reading.Intensity
		if e.state != StateActive || !p.Alive() {
			return
		}
		for _, effect := range p.effects.Ordered() {
			if !effect.Base().Active() {
				continue
			}
			e.guard("effect.movement", p, func() {
				effect.OnMovement(p, reading.Intensity, e.gameTime)
			})
		}
		if !p.Alive() {
			return
		}
		e.guard("role.movement", p, func() {
			p.role.CheckMovementDamage(p, reading.Intensity, e.gameTime)
		})
	})
	return err
}

func (e *Engine) handleDeath(victim *Player, gameTime time.Duration) {
	if e.metrics != nil {
		e.metrics.Add(metricDeaths, 1)
	}
	e.Emit(EventPlayerDeath, DeathEventPayload{
		VictimID:   victim.ID(),
		VictimName: victim.Name(),
		GameTimeMs: gameTime.Milliseconds(),
	})
	for _, p := range e.players {
		if p == victim {
			continue
		}
		e.guard("role.player_died", p, func() {
			p.role.PlayerDied(p, victim, gameTime)
		})
	}
	if e.mode != nil {
		e.guard("mode.player_death", victim, func() {
			e.mode.OnPlayerDeath(victim, e)
		})
	}
}

// ScheduleRespawn queues a respawn for a dead player using round-relative
// time. It returns false when the round will end first.
func (e *Engine) ScheduleRespawn(p *Player) bool {
	if p == nil {
		return false
	}
	if e.respawns.ScheduleRespawn(p.ID(), e.RoundElapsed(), e.modeConfig.RoundDuration()) {
		return true
	}
	loggingsimulation.RespawnRefused(context.Background(), e.publisher, e.tick, logging.PlayerRef(p.ID()), loggingsimulation.RespawnRefusedPayload{
		GameTime:      e.RoundElapsed().Milliseconds(),
		Delay:         e.respawns.Delay().Milliseconds(),
		RoundDuration: e.modeConfig.RoundDuration().Milliseconds(),
	}, nil)
	return false
}

// Respawns exposes the respawn queue to modes.
func (e *Engine) Respawns() *RespawnManager {
	return e.respawns
}

// ApplyStatusEffect attaches a registered effect to a living player.
func (e *Engine) ApplyStatusEffect(playerID, effectName string, duration time.Duration) error {
	var err error
	e.locked(func() {
		p := e.byID[playerID]
		if p == nil {
			err = fmt.Errorf("%w: %q", ErrUnknownPlayer, playerID)
			return
		}
		if !p.Alive() {
			err = validationErrorf("playerId", "player %q is not alive", playerID)
			return
		}
		effect, nerr := e.registry.NewEffect(effectName, duration)
		if nerr != nil {
			err = nerr
			return
		}
		p.ApplyStatusEffect(effect, e.gameTime)
	})
	return err
}

// CaptureBase asks the active mode to flip a base to the player's team.
func (e *Engine) CaptureBase(playerID, baseID string) error {
	var err error
	e.locked(func() {
		if e.state != StateActive {
			err = validationErrorf("state", "bases can only be captured during an active round")
			return
		}
		p := e.byID[playerID]
		if p == nil {
			err = fmt.Errorf("%w: %q", ErrUnknownPlayer, playerID)
			return
		}
		capturer, ok := e.mode.(BaseCapturer)
		if !ok {
			err = fmt.Errorf("%w: base capture", ErrUnsupported)
			return
		}
		e.guard("mode.capture_base", p, func() {
			err = capturer.CaptureBase(e, p, baseID)
		})
	})
	return err
}

// RemovePlayer drops a player from the roster, for example after a
// disconnect. It reports whether the player was present.
func (e *Engine) RemovePlayer(playerID string) bool {
	removed := false
	e.locked(func() {
		p := e.byID[playerID]
		if p == nil {
			return
		}
		delete(e.byID, playerID)
		for i, candidate := range e.players {
			if candidate == p {
				e.players = append(e.players[:i:i], e.players[i+1:]...)
				break
			}
		}
		e.respawns.Cancel(playerID)
		e.normalizer.Reset(playerID)
		removed = true
	})
	return removed
}

// GetPlayerByID returns a copy of a player's public state.
func (e *Engine) GetPlayerByID(id string) (PlayerView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.byID[id]
	if p == nil {
		return PlayerView{}, false
	}
	return p.View(), true
}

// IsActive reports whether a game is in progress.
func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.InProgress()
}

// State returns the current game state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// GameID returns the current game's id, or "" when idle.
func (e *Engine) GameID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gameID
}

// Snapshot copies the engine's observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{
		GameID:               e.gameID,
		State:                e.state,
		Round:                e.RoundNumber(),
		Tick:                 e.tick,
		GameTimeMs:           e.gameTime.Milliseconds(),
		RoundTimeRemainingMs: e.roundRemainingMs(),
		Players:              e.views(),
	}
	if e.mode != nil {
		snap.Mode = e.mode.Name()
		snap.ModeState = e.modeState()
	}
	for _, round := range e.rounds {
		snap.Rounds = append(snap.Rounds, round.clone())
	}
	return snap
}

func (e *Engine) modeState() any {
	reporter, ok := e.mode.(ModeStateReporter)
	if !ok {
		return nil
	}
	return reporter.ModeState()
}

// The methods below implement World. They assume the engine lock is held,
// which is the case inside every role, effect and mode hook.

func (e *Engine) GameTime() time.Duration { return e.gameTime }
func (e *Engine) TickCount() uint64       { return e.tick }
func (e *Engine) RNG() *rand.Rand         { return e.rng }
func (e *Engine) Config() ModeConfig      { return e.modeConfig }
func (e *Engine) Mode() Mode              { return e.mode }

// RoundElapsed returns game time since the current round became active.
func (e *Engine) RoundElapsed() time.Duration {
	if e.gameTime < e.roundStart {
		return 0
	}
	return e.gameTime - e.roundStart
}

// RoundNumber returns the current round number, or 0 before the first.
func (e *Engine) RoundNumber() int {
	return len(e.rounds)
}

// Player looks a player up by id.
func (e *Engine) Player(id string) *Player {
	return e.byID[id]
}

// Players returns the roster in join order.
func (e *Engine) Players() []*Player {
	return append([]*Player(nil), e.players...)
}

// AlivePlayers returns the living players in roster order.
func (e *Engine) AlivePlayers() []*Player {
	out := make([]*Player, 0, len(e.players))
	for _, p := range e.players {
		if p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

// Publisher returns the game-scoped log publisher.
func (e *Engine) Publisher() logging.Publisher {
	return e.publisher
}

// Emit queues an outbound event for delivery after the current call.
func (e *Engine) Emit(eventType EventType, payload any) {
	e.seq++
	e.outbox = append(e.outbox, Event{Seq: e.seq, Type: eventType, GameID: e.gameID, Payload: payload})
}

// EmitModeEvent queues a mode:event notification.
func (e *Engine) EmitModeEvent(name string, data any) {
	e.Emit(EventModeEvent, ModeEventPayload{Name: name, Data: data})
}

func (e *Engine) currentRound() *Round {
	if len(e.rounds) == 0 {
		e.rounds = append(e.rounds, &Round{Number: 1, Points: make(map[string]int)})
	}
	return e.rounds[len(e.rounds)-1]
}

func (e *Engine) roundRemainingMs() *int64 {
	limit := e.modeConfig.RoundDuration()
	if limit <= 0 || e.state != StateActive {
		return nil
	}
	remaining := limit - e.RoundElapsed()
	if remaining < 0 {
		remaining = 0
	}
	ms := remaining.Milliseconds()
	return &ms
}

func (e *Engine) views() []PlayerView {
	views := make([]PlayerView, 0, len(e.players))
	for _, p := range e.players {
		views = append(views, p.View())
	}
	return views
}

func (e *Engine) motionStats() []MotionStat {
	stats := make([]MotionStat, 0, len(e.players))
	for _, p := range e.players {
		history := e.normalizer.History(p.ID())
		if history.Len() == 0 {
			continue
		}
		stats = append(stats, MotionStat{PlayerID: p.ID(), Peak: history.Peak(), Average: history.Average()})
	}
	return stats
}

func (e *Engine) transition(to State) {
	if e.state == to {
		return
	}
	if !CanTransition(e.state, to) {
		e.logger.Printf("[game] refusing transition %s -> %s", e.state, to)
		return
	}
	e.setState(to)
}

func (e *Engine) setState(to State) {
	from := e.state
	if from == to {
		return
	}
	e.state = to
	e.Emit(EventStateChanged, StatePayload{From: from, To: to})
}

// guard runs a hook and absorbs any panic so one broken role, effect or mode
// cannot take the simulation down.
func (e *Engine) guard(hook string, p *Player, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if e.metrics != nil {
				e.metrics.Add(metricHookPanics, 1)
			}
			actor := logging.GameRef(e.gameID)
			if p != nil {
				actor = logging.PlayerRef(p.ID())
			}
			loggingsimulation.HookRecovered(context.Background(), e.publisher, e.tick, actor, loggingsimulation.HookRecoveredPayload{
				Hook:  hook,
				Panic: fmt.Sprint(r),
			}, nil)
			e.logger.Printf("[game] recovered panic in %s: %v", hook, r)
		}
	}()
	fn()
}
