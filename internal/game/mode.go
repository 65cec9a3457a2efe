package game

import "time"

// WinResult is a mode's verdict after a tick.
type WinResult struct {
	RoundEnded bool
	GameEnded  bool
	// WinnerID is a player id, a team id in team modes, or empty for a draw.
	WinnerID string
	// GameWinnerID is read instead of WinnerID when a multi-round game ends.
	GameWinnerID string
	Reason       string
}

// Mode is a win-condition and scoring strategy.
type Mode interface {
	Name() string
	// Rules returns the configuration the mode runs with, including any
	// mode-specific defaults.
	Rules() ModeConfig
	UseRoles() bool
	MultiRound() bool
	RoundCount() int
	MinPlayers() int
	MaxPlayers() int
	// RolePool returns role keys for the given player count. The engine
	// shuffles the pool and pads it with the default role.
	RolePool(playerCount int) []string

	// Setup runs once after the roster is built and before the first round.
	Setup(e *Engine) error
	// RoundStarted runs when a round becomes active.
	RoundStarted(e *Engine)
	// Tick runs once per active tick after players and respawns.
	Tick(e *Engine, gameTime, delta time.Duration)
	CheckWinCondition(e *Engine) WinResult
	// RoundEnded runs before round points are folded into totals. It may
	// award bonuses and adjust the result.
	RoundEnded(e *Engine, result WinResult) WinResult
	CalculateFinalScores(e *Engine) []ScoreEntry
	OnPlayerDeath(victim *Player, e *Engine)
}

// ModeFactory builds a mode from a normalized configuration.
type ModeFactory func(cfg ModeConfig) (Mode, error)

// BaseMode supplies defaults for optional mode hooks.
type BaseMode struct {
	Cfg ModeConfig
}

func (m BaseMode) Rules() ModeConfig { return m.Cfg }

func (BaseMode) UseRoles() bool        { return false }
func (BaseMode) MultiRound() bool      { return false }
func (BaseMode) RoundCount() int       { return 1 }
func (BaseMode) MinPlayers() int       { return 2 }
func (BaseMode) MaxPlayers() int       { return 20 }
func (BaseMode) RolePool(int) []string { return nil }

func (BaseMode) Setup(*Engine) error                              { return nil }
func (BaseMode) RoundStarted(*Engine)                             {}
func (BaseMode) Tick(*Engine, time.Duration, time.Duration)       {}
func (BaseMode) RoundEnded(_ *Engine, result WinResult) WinResult { return result }
func (BaseMode) OnPlayerDeath(*Player, *Engine)                   {}

// RoundTimedOut reports whether the configured round duration has elapsed.
func (m BaseMode) RoundTimedOut(e *Engine) bool {
	limit := m.Cfg.RoundDuration()
	return limit > 0 && e.RoundElapsed() >= limit
}

// PointsScores ranks players by points earned, either this round or in total.
func PointsScores(players []*Player, total bool) []ScoreEntry {
	entries := make([]ScoreEntry, 0, len(players))
	for _, p := range players {
		score := p.Points()
		if total {
			score = p.TotalPoints()
		}
		status := "alive"
		if !p.Alive() {
			status = "eliminated"
		}
		entries = append(entries, ScoreEntry{
			PlayerID: p.ID(),
			Name:     p.Name(),
			TeamID:   p.TeamID(),
			Score:    score,
			Status:   status,
		})
	}
	return RankScores(entries, false)
}
