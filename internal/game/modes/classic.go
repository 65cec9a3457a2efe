// Package modes implements the built-in game modes.
package modes

import (
	"time"

	"shakeout/server/internal/game"
)

const (
	KeyClassic    = "classic"
	KeyDeathCount = "death-count"
	KeyRoleBased  = "role-based"
	KeyDomination = "domination"
)

const (
	DefaultSpeedShiftInterval = 10 * time.Second
	// SpeedShiftBonus is added to every danger threshold while the tempo is fast.
	SpeedShiftBonus = 0.15

	StatusWinner     = "winner"
	StatusEliminated = "eliminated"
	StatusSurvived   = "survived"
	StatusDraw       = "draw"
)

// Classic is last-player-standing. With a round duration set, the least
// damaged survivor wins on timeout. Speed shifts optionally toggle the
// tolerated movement tempo.
type Classic struct {
	game.BaseMode
	winnerID  string
	fast      bool
	nextShift time.Duration
	// thresholds holds each player's slow-tempo danger threshold.
	thresholds map[string]float64
}

// NewClassic builds a classic mode.
func NewClassic(cfg game.ModeConfig) (game.Mode, error) {
	return &Classic{BaseMode: game.BaseMode{Cfg: cfg}}, nil
}

func (m *Classic) Name() string { return KeyClassic }

func (m *Classic) RoundStarted(e *game.Engine) {
	m.winnerID = ""
	m.fast = false
	m.thresholds = make(map[string]float64, len(e.Players()))
	for _, p := range e.Players() {
		m.thresholds[p.ID()] = p.DangerThreshold()
	}
	if m.Cfg.SpeedShift {
		m.nextShift = e.GameTime() + m.shiftInterval(e)
	}
}

func (m *Classic) shiftInterval(e *game.Engine) time.Duration {
	base := time.Duration(m.Cfg.SpeedShiftIntervalMs) * time.Millisecond
	if base <= 0 {
		base = DefaultSpeedShiftInterval
	}
	// Jitter between half and one and a half intervals.
	return base/2 + time.Duration(e.RNG().Int63n(int64(base)+1))
}

func (m *Classic) Tick(e *game.Engine, gameTime, _ time.Duration) {
	if !m.Cfg.SpeedShift || gameTime < m.nextShift {
		return
	}
	m.fast = !m.fast
	speed := "slow"
	if m.fast {
		speed = "fast"
	}
	for _, p := range e.Players() {
		threshold, ok := m.thresholds[p.ID()]
		if !ok {
			threshold = p.DangerThreshold()
			m.thresholds[p.ID()] = threshold
		}
		if m.fast {
			threshold += SpeedShiftBonus
		}
		p.SetDangerThreshold(threshold)
	}
	m.nextShift = gameTime + m.shiftInterval(e)
	e.EmitModeEvent("speed-shift", map[string]any{"speed": speed})
}

func (m *Classic) CheckWinCondition(e *game.Engine) game.WinResult {
	alive := e.AlivePlayers()
	switch {
	case len(alive) == 1:
		m.winnerID = alive[0].ID()
		return game.WinResult{RoundEnded: true, GameEnded: true, WinnerID: m.winnerID, Reason: "last-standing"}
	case len(alive) == 0:
		return game.WinResult{RoundEnded: true, GameEnded: true, Reason: "draw"}
	case m.RoundTimedOut(e):
		m.winnerID = leastDamaged(alive)
		return game.WinResult{RoundEnded: true, GameEnded: true, WinnerID: m.winnerID, Reason: "timeout"}
	}
	return game.WinResult{}
}

func (m *Classic) RoundEnded(e *game.Engine, result game.WinResult) game.WinResult {
	if winner := e.Player(result.WinnerID); winner != nil {
		winner.AddPoints(1)
	}
	return result
}

func (m *Classic) CalculateFinalScores(e *game.Engine) []game.ScoreEntry {
	entries := make([]game.ScoreEntry, 0, len(e.Players()))
	for _, p := range e.Players() {
		status := StatusEliminated
		switch {
		case p.ID() == m.winnerID:
			status = StatusWinner
		case m.winnerID == "" && p.Alive():
			status = StatusDraw
		case p.Alive():
			status = StatusSurvived
		}
		entries = append(entries, game.ScoreEntry{
			PlayerID: p.ID(),
			Name:     p.Name(),
			Score:    p.TotalPoints(),
			Status:   status,
		})
	}
	return game.RankScores(entries, false)
}

// leastDamaged returns the unique survivor with the lowest damage, or "" on
// a tie.
func leastDamaged(alive []*game.Player) string {
	var best *game.Player
	tied := false
	for _, p := range alive {
		switch {
		case best == nil || p.Damage() < best.Damage():
			best = p
			tied = false
		case p.Damage() == best.Damage():
			tied = true
		}
	}
	if best == nil || tied {
		return ""
	}
	return best.ID()
}
