package modes

import (
	"time"

	"shakeout/server/internal/game"
)

// DefaultDeathCountDuration is used when no round duration is configured.
const DefaultDeathCountDuration = 90 * time.Second

// DeathCount runs a timed round with respawns. Fewest deaths wins; ties share
// a rank and medals go to the top three ranks.
type DeathCount struct {
	game.BaseMode
}

// NewDeathCount builds a death-count mode.
func NewDeathCount(cfg game.ModeConfig) (game.Mode, error) {
	if cfg.RoundDurationMs <= 0 {
		cfg.RoundDurationMs = DefaultDeathCountDuration.Milliseconds()
	}
	return &DeathCount{BaseMode: game.BaseMode{Cfg: cfg}}, nil
}

func (m *DeathCount) Name() string { return KeyDeathCount }

func (m *DeathCount) OnPlayerDeath(victim *game.Player, e *game.Engine) {
	e.ScheduleRespawn(victim)
}

func (m *DeathCount) CheckWinCondition(e *game.Engine) game.WinResult {
	if len(e.Players()) == 0 {
		return game.WinResult{RoundEnded: true, GameEnded: true, Reason: "empty"}
	}
	if !m.RoundTimedOut(e) {
		return game.WinResult{}
	}
	return game.WinResult{
		RoundEnded: true,
		GameEnded:  true,
		WinnerID:   game.SoleLeader(m.CalculateFinalScores(e)),
		Reason:     "timeout",
	}
}

func (m *DeathCount) CalculateFinalScores(e *game.Engine) []game.ScoreEntry {
	players := e.Players()
	entries := make([]game.ScoreEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, game.ScoreEntry{
			PlayerID: p.ID(),
			Name:     p.Name(),
			Score:    p.DeathCount(),
		})
	}
	ranked := game.RankScores(entries, true)
	for i := range ranked {
		ranked[i].Medal = game.MedalForRank(ranked[i].Rank)
		ranked[i].Status = string(ranked[i].Medal)
	}
	return ranked
}
