package modes

import (
	"shakeout/server/internal/game"
	"shakeout/server/internal/game/roles"
)

const (
	DefaultRoleBasedRounds = 3
	// LastStandingBonus goes to the sole survivor of a round.
	LastStandingBonus = 5
	// SurvivorBonus goes to each survivor when a round times out.
	SurvivorBonus = 2
)

// RoleBased plays several rounds with themed roles. Points from role
// abilities and survival accumulate across rounds; the game ends after the
// configured number of rounds or when someone reaches the target score.
type RoleBased struct {
	game.BaseMode
	roundWinner string
}

// NewRoleBased builds a role-based mode.
func NewRoleBased(cfg game.ModeConfig) (game.Mode, error) {
	if !roles.HasTheme(cfg.Theme) {
		return nil, &game.ValidationError{Field: "theme", Message: "unknown role theme " + cfg.Theme}
	}
	if cfg.Rounds == 0 && cfg.TargetScore == 0 {
		cfg.Rounds = DefaultRoleBasedRounds
	}
	return &RoleBased{BaseMode: game.BaseMode{Cfg: cfg}}, nil
}

func (m *RoleBased) Name() string     { return KeyRoleBased }
func (m *RoleBased) UseRoles() bool   { return true }
func (m *RoleBased) MultiRound() bool { return true }

// RoundCount returns zero when only the target score ends the game.
func (m *RoleBased) RoundCount() int { return m.Cfg.Rounds }

func (m *RoleBased) RolePool(playerCount int) []string {
	pool, err := roles.Pool(m.Cfg.Theme, playerCount)
	if err != nil {
		return nil
	}
	return pool
}

func (m *RoleBased) RoundStarted(*game.Engine) {
	m.roundWinner = ""
}

func (m *RoleBased) CheckWinCondition(e *game.Engine) game.WinResult {
	alive := e.AlivePlayers()
	switch {
	case len(e.Players()) == 0:
		return game.WinResult{RoundEnded: true, GameEnded: true, Reason: "empty"}
	case len(alive) == 1:
		return game.WinResult{RoundEnded: true, WinnerID: alive[0].ID(), Reason: "last-standing"}
	case len(alive) == 0:
		return game.WinResult{RoundEnded: true, Reason: "draw"}
	case m.RoundTimedOut(e):
		return game.WinResult{RoundEnded: true, Reason: "timeout"}
	}
	return game.WinResult{}
}

func (m *RoleBased) RoundEnded(e *game.Engine, result game.WinResult) game.WinResult {
	alive := e.AlivePlayers()
	if len(alive) == 1 {
		alive[0].AddPoints(LastStandingBonus)
	} else {
		for _, p := range alive {
			p.AddPoints(SurvivorBonus)
		}
	}
	if result.WinnerID == "" {
		result.WinnerID = game.SoleLeader(game.PointsScores(e.Players(), false))
	}
	m.roundWinner = result.WinnerID

	projected := make([]game.ScoreEntry, 0, len(e.Players()))
	for _, p := range e.Players() {
		total := p.TotalPoints() + p.Points()
		projected = append(projected, game.ScoreEntry{PlayerID: p.ID(), Score: total})
		if m.Cfg.TargetScore > 0 && total >= m.Cfg.TargetScore {
			result.GameEnded = true
		}
	}
	result.GameWinnerID = game.SoleLeader(game.RankScores(projected, false))
	return result
}

func (m *RoleBased) CalculateFinalScores(e *game.Engine) []game.ScoreEntry {
	ranked := game.PointsScores(e.Players(), true)
	for i := range ranked {
		switch {
		case ranked[i].PlayerID == m.roundWinner:
			ranked[i].Status = StatusWinner
		case ranked[i].Status == "alive":
			ranked[i].Status = StatusSurvived
		default:
			ranked[i].Status = StatusEliminated
		}
	}
	return ranked
}
