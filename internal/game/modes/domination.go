package modes

import (
	"fmt"
	"math"
	"time"

	"shakeout/server/internal/game"
)

// DefaultDominationTarget is the team score that wins a domination game.
const DefaultDominationTarget = 10

// BaseState is the public state of one capture point. Progress is the held
// share of the current control interval, from 0 to 1.
type BaseState struct {
	ID        string  `json:"id" msgpack:"id"`
	OwnerTeam string  `json:"ownerTeamId,omitempty" msgpack:"ownerTeamId,omitempty"`
	Progress  float64 `json:"progress" msgpack:"progress"`
}

// DominationState is attached to every tick and snapshot of a domination game.
type DominationState struct {
	Bases  []BaseState    `json:"bases" msgpack:"bases"`
	Scores map[string]int `json:"scores" msgpack:"scores"`
}

type base struct {
	id       string
	owner    string
	progress time.Duration
}

// Domination splits players into teams that capture bases. A team scores a
// point for every control interval it holds a base; capturing an enemy base
// flips ownership and resets its progress. Dead players respawn.
type Domination struct {
	game.BaseMode
	teams  []string
	bases  []*base
	scores map[string]int
	winner string
}

// NewDomination builds a domination mode.
func NewDomination(cfg game.ModeConfig) (game.Mode, error) {
	if cfg.TeamCount < 2 {
		return nil, &game.ValidationError{Field: "teamCount", Message: "domination needs at least 2 teams"}
	}
	if cfg.BaseCount < 1 {
		return nil, &game.ValidationError{Field: "baseCount", Message: "domination needs at least 1 base"}
	}
	if cfg.TargetScore == 0 {
		cfg.TargetScore = DefaultDominationTarget
	}
	m := &Domination{BaseMode: game.BaseMode{Cfg: cfg}, scores: make(map[string]int)}
	for i := 1; i <= cfg.TeamCount; i++ {
		m.teams = append(m.teams, fmt.Sprintf("team-%d", i))
	}
	for i := 1; i <= cfg.BaseCount; i++ {
		m.bases = append(m.bases, &base{id: fmt.Sprintf("base-%d", i)})
	}
	return m, nil
}

func (m *Domination) Name() string    { return KeyDomination }
func (m *Domination) MinPlayers() int { return len(m.teams) }

// ModeState reports base ownership and team scores.
func (m *Domination) ModeState() any {
	state := DominationState{
		Bases:  make([]BaseState, 0, len(m.bases)),
		Scores: make(map[string]int, len(m.teams)),
	}
	interval := m.Cfg.ControlInterval()
	for _, b := range m.bases {
		progress := 0.0
		if b.owner != "" && interval > 0 {
			progress = math.Min(float64(b.progress)/float64(interval), 1)
		}
		state.Bases = append(state.Bases, BaseState{ID: b.id, OwnerTeam: b.owner, Progress: progress})
	}
	for _, team := range m.teams {
		state.Scores[team] = m.scores[team]
	}
	return state
}

// Setup assigns players without a team round-robin and rejects unknown teams.
func (m *Domination) Setup(e *game.Engine) error {
	known := make(map[string]bool, len(m.teams))
	for _, team := range m.teams {
		known[team] = true
	}
	next := 0
	for _, p := range e.Players() {
		if p.TeamID() == "" {
			p.SetTeam(m.teams[next%len(m.teams)])
			next++
			continue
		}
		if !known[p.TeamID()] {
			return &game.ValidationError{Field: "players", Message: fmt.Sprintf("unknown team %q for player %q", p.TeamID(), p.ID())}
		}
	}
	return nil
}

func (m *Domination) RoundStarted(*game.Engine) {
	m.winner = ""
	for _, b := range m.bases {
		b.owner = ""
		b.progress = 0
	}
	for _, team := range m.teams {
		m.scores[team] = 0
	}
}

// CaptureBase flips a base to the capturing player's team.
func (m *Domination) CaptureBase(e *game.Engine, p *game.Player, baseID string) error {
	if !p.Alive() {
		return &game.ValidationError{Field: "playerId", Message: "dead players cannot capture bases"}
	}
	var target *base
	for _, b := range m.bases {
		if b.id == baseID {
			target = b
			break
		}
	}
	if target == nil {
		return &game.ValidationError{Field: "baseId", Message: fmt.Sprintf("unknown base %q", baseID)}
	}
	if target.owner == p.TeamID() {
		return nil
	}
	previous := target.owner
	target.owner = p.TeamID()
	target.progress = 0
	e.EmitModeEvent("base-captured", map[string]any{
		"baseId":         target.id,
		"teamId":         target.owner,
		"previousTeamId": previous,
		"playerId":       p.ID(),
	})
	return nil
}

func (m *Domination) Tick(e *game.Engine, _, delta time.Duration) {
	interval := m.Cfg.ControlInterval()
	if interval <= 0 {
		return
	}
	for _, b := range m.bases {
		if b.owner == "" {
			continue
		}
		b.progress += delta
		for b.progress >= interval {
			b.progress -= interval
			m.scores[b.owner]++
			e.EmitModeEvent("base-scored", map[string]any{
				"baseId": b.id,
				"teamId": b.owner,
				"score":  m.scores[b.owner],
			})
		}
	}
}

func (m *Domination) OnPlayerDeath(victim *game.Player, e *game.Engine) {
	e.ScheduleRespawn(victim)
}

func (m *Domination) CheckWinCondition(e *game.Engine) game.WinResult {
	if len(e.Players()) == 0 {
		return game.WinResult{RoundEnded: true, GameEnded: true, Reason: "empty"}
	}
	for _, team := range m.teams {
		if m.scores[team] >= m.Cfg.TargetScore {
			m.winner = team
			return game.WinResult{RoundEnded: true, GameEnded: true, WinnerID: team, Reason: "target-score"}
		}
	}
	if m.RoundTimedOut(e) {
		m.winner = m.leadingTeam()
		return game.WinResult{RoundEnded: true, GameEnded: true, WinnerID: m.winner, Reason: "timeout"}
	}
	return game.WinResult{}
}

func (m *Domination) leadingTeam() string {
	best, bestScore, tied := "", -1, false
	for _, team := range m.teams {
		switch score := m.scores[team]; {
		case score > bestScore:
			best, bestScore, tied = team, score, false
		case score == bestScore:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return best
}

func (m *Domination) RoundEnded(e *game.Engine, result game.WinResult) game.WinResult {
	for _, p := range e.Players() {
		p.AddPoints(m.scores[p.TeamID()])
	}
	return result
}

func (m *Domination) CalculateFinalScores(e *game.Engine) []game.ScoreEntry {
	entries := make([]game.ScoreEntry, 0, len(e.Players()))
	for _, p := range e.Players() {
		status := "defeated"
		if m.winner != "" && p.TeamID() == m.winner {
			status = StatusWinner
		}
		entries = append(entries, game.ScoreEntry{
			PlayerID: p.ID(),
			Name:     p.Name(),
			TeamID:   p.TeamID(),
			Score:    m.scores[p.TeamID()],
			Status:   status,
		})
	}
	return game.RankScores(entries, false)
}
