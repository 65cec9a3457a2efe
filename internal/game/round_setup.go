package game

import (
	"time"

	"shakeout/server/internal/sim"
)

// SetupPhase is the RoundSetupManager's progress through a round start.
type SetupPhase string

const (
	SetupIdle         SetupPhase = "idle"
	SetupResetting    SetupPhase = "resetting"
	SetupCountingDown SetupPhase = "counting-down"
	SetupGo           SetupPhase = "go"
)

// setupHost is the slice of the engine the setup manager drives.
type setupHost interface {
	// locked runs fn under the engine lock and flushes queued events.
	locked(fn func())
	Emit(eventType EventType, payload any)
	guard(hook string, p *Player, fn func())
}

// RoundSetupManager resets players, runs role pre-round setup, announces
// role assignments and drives the countdown. Its timers belong to one group
// so a stop cancels them all at once.
type RoundSetupManager struct {
	host      setupHost
	scheduler sim.Scheduler
	goDelay   time.Duration
	group     *sim.Group
	phase     SetupPhase
}

func newRoundSetupManager(host setupHost, scheduler sim.Scheduler, goDelay time.Duration) *RoundSetupManager {
	return &RoundSetupManager{host: host, scheduler: scheduler, goDelay: goDelay, phase: SetupIdle}
}

// Phase returns the current setup phase.
func (m *RoundSetupManager) Phase() SetupPhase {
	return m.phase
}

// Start prepares a round. It must be called under the engine lock. With a
// zero countdown a single go event is emitted and onComplete runs
// immediately; otherwise onComplete runs goDelay after the go event.
func (m *RoundSetupManager) Start(round int, players []*Player, countdown, gameTime time.Duration, onComplete func()) {
	m.Cancel()
	m.group = sim.NewGroup(m.scheduler)

	m.phase = SetupResetting
	for _, p := range players {
		p.resetForRound(gameTime)
	}
	for _, p := range players {
		m.host.guard("role.pre_round_setup", p, func() {
			p.role.PreRoundSetup(p, players)
		})
	}
	assignments := make([]RoleAssignment, 0, len(players))
	for _, p := range players {
		info := RoleInfo{Name: p.RoleName(), DisplayName: p.RoleName()}
		m.host.guard("role.describe", p, func() {
			info = p.role.Describe(p)
		})
		assignments = append(assignments, RoleAssignment{PlayerID: p.ID(), Role: info})
	}
	m.host.Emit(EventRoleAssigned, RoleAssignedPayload{Round: round, Assignments: assignments})

	seconds := int(countdown / time.Second)
	if seconds <= 0 {
		m.phase = SetupGo
		m.host.Emit(EventCountdown, CountdownPayload{SecondsRemaining: 0, Phase: PhaseGo, Round: round})
		m.phase = SetupIdle
		onComplete()
		return
	}

	m.phase = SetupCountingDown
	m.host.Emit(EventCountdown, CountdownPayload{SecondsRemaining: seconds, Phase: PhaseCountdown, Round: round})
	group := m.group
	var step func(remaining int) func(sim.Token)
	step = func(remaining int) func(sim.Token) {
		return func(tok sim.Token) {
			m.host.locked(func() {
				if tok.Cancelled() {
					return
				}
				if remaining > 0 {
					m.host.Emit(EventCountdown, CountdownPayload{SecondsRemaining: remaining, Phase: PhaseCountdown, Round: round})
					group.AfterFunc(time.Second, step(remaining-1))
					return
				}
				m.phase = SetupGo
				m.host.Emit(EventCountdown, CountdownPayload{SecondsRemaining: 0, Phase: PhaseGo, Round: round})
				group.AfterFunc(m.goDelay, func(tok sim.Token) {
					m.host.locked(func() {
						if tok.Cancelled() {
							return
						}
						m.phase = SetupIdle
						onComplete()
					})
				})
			})
		}
	}
	group.AfterFunc(time.Second, step(seconds-1))
}

// Cancel stops every pending countdown timer. It must be called under the
// engine lock.
func (m *RoundSetupManager) Cancel() {
	if m.group != nil {
		m.group.Cancel()
		m.group = nil
	}
	m.phase = SetupIdle
}
