package game

import (
	"sort"
	"time"
)

// RespawnManager tracks pending respawns by round-relative time.
type RespawnManager struct {
	delay   time.Duration
	pending map[string]time.Duration
}

// NewRespawnManager returns a manager with the given respawn delay.
func NewRespawnManager(delay time.Duration) *RespawnManager {
	return &RespawnManager{delay: delay, pending: make(map[string]time.Duration)}
}

// Delay returns the configured respawn delay.
func (m *RespawnManager) Delay() time.Duration {
	return m.delay
}

// ScheduleRespawn queues a respawn at gameTime + delay. It refuses and
// returns false when roundDuration is known and the respawn would land at or
// after the end of the round. A zero roundDuration means unknown.
func (m *RespawnManager) ScheduleRespawn(playerID string, gameTime, roundDuration time.Duration) bool {
	at := gameTime + m.delay
	if roundDuration > 0 && at >= roundDuration {
		return false
	}
	m.pending[playerID] = at
	return true
}

// PendingAt returns the scheduled respawn time for a player.
func (m *RespawnManager) PendingAt(playerID string) (time.Duration, bool) {
	at, ok := m.pending[playerID]
	return at, ok
}

// Pending returns the number of queued respawns.
func (m *RespawnManager) Pending() int {
	return len(m.pending)
}

// CheckRespawns revives every player whose respawn time has been reached and
// returns them in respawn order. Entries for players lookup cannot resolve
// are dropped.
func (m *RespawnManager) CheckRespawns(gameTime time.Duration, lookup func(id string) *Player) []*Player {
	type due struct {
		id string
		at time.Duration
	}
	var ready []due
	for id, at := range m.pending {
		if at <= gameTime {
			ready = append(ready, due{id: id, at: at})
		}
	}
	if len(ready) == 0 {
		return nil
	}
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].at != ready[j].at {
			return ready[i].at < ready[j].at
		}
		return ready[i].id < ready[j].id
	})
	revived := make([]*Player, 0, len(ready))
	for _, entry := range ready {
		delete(m.pending, entry.id)
		p := lookup(entry.id)
		if p == nil {
			continue
		}
		p.revive(gameTime)
		revived = append(revived, p)
	}
	return revived
}

// Cancel drops a player's pending respawn.
func (m *RespawnManager) Cancel(playerID string) {
	delete(m.pending, playerID)
}

// Clear drops every pending respawn.
func (m *RespawnManager) Clear() {
	for id := range m.pending {
		delete(m.pending, id)
	}
}
