package game

import (
	"math/rand"
	"time"

	"shakeout/server/logging"
)

// World is the view of a running game handed to roles and effects. All
// methods assume the caller runs inside an engine hook.
type World interface {
	GameTime() time.Duration
	RoundElapsed() time.Duration
	RoundNumber() int
	TickCount() uint64
	Player(id string) *Player
	Players() []*Player
	AlivePlayers() []*Player
	RNG() *rand.Rand
	Config() ModeConfig
	Emit(eventType EventType, payload any)
	Publisher() logging.Publisher
}
