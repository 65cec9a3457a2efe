package game

// State is the engine's game-state value.
type State string

const (
	StateWaiting    State = "waiting"
	StateCountdown  State = "countdown"
	StateActive     State = "active"
	StateRoundEnded State = "round-ended"
	StateFinished   State = "finished"
)

// forward lists the transitions a running game may take. Stopping a game
// (any state back to waiting) is handled separately.
var forward = map[State][]State{
	StateWaiting:    {StateCountdown},
	StateCountdown:  {StateActive},
	StateActive:     {StateRoundEnded, StateFinished},
	StateRoundEnded: {StateCountdown, StateFinished},
	StateFinished:   {StateWaiting},
}

// CanTransition reports whether the game may move from one state to another
// without being stopped.
func CanTransition(from, to State) bool {
	for _, candidate := range forward[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// InProgress reports whether the state belongs to a running game.
func (s State) InProgress() bool {
	switch s {
	case StateCountdown, StateActive, StateRoundEnded:
		return true
	default:
		return false
	}
}
