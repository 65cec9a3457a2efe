package game

import "time"

// Round records one round of a game.
type Round struct {
	Number    int            `json:"number" msgpack:"number"`
	StartTime time.Duration  `json:"startTime" msgpack:"startTime"`
	EndTime   *time.Duration `json:"endTime" msgpack:"endTime"`
	WinnerID  string         `json:"winnerId,omitempty" msgpack:"winnerId,omitempty"`
	// Points maps player id to the points earned in this round.
	Points map[string]int `json:"points,omitempty" msgpack:"points,omitempty"`
}

// Ended reports whether the round has finished.
func (r Round) Ended() bool {
	return r.EndTime != nil
}

func (r Round) clone() Round {
	out := r
	if r.EndTime != nil {
		end := *r.EndTime
		out.EndTime = &end
	}
	if r.Points != nil {
		out.Points = make(map[string]int, len(r.Points))
		for k, v := range r.Points {
			out.Points[k] = v
		}
	}
	return out
}
