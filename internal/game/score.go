package game

import "sort"

// Medal is awarded to the top three ranks in modes that use them.
type Medal string

const (
	MedalNone   Medal = ""
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
)

// MedalForRank maps a competition rank to its medal.
func MedalForRank(rank int) Medal {
	switch rank {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	default:
		return MedalNone
	}
}

// ScoreEntry is one line of a scoreboard.
type ScoreEntry struct {
	PlayerID string `json:"playerId" msgpack:"playerId"`
	Name     string `json:"name" msgpack:"name"`
	TeamID   string `json:"teamId,omitempty" msgpack:"teamId,omitempty"`
	Score    int    `json:"score" msgpack:"score"`
	Rank     int    `json:"rank" msgpack:"rank"`
	Status   string `json:"status,omitempty" msgpack:"status,omitempty"`
	Medal    Medal  `json:"medal,omitempty" msgpack:"medal,omitempty"`
}

// RankScores sorts entries and assigns competition ranks: ties share a rank
// and the next distinct score skips the tied positions (1, 2, 2, 4). Higher
// scores rank first unless ascending is set. Ties keep their input order.
func RankScores(entries []ScoreEntry, ascending bool) []ScoreEntry {
	out := append([]ScoreEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Score < out[j].Score
		}
		return out[i].Score > out[j].Score
	})
	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// SoleLeader returns the id of the only rank-one entry, or "" on a tie.
func SoleLeader(ranked []ScoreEntry) string {
	if len(ranked) == 0 || ranked[0].Rank != 1 {
		return ""
	}
	if len(ranked) > 1 && ranked[1].Rank == 1 {
		return ""
	}
	return ranked[0].PlayerID
}
