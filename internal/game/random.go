package game

import (
	"hash/fnv"
	"math/rand"
)

// DeterministicSeedValue derives a per-subsystem seed from a root seed.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG returns a generator seeded from rootSeed and label.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// PickPlayer chooses one candidate at random, or nil when there are none.
func PickPlayer(rng *rand.Rand, candidates []*Player) *Player {
	if len(candidates) == 0 {
		return nil
	}
	if rng == nil {
		return candidates[0]
	}
	return candidates[rng.Intn(len(candidates))]
}
