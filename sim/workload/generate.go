package workload

import "math/rand"

// maxPlayerID bounds generated player ids (inclusive).
const maxPlayerID = 100

// GenerateRandomSequence returns n uniformly distributed int32 values.
func GenerateRandomSequence(rng *rand.Rand, n int) []int32 {
	seq := make([]int32, n)
	for i := range seq {
		seq[i] = int32(rng.Uint32())
	}
	return seq
}

// GenerateRandomIDs returns n player ids drawn uniformly from [0, 100].
func GenerateRandomIDs(rng *rand.Rand, n int) []uint64 {
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = uint64(rng.Intn(maxPlayerID + 1))
	}
	return ids
}
