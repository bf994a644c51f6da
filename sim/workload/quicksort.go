package workload

import (
	"cmp"
	"slices"

	"github.com/inference-sim/latency-hiding-sim/sim"
)

// SerialCutoff is the sequence length at or below which Quicksort stops
// splitting and sorts directly.
const SerialCutoff = 5 * 1024

// Partition reorders s around its last element in a single in-place pass and
// returns the pivot's final index. Afterwards s[:mid] <= s[mid] <= s[mid+1:].
// Not stable. Panics if s is empty.
func Partition[T cmp.Ordered](s []T) int {
	pivot := len(s) - 1
	swap := 0
	for i := 0; i < pivot; i++ {
		if s[i] <= s[pivot] {
			if swap != i {
				s[swap], s[i] = s[i], s[swap]
			}
			swap++
		}
	}
	if swap != pivot {
		s[swap], s[pivot] = s[pivot], s[swap]
	}
	return swap
}

// Quicksort sorts s in place under j with the default SerialCutoff.
func Quicksort[T cmp.Ordered](j sim.Joiner, s []T, work *sim.WorkSpec) {
	QuicksortWithCutoff(j, s, work, SerialCutoff)
}

// QuicksortWithCutoff sorts s in place under j. Views of length <= cutoff
// perform the leaf work and are sorted directly. Pooled strategies sort on
// their pool.
func QuicksortWithCutoff[T cmp.Ordered](j sim.Joiner, s []T, work *sim.WorkSpec, cutoff int) {
	sim.Run(j, func() { quicksort(j, s, work, cutoff) })
}

func quicksort[T cmp.Ordered](j sim.Joiner, s []T, work *sim.WorkSpec, cutoff int) {
	if len(s) <= cutoff || len(s) < 2 {
		work.Do(j)
		slices.Sort(s)
		return
	}

	mid := Partition(s)
	left, right := splitAround(s, mid)
	j.Join(
		func() { quicksort(j, left, work, cutoff) },
		func() { quicksort(j, right, work, cutoff) },
	)
}

// splitAround returns the disjoint views on either side of the pivot at mid.
// The pivot is already in its final position. The left view's capacity ends
// at mid, so an append through it cannot reach the pivot or the right view.
func splitAround[T any](s []T, mid int) (left, right []T) {
	return s[:mid:mid], s[mid+1:]
}
