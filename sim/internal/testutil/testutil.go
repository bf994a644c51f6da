// Package testutil provides shared test infrastructure for the sim packages.
// It consolidates reference implementations and assertion helpers used across
// sim/workload and sim/bench test packages.
package testutil

import (
	"cmp"
	"slices"
	"testing"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
)

// NaiveFib evaluates the unmemoized recurrence directly: the value and the
// number of base cases the call tree reaches.
func NaiveFib(n uint32) (value, leaves uint64) {
	if n <= 1 {
		return uint64(n), 1
	}
	v1, l1 := NaiveFib(n - 1)
	v2, l2 := NaiveFib(n - 2)
	return v1 + v2, l1 + l2
}

// IsSortedPermutation reports whether got is non-decreasing and holds the
// same multiset of values as orig.
func IsSortedPermutation[T cmp.Ordered](orig, got []T) bool {
	if !slices.IsSorted(got) {
		return false
	}
	want := slices.Clone(orig)
	slices.Sort(want)
	return slices.Equal(want, got)
}

// NamedJoiner pairs a strategy with a label for subtests.
type NamedJoiner struct {
	Name string
	J    sim.Joiner
}

// AllStrategies returns Serial, Parallel and ParallelLatencyHiding, the
// parallel ones sharing a fresh pool of the given size.
func AllStrategies(t testing.TB, workers int) []NamedJoiner {
	t.Helper()
	p, err := pool.New(workers)
	if err != nil {
		t.Fatalf("pool.New(%d): %v", workers, err)
	}
	return []NamedJoiner{
		{"serial", sim.Serial{}},
		{"parallel", sim.NewParallel(p)},
		{"latency-hiding", sim.NewParallelLatencyHiding(p)},
	}
}
