package workload

import (
	"time"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
)

type fibResult struct {
	value uint64
	calls uint64
}

// Fib computes the n-th Fibonacci number with the naive call tree and returns
// it together with the number of leaves visited. Pooled strategies run the
// tree on their pool, so Fib may be called from outside it.
//
// Leaf work is performed only at base cases (n <= 1). Under a parallel
// strategy, subtrees with n <= serialCutoff run Serial; serialCutoff == 0
// splits all the way down. The call count depends on n alone.
func Fib(j sim.Joiner, n uint32, work *sim.WorkSpec, serialCutoff uint32) (value, calls uint64) {
	sim.Run(j, func() {
		value, calls = fib(j, n, work, serialCutoff)
	})
	return value, calls
}

// fib is the recursion behind Fib. It must run inside j's pool.
func fib(j sim.Joiner, n uint32, work *sim.WorkSpec, serialCutoff uint32) (value, calls uint64) {
	if n <= 1 {
		work.Do(j)
		return uint64(n), 1
	}

	if j.IsParallel() && n <= serialCutoff {
		return fib(sim.Serial{}, n, work, serialCutoff)
	}

	a, b := sim.Join(j,
		func() fibResult {
			v, c := fib(j, n-1, work, serialCutoff)
			return fibResult{v, c}
		},
		func() fibResult {
			v, c := fib(j, n-2, work, serialCutoff)
			return fibResult{v, c}
		},
	)
	return a.value + b.value, a.calls + b.calls
}

// FibInterior walks the call tree the classic way, with every interior node
// drawing latency with probability p before forking under j. The draw blocks
// or suspends depending on j. calls counts every node of the tree.
func FibInterior(j sim.Joiner, n uint32, latency time.Duration, p float64) (value, calls uint64) {
	sim.Run(j, func() {
		value, calls = fibInterior(j, n, latency, p)
	})
	return value, calls
}

func fibInterior(j sim.Joiner, n uint32, latency time.Duration, p float64) (value, calls uint64) {
	if n <= 1 {
		return uint64(n), 1
	}
	if sim.IncursLatency(p) {
		sim.InjectLatency(j, latency)
	}

	a, b := sim.Join(j,
		func() fibResult {
			v, c := fibInterior(j, n-1, latency, p)
			return fibResult{v, c}
		},
		func() fibResult {
			v, c := fibInterior(j, n-2, latency, p)
			return fibResult{v, c}
		},
	)
	return a.value + b.value, a.calls + b.calls + 1
}

// FibAsync is Fib as a suspension-capable computation: leaf latency suspends
// the member, and branches are combined according to c.
func FibAsync(t *pool.Task, c Combine, n uint32, work *sim.WorkSpec) (value, calls uint64) {
	if n <= 1 {
		work.DoTask(t)
		return uint64(n), 1
	}

	a, b := joinTasks(t, c,
		func(t *pool.Task) fibResult {
			v, k := FibAsync(t, c, n-1, work)
			return fibResult{v, k}
		},
		func(t *pool.Task) fibResult {
			v, k := FibAsync(t, c, n-2, work)
			return fibResult{v, k}
		},
	)
	return a.value + b.value, a.calls + b.calls
}

// FibLatencyHiding walks the call tree with every interior node drawing
// latency with probability p before forking. Branches are spawned as separate
// units, so idle workers drive the rest of the tree while a node is
// suspended. calls counts every node of the tree.
func FibLatencyHiding(t *pool.Task, n uint32, latency time.Duration, p float64) (value, calls uint64) {
	if n <= 1 {
		return uint64(n), 1
	}
	if sim.IncursLatency(p) {
		t.Sleep(latency)
	}

	a, b := pool.JoinAsync(t,
		func(t *pool.Task) fibResult {
			v, k := FibLatencyHiding(t, n-1, latency, p)
			return fibResult{v, k}
		},
		func(t *pool.Task) fibResult {
			v, k := FibLatencyHiding(t, n-2, latency, p)
			return fibResult{v, k}
		},
	)
	return a.value + b.value, a.calls + b.calls + 1
}

// FibSingleUnit walks the call tree on the caller's unit alone. Interior nodes
// suspend for latency when it is non-nil. The tree is pure latency, so
// concurrency on one unit is enough to overlap it. calls counts every node of
// the tree.
func FibSingleUnit(t *pool.Task, n uint32, latency *time.Duration) (value, calls uint64) {
	if n <= 1 {
		return uint64(n), 1
	}
	if latency != nil {
		t.Sleep(*latency)
	}

	a, b := pool.Concurrently(t,
		func(t *pool.Task) fibResult {
			v, k := FibSingleUnit(t, n-1, latency)
			return fibResult{v, k}
		},
		func(t *pool.Task) fibResult {
			v, k := FibSingleUnit(t, n-2, latency)
			return fibResult{v, k}
		},
	)
	return a.value + b.value, a.calls + b.calls + 1
}
