package workload

import (
	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
)

// MapReduce maps every item and folds the results pairwise over a balanced
// split of items.
//
// Under Parallel strategies branch results may combine in either order, so
// reduceFn must be associative and commutative for a deterministic result.
// mapFn receives a pointer into items and may mutate its own element only.
// mapFn and reduceFn run inside j's pool.
func MapReduce[T, R any](j sim.Joiner, items []T, mapFn func(*T) R, reduceFn func(R, R) R, identity func() R) R {
	var out R
	sim.Run(j, func() {
		out = mapReduce(j, items, mapFn, reduceFn, identity)
	})
	return out
}

func mapReduce[T, R any](j sim.Joiner, items []T, mapFn func(*T) R, reduceFn func(R, R) R, identity func() R) R {
	switch len(items) {
	case 0:
		return identity()
	case 1:
		return mapFn(&items[0])
	}

	left, right := halves(items)
	a, b := sim.Join(j,
		func() R { return mapReduce(j, left, mapFn, reduceFn, identity) },
		func() R { return mapReduce(j, right, mapFn, reduceFn, identity) },
	)
	return reduceFn(a, b)
}

// MapReduceAsync is MapReduce over suspension-capable map and reduce
// functions. With CombineConcurrent the whole tree runs on the caller's unit
// (concurrent, not parallel); CombineSpawned spawns every branch as its own
// stealable unit.
func MapReduceAsync[T, R any](
	t *pool.Task,
	c Combine,
	items []T,
	mapFn func(*pool.Task, *T) R,
	reduceFn func(*pool.Task, R, R) R,
	identity func(*pool.Task) R,
) R {
	switch len(items) {
	case 0:
		return identity(t)
	case 1:
		return mapFn(t, &items[0])
	}

	left, right := halves(items)
	a, b := joinTasks(t, c,
		func(t *pool.Task) R { return MapReduceAsync(t, c, left, mapFn, reduceFn, identity) },
		func(t *pool.Task) R { return MapReduceAsync(t, c, right, mapFn, reduceFn, identity) },
	)
	return reduceFn(t, a, b)
}

// halves splits s at its midpoint into two disjoint views covering all of s.
func halves[T any](s []T) (left, right []T) {
	mid := len(s) / 2
	return s[:mid:mid], s[mid:]
}
