package workload

import "github.com/inference-sim/latency-hiding-sim/sim"

// fibReduceModulus keeps FibReduce sums bounded.
const fibReduceModulus = 1_000_000_000

// FibMap performs the leaf work, then computes fib(n) under j with no inner
// work. The result is truncated to 32 bits.
func FibMap(j sim.Joiner, n uint32, work *sim.WorkSpec, serialCutoff uint32) uint32 {
	var out uint32
	sim.Run(j, func() { out = fibMap(j, n, work, serialCutoff) })
	return out
}

func fibMap(j sim.Joiner, n uint32, work *sim.WorkSpec, serialCutoff uint32) uint32 {
	work.Do(j)

	none := sim.NoWork()
	v, _ := fib(j, n, &none, serialCutoff)
	return uint32(v)
}

// FibReduce adds with 32-bit wraparound, then reduces modulo 1e9.
// Commutative, and associative while the sums do not wrap.
func FibReduce(a, b uint32) uint32 {
	return (a + b) % fibReduceModulus
}

// FibIdentity is the identity for FibReduce.
func FibIdentity() uint32 {
	return 0
}

// MapReduceFib maps every n in input to fib(n) and sums the results.
func MapReduceFib(j sim.Joiner, input []uint32, work *sim.WorkSpec, serialCutoff uint32) uint32 {
	return MapReduce(j, input,
		func(n *uint32) uint32 { return fibMap(j, *n, work, serialCutoff) },
		FibReduce,
		FibIdentity,
	)
}
