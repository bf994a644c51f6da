package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
	"github.com/inference-sim/latency-hiding-sim/sim/workload"
)

func TestRunFib_AllPaths(t *testing.T) {
	p, err := pool.New(2)
	require.NoError(t, err)
	none := sim.NoWork()

	out, err := runFib(sim.Serial{}, nil, none, fibOptions{n: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(55), out.Value)
	assert.Equal(t, uint64(89), out.Calls)

	out, err = runFib(sim.NewParallel(p), p, none, fibOptions{n: 10, cutoff: 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(55), out.Value)

	for _, c := range []string{"spawned", "concurrent"} {
		out, err = runFib(sim.NewParallelLatencyHiding(p), p, none, fibOptions{n: 10, combine: c})
		require.NoError(t, err)
		assert.Equal(t, uint64(55), out.Value, c)
		assert.Equal(t, uint64(89), out.Calls, c)
	}
}

func TestRunFib_InteriorVariantsCountEveryNode(t *testing.T) {
	// GIVEN latency at every interior node
	p, err := pool.New(2)
	require.NoError(t, err)
	work, err := sim.PureLatency(50 * time.Microsecond)
	require.NoError(t, err)

	for _, tc := range []struct {
		variant string
		j       sim.Joiner
	}{
		{fibInterior, sim.Serial{}},
		{fibInterior, sim.NewParallel(p)},
		{fibLatencyHiding, sim.NewParallelLatencyHiding(p)},
		{fibSingleUnit, sim.NewParallelLatencyHiding(p)},
	} {
		// WHEN fib(8) runs in each variant
		out, err := runFib(tc.j, p, work, fibOptions{n: 8, variant: tc.variant})

		// THEN the value is exact and calls cover all 67 nodes
		require.NoError(t, err, tc.variant)
		assert.Equal(t, uint64(21), out.Value, tc.variant)
		assert.Equal(t, uint64(67), out.Calls, tc.variant)
	}
}

func TestRunFib_LatencyHidingVariantSpawnsUnits(t *testing.T) {
	p, err := pool.New(2)
	require.NoError(t, err)
	work, err := sim.PureLatency(50 * time.Microsecond)
	require.NoError(t, err)

	_, err = runFib(sim.NewParallelLatencyHiding(p), p, work, fibOptions{n: 5, variant: fibLatencyHiding})
	require.NoError(t, err)

	// fib(5) has 7 interior nodes, each spawning two units under the root
	assert.Equal(t, int64(1+2*7), p.Stats().Units)
	assert.Equal(t, int64(7), p.Stats().Suspensions)
}

func TestRunFib_Errors(t *testing.T) {
	none := sim.NoWork()
	_, err := runFib(sim.Serial{}, nil, none, fibOptions{n: 5, combine: "spawned"})
	assert.Error(t, err)
	_, err = runFib(sim.Serial{}, nil, none, fibOptions{n: 5, variant: fibLatencyHiding})
	assert.Error(t, err)
	_, err = runFib(sim.Serial{}, nil, none, fibOptions{n: 5, variant: fibSingleUnit})
	assert.Error(t, err)

	p, err := pool.New(1)
	require.NoError(t, err)
	_, err = runFib(sim.NewParallel(p), p, none, fibOptions{n: 5, combine: "eager"})
	assert.Error(t, err)
	_, err = runFib(sim.NewParallel(p), p, none, fibOptions{n: 5, variant: "memoized"})
	assert.Error(t, err)
	_, err = runFib(sim.NewParallel(p), p, none, fibOptions{n: 5, variant: fibInterior, combine: "spawned"})
	assert.Error(t, err)

	loc, err := sim.LatencyOrCompute(time.Millisecond, 0.5)
	require.NoError(t, err)
	_, err = runFib(sim.NewParallel(p), p, loc, fibOptions{n: 5, variant: fibSingleUnit})
	assert.Error(t, err)
}

func TestRunQuicksort(t *testing.T) {
	p, err := pool.New(2)
	require.NoError(t, err)
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(1))

	out, err := runQuicksort(sim.NewParallel(p), rng, 20_000, sim.NoWork(), 64)
	require.NoError(t, err)
	assert.Equal(t, 20_000, out.Len)

	_, err = runQuicksort(sim.Serial{}, rng, -1, sim.NoWork(), 0)
	assert.Error(t, err)
	_, err = runQuicksort(sim.Serial{}, rng, 10, sim.NoWork(), -1)
	assert.Error(t, err)
}

func TestRunMapReduce_Fib(t *testing.T) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(1))
	out, err := runMapReduce(sim.Serial{}, nil, rng, sim.NoWork(), mapReduceOptions{kind: "fib", n: 5, fibN: 10})
	require.NoError(t, err)
	assert.Equal(t, "sum = 275", out.Result)

	_, err = runMapReduce(sim.Serial{}, nil, rng, sim.NoWork(), mapReduceOptions{kind: "fib", n: 5, combine: "spawned"})
	assert.Error(t, err)
}

func TestRunMapReduce_PlayersMatchesDirectCall(t *testing.T) {
	// GIVEN the same seed for the CLI path and a direct call
	ids := workload.GenerateRandomIDs(sim.NewPartitionedRNG(sim.NewSimulationKey(5)).ForSubsystem(sim.SubsystemPlayers), 50)
	best := workload.BestPlayer(sim.Serial{}, workload.RemoteCall{}, ids)
	want := "best player = " + itoa(best.ID) + " (score " + itoa(uint64(best.Score)) + ")"

	p, err := pool.New(2)
	require.NoError(t, err)
	for _, tc := range []struct {
		name    string
		j       sim.Joiner
		combine string
	}{
		{"serial", sim.Serial{}, ""},
		{"parallel", sim.NewParallel(p), ""},
		{"spawned", sim.NewParallelLatencyHiding(p), "spawned"},
		{"concurrent", sim.NewParallelLatencyHiding(p), "concurrent"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rng := sim.NewPartitionedRNG(sim.NewSimulationKey(5))
			out, err := runMapReduce(tc.j, p, rng, sim.NoWork(), mapReduceOptions{kind: "players", n: 50, combine: tc.combine})
			require.NoError(t, err)
			assert.Equal(t, want, out.Result)
		})
	}
}

func TestRunMapReduce_Errors(t *testing.T) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(1))
	_, err := runMapReduce(sim.Serial{}, nil, rng, sim.NoWork(), mapReduceOptions{kind: "words", n: 5})
	assert.Error(t, err)
	_, err = runMapReduce(sim.Serial{}, nil, rng, sim.NoWork(), mapReduceOptions{kind: "players", n: -1})
	assert.Error(t, err)
	_, err = runMapReduce(sim.Serial{}, nil, rng, sim.NoWork(), mapReduceOptions{kind: "players", n: 3, combine: "spawned"})
	assert.Error(t, err)
}
