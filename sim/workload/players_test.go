package workload

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/internal/testutil"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
)

var noCall = RemoteCall{}

func TestBestPlayer_HighestIDWins(t *testing.T) {
	ids := []uint64{4, 17, 3, 99, 42, 0}
	for _, s := range testutil.AllStrategies(t, 4) {
		t.Run(s.Name, func(t *testing.T) {
			got := BestPlayer(s.J, noCall, ids)
			assert.Equal(t, Player{ID: 99, Score: 198}, got)
		})
	}
}

func TestBestPlayer_EmptyIsIdentity(t *testing.T) {
	assert.Equal(t, IdentityPlayer, BestPlayer(sim.Serial{}, noCall, nil))
}

func TestBestPlayer_TiesKeepLeftmost(t *testing.T) {
	// Equal ids give equal scores; the reduction keeps the left operand.
	got := BestPlayer(sim.Serial{}, noCall, []uint64{5, 5, 5})
	assert.Equal(t, Player{ID: 5, Score: 10}, got)
}

func TestReducePlayers_IdentityIsNeutral(t *testing.T) {
	x := Player{ID: 3, Score: 6}
	assert.Equal(t, x, ReducePlayers(sim.Serial{}, noCall, IdentityPlayer, x))
	assert.Equal(t, x, ReducePlayers(sim.Serial{}, noCall, x, IdentityPlayer))
}

func TestReducePlayers_BothIdentityPanics(t *testing.T) {
	assert.Panics(t, func() {
		ReducePlayers(sim.Serial{}, noCall, IdentityPlayer, IdentityPlayer)
	})
}

func TestReducePlayers_IdentityNeedsNoRemoteCall(t *testing.T) {
	// GIVEN a remote call that always happens
	p, err := pool.New(1)
	require.NoError(t, err)
	j := sim.NewParallelLatencyHiding(p)
	call := RemoteCall{Latency: time.Millisecond, P: 1}

	// WHEN one side is the identity
	ReducePlayers(j, call, IdentityPlayer, Player{ID: 1, Score: 2})

	// THEN no latency was injected
	assert.Equal(t, int64(0), p.Stats().Suspensions)
}

func TestPredictScore_OverflowPanics(t *testing.T) {
	assert.Panics(t, func() { predictScore(math.MaxInt32) })
	assert.NotPanics(t, func() { predictScore(math.MaxInt32 / 2) })
}

func TestMapPlayer_CalledDirectlyOnOneWorker(t *testing.T) {
	// GIVEN a single-slot latency-hiding pool and a remote call that always happens
	p, err := pool.New(1)
	require.NoError(t, err)
	j := sim.NewParallelLatencyHiding(p)
	call := RemoteCall{Latency: 100 * time.Microsecond, P: 1}
	id := uint64(21)

	// WHEN the player is scored from outside the pool
	got := MapPlayer(j, call, &id)

	// THEN the call suspended on a held slot and the slot came back
	assert.Equal(t, Player{ID: 21, Score: 42}, got)
	assert.Equal(t, int64(1), p.Stats().Suspensions)
	assert.Equal(t, Player{ID: 99, Score: 198}, BestPlayer(j, call, []uint64{99, 1}))
}

func TestBestPlayer_LatencyHidingSuspendsOnRemoteCalls(t *testing.T) {
	// GIVEN every map and reduce making a remote call
	p, err := pool.New(2)
	require.NoError(t, err)
	j := sim.NewParallelLatencyHiding(p)
	call := RemoteCall{Latency: 200 * time.Microsecond, P: 1}
	ids := []uint64{1, 2, 3, 4, 5, 6, 7, 8}

	// WHEN the best player is found
	got := BestPlayer(j, call, ids)

	// THEN n maps and n-1 reduces suspended, none blocked
	assert.Equal(t, uint64(8), got.ID)
	assert.Equal(t, int64(2*len(ids)-1), p.Stats().Suspensions)
	assert.Equal(t, int64(0), p.Stats().Blocks)
}

func TestBestPlayer_ParallelBlocksOnRemoteCalls(t *testing.T) {
	p, err := pool.New(2)
	require.NoError(t, err)
	j := sim.NewParallel(p)
	call := RemoteCall{Latency: 200 * time.Microsecond, P: 1}

	BestPlayer(j, call, []uint64{1, 2, 3, 4})

	assert.Equal(t, int64(7), p.Stats().Blocks)
	assert.Equal(t, int64(0), p.Stats().Suspensions)
}

func TestBestPlayerAsync_MatchesSync(t *testing.T) {
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(3)).ForSubsystem(sim.SubsystemPlayers)
	ids := GenerateRandomIDs(rng, 200)
	want := BestPlayer(sim.Serial{}, noCall, ids)

	p, err := pool.New(4)
	require.NoError(t, err)
	for _, c := range []Combine{CombineSpawned, CombineConcurrent} {
		got := pool.BlockOn(p, func(t *pool.Task) Player {
			return BestPlayerAsync(t, c, noCall, ids)
		})
		assert.Equal(t, want, got, c)
	}
}

func TestBestPlayerAsync_ConcurrentHidesLatencyOnOneUnit(t *testing.T) {
	// GIVEN a single worker and a remote call on every map
	p, err := pool.New(1)
	require.NoError(t, err)
	const d = 20 * time.Millisecond
	call := RemoteCall{Latency: d, P: 1}
	ids := []uint64{1, 2, 3, 4, 5, 6, 7, 8}

	// WHEN branches interleave on one unit
	start := time.Now()
	pool.BlockOn(p, func(t *pool.Task) Player {
		return BestPlayerAsync(t, CombineConcurrent, call, ids)
	})
	elapsed := time.Since(start)

	// THEN the 15 remote calls (8 maps, 7 reduces) overlap level by level
	assert.Less(t, elapsed, 15*d/2)
}

func TestRemoteCallFor(t *testing.T) {
	assert.Zero(t, RemoteCallFor(sim.NoWork()))

	lat, err := sim.PureLatency(3 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, RemoteCall{Latency: 3 * time.Millisecond, P: 1}, RemoteCallFor(lat))

	loc, err := sim.LatencyOrCompute(3*time.Millisecond, 0.25)
	require.NoError(t, err)
	assert.Equal(t, RemoteCall{Latency: 3 * time.Millisecond, P: 0.25}, RemoteCallFor(loc))
}
