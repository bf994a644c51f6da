package bench

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
	"github.com/inference-sim/latency-hiding-sim/sim/trace"
)

func smallSweep() *Sweep {
	return &Sweep{
		Seed:    7,
		Samples: 2,
		Experiments: []Experiment{
			{Name: "fib", Workload: WorkloadFib, Workers: []int{1, 2}, Sizes: []int{8}},
			{Name: "qs", Workload: WorkloadQuicksort, Strategies: []string{"s", "l"}, Workers: []int{2}, Sizes: []int{300}, SerialCutoff: 16},
			{Name: "mrf", Workload: WorkloadMapReduceFib, Workers: []int{2}, Sizes: []int{6}, FibN: 10, Clients: 2},
			{Name: "players", Workload: WorkloadPlayers, Workers: []int{2}, Sizes: []int{20}, WorkMs: []float64{0.05}},
		},
	}
}

func TestRunner_RecordsEveryParameterPoint(t *testing.T) {
	// GIVEN a sweep over four workloads
	r := NewRunner(smallSweep())
	var created []int
	r.OnPool = func(workers int, _ *pool.Pool) { created = append(created, workers) }

	// WHEN run
	st, err := r.Run(context.Background())
	require.NoError(t, err)

	// THEN serial runs once per point and parallel strategies once per worker count
	// fib: 1 serial + 2 strategies × 2 worker counts; qs: 1 + 1; mrf: 1 + 2; players: 1 + 2
	assert.Len(t, st.Records, 5+2+3+3)
	assert.Equal(t, []int{1, 2}, created)
	assert.Len(t, r.Pools(), 2)

	for _, rec := range st.Records {
		assert.Equal(t, 2, rec.Samples)
		assert.Positive(t, rec.MeanUs, rec.Experiment)
		if rec.Strategy == string(sim.StrategySerial) {
			assert.Equal(t, 0, rec.Workers)
		} else {
			assert.Positive(t, rec.Workers)
		}
	}

	// AND every non-serial record has a baseline
	summary := trace.Summarize(st)
	assert.Equal(t, 0, summary.Unmatched)
	assert.Len(t, summary.Rows, len(st.Records)-4)
}

func TestRunner_PlayersWorkUsesRemoteCalls(t *testing.T) {
	s := &Sweep{Samples: 1, Experiments: []Experiment{
		{Name: "p", Workload: WorkloadPlayers, Strategies: []string{"latency-hiding"}, Workers: []int{2}, Sizes: []int{4}, WorkMs: []float64{0.05}},
	}}
	r := NewRunner(s)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	// 4 maps and 3 reduces, every one a remote call
	assert.Equal(t, int64(7), r.Pools()[2].Stats().Suspensions)
}

func TestRunner_FibInteriorSpawnsUnderLatencyHiding(t *testing.T) {
	// GIVEN an interior-latency fib under both pooled strategies
	s := &Sweep{Samples: 1, Experiments: []Experiment{
		{Name: "fi-p", Workload: WorkloadFibInterior, Strategies: []string{"parallel"}, Workers: []int{2}, Sizes: []int{6}, WorkMs: []float64{0.05}},
		{Name: "fi-l", Workload: WorkloadFibInterior, Strategies: []string{"latency-hiding"}, Workers: []int{3}, Sizes: []int{6}, WorkMs: []float64{0.05}},
	}}
	r := NewRunner(s)

	// WHEN run
	st, err := r.Run(context.Background())
	require.NoError(t, err)

	// THEN Parallel blocked at the 12 interior nodes of fib(6) with no units,
	// and latency hiding spawned both children of every interior node
	require.Len(t, st.Records, 2)
	par, lh := r.Pools()[2].Stats(), r.Pools()[3].Stats()
	assert.Equal(t, int64(12), par.Blocks)
	assert.Equal(t, int64(0), par.Units)
	assert.Equal(t, int64(12), lh.Suspensions)
	assert.Equal(t, int64(1+2*12), lh.Units)
}

func TestRunner_InvalidSweep(t *testing.T) {
	s := smallSweep()
	s.Samples = 0
	_, err := NewRunner(s).Run(context.Background())
	assert.Error(t, err)
}

func TestRunner_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st, err := NewRunner(smallSweep()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, st.Records)
}
