package bench

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
	"github.com/inference-sim/latency-hiding-sim/sim/trace"
	"github.com/inference-sim/latency-hiding-sim/sim/workload"
)

// Runner executes a validated Sweep. Pools are created once per worker count
// and shared by every experiment that asks for that count.
type Runner struct {
	sweep *Sweep
	rng   *sim.PartitionedRNG
	pools map[int]*pool.Pool

	// OnPool, when set, is called once for every pool the runner creates.
	OnPool func(workers int, p *pool.Pool)
}

// NewRunner creates a runner for s. Inputs are generated from s.Seed.
func NewRunner(s *Sweep) *Runner {
	return &Runner{
		sweep: s,
		rng:   sim.NewPartitionedRNG(sim.NewSimulationKey(s.Seed)),
		pools: make(map[int]*pool.Pool),
	}
}

// Pools returns the pools created so far, keyed by requested worker count.
func (r *Runner) Pools() map[int]*pool.Pool {
	return r.pools
}

func (r *Runner) pool(workers int) (*pool.Pool, error) {
	if p, ok := r.pools[workers]; ok {
		return p, nil
	}
	p, err := pool.New(workers)
	if err != nil {
		return nil, err
	}
	r.pools[workers] = p
	if r.OnPool != nil {
		r.OnPool(workers, p)
	}
	return p, nil
}

// Run executes every experiment and returns the collected trace. Cancelling
// ctx stops the sweep between parameter points.
func (r *Runner) Run(ctx context.Context) (*trace.SweepTrace, error) {
	if err := r.sweep.Validate(); err != nil {
		return nil, err
	}
	st := trace.NewSweepTrace(r.sweep.Seed, r.sweep.Samples)
	for i := range r.sweep.Experiments {
		e := &r.sweep.Experiments[i]
		logrus.Infof("Running experiment %q (%s)", e.Name, e.Workload)
		if err := r.runExperiment(ctx, e, st); err != nil {
			return st, fmt.Errorf("experiment %q: %w", e.Name, err)
		}
	}
	return st, nil
}

func (r *Runner) runExperiment(ctx context.Context, e *Experiment, st *trace.SweepTrace) error {
	kinds, err := e.StrategyKinds()
	if err != nil {
		return err
	}
	works, err := e.WorkSpecs()
	if err != nil {
		return err
	}

	for _, size := range e.Sizes {
		in := r.newInput(e, size)
		for _, work := range works {
			for _, kind := range kinds {
				workers := e.WorkerCounts()
				if kind == sim.StrategySerial {
					workers = []int{0}
				}
				for _, w := range workers {
					if err := ctx.Err(); err != nil {
						return err
					}
					rec, err := r.runPoint(ctx, e, in, work, kind, w)
					if err != nil {
						return err
					}
					st.Record(rec)
				}
			}
		}
	}
	return nil
}

func (r *Runner) runPoint(ctx context.Context, e *Experiment, in input, work sim.WorkSpec, kind sim.StrategyKind, workers int) (trace.RunRecord, error) {
	var p *pool.Pool
	if kind != sim.StrategySerial {
		var err error
		if p, err = r.pool(workers); err != nil {
			return trace.RunRecord{}, err
		}
		workers = p.Workers()
	}
	j, err := sim.NewJoiner(kind, p)
	if err != nil {
		return trace.RunRecord{}, err
	}

	m, err := Measure(r.sweep.Samples, func() error {
		return RunConcurrent(ctx, e.ClientCount(), func(context.Context, int) error {
			in.run(j, &work)
			return nil
		})
	})
	if err != nil {
		return trace.RunRecord{}, err
	}
	logrus.Debugf("%s %s workers=%d size=%d work=%s: mean=%.0fus p99=%dus",
		e.Name, kind, workers, in.size, work, m.MeanUs, m.P99Us)

	return trace.RunRecord{
		Experiment: e.Name,
		Workload:   e.Workload,
		Strategy:   string(kind),
		Workers:    workers,
		Size:       in.size,
		Work:       work.String(),
		Samples:    m.Samples,
		MeanUs:     m.MeanUs,
		StddevUs:   m.StddevUs,
		P50Us:      m.P50Us,
		P99Us:      m.P99Us,
		MaxUs:      m.MaxUs,
	}, nil
}

// input is one generated workload instance. run must leave the instance
// reusable: workloads that mutate their input work on a copy.
type input struct {
	size int
	run  func(j sim.Joiner, work *sim.WorkSpec)
}

func (r *Runner) newInput(e *Experiment, size int) input {
	cutoff := e.SerialCutoff
	in := input{size: size}
	switch e.Workload {
	case WorkloadFib:
		in.run = func(j sim.Joiner, work *sim.WorkSpec) {
			workload.Fib(j, uint32(size), work, uint32(cutoff))
		}
	case WorkloadFibInterior:
		in.run = func(j sim.Joiner, work *sim.WorkSpec) {
			runFibInterior(j, uint32(size), workload.RemoteCallFor(*work))
		}
	case WorkloadQuicksort:
		if cutoff == 0 {
			cutoff = workload.SerialCutoff
		}
		seq := workload.GenerateRandomSequence(r.rng.ForSubsystem(sim.SubsystemWorkload), size)
		in.run = func(j sim.Joiner, work *sim.WorkSpec) {
			v := slices.Clone(seq)
			workload.QuicksortWithCutoff(j, v, work, cutoff)
		}
	case WorkloadMapReduceFib:
		items := slices.Repeat([]uint32{e.FibN}, size)
		in.run = func(j sim.Joiner, work *sim.WorkSpec) {
			v := slices.Clone(items)
			workload.MapReduceFib(j, v, work, uint32(cutoff))
		}
	case WorkloadPlayers:
		ids := workload.GenerateRandomIDs(r.rng.ForSubsystem(sim.SubsystemPlayers), size)
		in.run = func(j sim.Joiner, work *sim.WorkSpec) {
			v := slices.Clone(ids)
			workload.BestPlayer(j, workload.RemoteCallFor(*work), v)
		}
	}
	return in
}

// runFibInterior runs the interior-latency fib tree. Serial and Parallel walk
// it with blocking forks; latency hiding spawns every branch as its own unit.
func runFibInterior(j sim.Joiner, n uint32, call workload.RemoteCall) {
	lh, ok := j.(sim.ParallelLatencyHiding)
	if !ok {
		workload.FibInterior(j, n, call.Latency, call.P)
		return
	}
	pool.BlockOn(lh.Pool(), func(t *pool.Task) uint64 {
		v, _ := workload.FibLatencyHiding(t, n, call.Latency, call.P)
		return v
	})
}
