package cmd

import (
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
	"github.com/inference-sim/latency-hiding-sim/sim/workload"
)

// Map-reduce example kinds.
const (
	mapReducePlayers = "players"
	mapReduceFib     = "fib"
)

var (
	mapReduceKind    string // players | fib
	mapReduceLen     int    // Number of items
	mapReduceFibN    uint32 // Inner fib index for the fib kind
	mapReduceCutoff  uint32 // Serial cutoff for the inner fib
	mapReduceCombine string // Task combinator for players (empty = Join-based strategies)
)

type mapReduceOutcome struct {
	Result  string
	Elapsed time.Duration
}

type mapReduceOptions struct {
	kind    string
	n       int
	fibN    uint32
	cutoff  uint32
	combine string
}

// runMapReduce runs one map-reduce example under j. The players kind with a
// combinator runs its Task variant on p, which then must be non-nil.
func runMapReduce(j sim.Joiner, p *pool.Pool, rng *sim.PartitionedRNG, work sim.WorkSpec, opts mapReduceOptions) (mapReduceOutcome, error) {
	if opts.n < 0 {
		return mapReduceOutcome{}, fmt.Errorf("item count must be non-negative, got %d", opts.n)
	}
	var result string
	start := time.Now()
	switch opts.kind {
	case mapReduceFib:
		if opts.combine != "" {
			return mapReduceOutcome{}, fmt.Errorf("--combine is only supported for the players kind")
		}
		items := slices.Repeat([]uint32{opts.fibN}, opts.n)
		result = fmt.Sprintf("sum = %d", workload.MapReduceFib(j, items, &work, opts.cutoff))
	case mapReducePlayers:
		ids := workload.GenerateRandomIDs(rng.ForSubsystem(sim.SubsystemPlayers), opts.n)
		call := workload.RemoteCallFor(work)
		var best workload.Player
		if opts.combine != "" {
			c, err := workload.ParseCombine(opts.combine)
			if err != nil {
				return mapReduceOutcome{}, err
			}
			if p == nil {
				return mapReduceOutcome{}, fmt.Errorf("--combine requires a parallel strategy")
			}
			best = pool.BlockOn(p, func(t *pool.Task) workload.Player {
				return workload.BestPlayerAsync(t, c, call, ids)
			})
		} else {
			best = workload.BestPlayer(j, call, ids)
		}
		result = fmt.Sprintf("best player = %d (score %d)", best.ID, best.Score)
	default:
		return mapReduceOutcome{}, fmt.Errorf("unknown map-reduce kind %q; valid: players, fib", opts.kind)
	}
	return mapReduceOutcome{Result: result, Elapsed: time.Since(start)}, nil
}

var mapreduceCmd = &cobra.Command{
	Use:   "mapreduce",
	Short: "Run a map-reduce example (players or fib)",
	Run: func(cmd *cobra.Command, args []string) {
		work, err := workSpecFromFlags(cmd)
		if err != nil {
			logrus.Fatalf("Invalid work: %v", err)
		}
		j, p, err := joinerFromFlags()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("mapreduce kind=%s len=%d strategy=%s work=%s", mapReduceKind, mapReduceLen, sim.KindOf(j), work)

		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
		out, err := runMapReduce(j, p, rng, work, mapReduceOptions{
			kind:    mapReduceKind,
			n:       mapReduceLen,
			fibN:    mapReduceFibN,
			cutoff:  mapReduceCutoff,
			combine: mapReduceCombine,
		})
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("%s\nelapsed = %v\n", out.Result, out.Elapsed)
		finishRun(p)
	},
}

func init() {
	mapreduceCmd.Flags().StringVar(&mapReduceKind, "kind", mapReducePlayers, "Example to run (players, fib)")
	mapreduceCmd.Flags().IntVar(&mapReduceLen, "len", 1000, "Number of items")
	mapreduceCmd.Flags().Uint32Var(&mapReduceFibN, "fib-n", 20, "Inner Fibonacci index for the fib kind")
	mapreduceCmd.Flags().Uint32Var(&mapReduceCutoff, "serial-cutoff", 10, "Inner fib n at or below which recursion runs serially")
	mapreduceCmd.Flags().StringVar(&mapReduceCombine, "combine", "", "Players only: run the suspension-capable variant with this combinator (spawned, concurrent)")
}
