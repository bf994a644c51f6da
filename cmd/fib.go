package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
	"github.com/inference-sim/latency-hiding-sim/sim/workload"
)

var (
	fibN       uint32 // Fibonacci index
	fibCutoff  uint32 // Serial cutoff for fib
	fibCombine string // Task combinator (empty = Join-based strategies)
	fibVariant string // Call tree variant
)

// Fib call tree variants.
const (
	fibClassic       = "classic"
	fibInterior      = "interior"
	fibLatencyHiding = "latency-hiding"
	fibSingleUnit    = "single-unit"
)

type fibOutcome struct {
	Value   uint64
	Calls   uint64
	Elapsed time.Duration
}

type fibOptions struct {
	n       uint32
	cutoff  uint32
	combine string
	variant string
}

// runFib computes fib(n) under j. The classic variant with a combinator, and
// the latency-hiding and single-unit variants, run as units on p, which then
// must be non-nil. Every variant except classic draws its latency from work
// at interior nodes instead of leaves.
func runFib(j sim.Joiner, p *pool.Pool, work sim.WorkSpec, opts fibOptions) (fibOutcome, error) {
	var out fibOutcome
	variant := opts.variant
	if variant == "" {
		variant = fibClassic
	}
	if opts.combine != "" && variant != fibClassic {
		return out, fmt.Errorf("--combine is only supported for the %s variant", fibClassic)
	}
	if p == nil && (opts.combine != "" || variant == fibLatencyHiding || variant == fibSingleUnit) {
		return out, fmt.Errorf("variant %s requires a parallel strategy", variant)
	}
	call := workload.RemoteCallFor(work)

	start := time.Now()
	switch variant {
	case fibClassic:
		if opts.combine == "" {
			out.Value, out.Calls = workload.Fib(j, opts.n, &work, opts.cutoff)
			break
		}
		c, err := workload.ParseCombine(opts.combine)
		if err != nil {
			return out, err
		}
		out = pool.BlockOn(p, func(t *pool.Task) fibOutcome {
			v, k := workload.FibAsync(t, c, opts.n, &work)
			return fibOutcome{Value: v, Calls: k}
		})
	case fibInterior:
		out.Value, out.Calls = workload.FibInterior(j, opts.n, call.Latency, call.P)
	case fibLatencyHiding:
		out = pool.BlockOn(p, func(t *pool.Task) fibOutcome {
			v, k := workload.FibLatencyHiding(t, opts.n, call.Latency, call.P)
			return fibOutcome{Value: v, Calls: k}
		})
	case fibSingleUnit:
		if work.Kind() == sim.WorkLatencyOrCompute {
			return out, fmt.Errorf("variant %s takes pure latency only, got %s", variant, work)
		}
		var latency *time.Duration
		if work.Kind() == sim.WorkPureLatency {
			d := work.Duration()
			latency = &d
		}
		out = pool.BlockOn(p, func(t *pool.Task) fibOutcome {
			v, k := workload.FibSingleUnit(t, opts.n, latency)
			return fibOutcome{Value: v, Calls: k}
		})
	default:
		return out, fmt.Errorf("unknown fib variant %q; valid: %s, %s, %s, %s",
			variant, fibClassic, fibInterior, fibLatencyHiding, fibSingleUnit)
	}
	out.Elapsed = time.Since(start)
	return out, nil
}

var fibCmd = &cobra.Command{
	Use:   "fib",
	Short: "Compute a Fibonacci number with the naive call tree",
	Run: func(cmd *cobra.Command, args []string) {
		work, err := workSpecFromFlags(cmd)
		if err != nil {
			logrus.Fatalf("Invalid work: %v", err)
		}
		j, p, err := joinerFromFlags()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("fib(%d) variant=%s strategy=%s work=%s cutoff=%d", fibN, fibVariant, sim.KindOf(j), work, fibCutoff)

		out, err := runFib(j, p, work, fibOptions{n: fibN, cutoff: fibCutoff, combine: fibCombine, variant: fibVariant})
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("fib(%d) = %d\ncalls = %d\nelapsed = %v\n", fibN, out.Value, out.Calls, out.Elapsed)
		finishRun(p)
	},
}

func init() {
	fibCmd.Flags().Uint32Var(&fibN, "n", 20, "Fibonacci index")
	fibCmd.Flags().Uint32Var(&fibCutoff, "serial-cutoff", 0, "n at or below which parallel recursion runs serially (0 = split all the way down)")
	fibCmd.Flags().StringVar(&fibCombine, "combine", "", "Run the suspension-capable classic tree with this combinator (spawned, concurrent)")
	fibCmd.Flags().StringVar(&fibVariant, "variant", fibClassic, "Call tree: classic (latency at leaves), interior (latency at interior nodes), latency-hiding (interior latency, spawned branches), single-unit (interior latency on one unit)")
}
