package cmd

import (
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/workload"
)

var (
	sortLen    int // Sequence length
	sortCutoff int // Serial cutoff for quicksort
)

type sortOutcome struct {
	Len     int
	Elapsed time.Duration
}

// runQuicksort sorts a generated sequence of n values under j and checks the result.
func runQuicksort(j sim.Joiner, rng *sim.PartitionedRNG, n int, work sim.WorkSpec, cutoff int) (sortOutcome, error) {
	if n < 0 {
		return sortOutcome{}, fmt.Errorf("sequence length must be non-negative, got %d", n)
	}
	if cutoff < 0 {
		return sortOutcome{}, fmt.Errorf("serial cutoff must be non-negative, got %d", cutoff)
	}
	v := workload.GenerateRandomSequence(rng.ForSubsystem(sim.SubsystemWorkload), n)

	start := time.Now()
	workload.QuicksortWithCutoff(j, v, &work, cutoff)
	elapsed := time.Since(start)

	if !slices.IsSorted(v) {
		return sortOutcome{}, fmt.Errorf("sequence of length %d is not sorted", n)
	}
	return sortOutcome{Len: n, Elapsed: elapsed}, nil
}

var quicksortCmd = &cobra.Command{
	Use:   "quicksort",
	Short: "Sort a random sequence with parallel quicksort",
	Run: func(cmd *cobra.Command, args []string) {
		work, err := workSpecFromFlags(cmd)
		if err != nil {
			logrus.Fatalf("Invalid work: %v", err)
		}
		j, p, err := joinerFromFlags()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("quicksort len=%d strategy=%s work=%s cutoff=%d", sortLen, sim.KindOf(j), work, sortCutoff)

		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
		out, err := runQuicksort(j, rng, sortLen, work, sortCutoff)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("sorted %d values\nelapsed = %v\n", out.Len, out.Elapsed)
		finishRun(p)
	},
}

func init() {
	quicksortCmd.Flags().IntVar(&sortLen, "len", 1_000_000, "Sequence length")
	quicksortCmd.Flags().IntVar(&sortCutoff, "serial-cutoff", workload.SerialCutoff, "Length at or below which a view is sorted directly")
}
