package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/latency-hiding-sim/sim/bench"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
	"github.com/inference-sim/latency-hiding-sim/sim/trace"
)

var (
	sweepConfig string // Path to the sweep YAML
	sweepOutput string // Path for YAML results (empty = no file)
)

// runSweep validates and executes s, returning its trace and the pools it
// created.
func runSweep(ctx context.Context, s *bench.Sweep) (*trace.SweepTrace, map[int]*pool.Pool, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid sweep: %w", err)
	}
	r := bench.NewRunner(s)
	r.OnPool = func(workers int, p *pool.Pool) {
		logrus.Debugf("Created pool with %d worker slots (requested %d)", p.Workers(), workers)
	}
	st, err := r.Run(ctx)
	return st, r.Pools(), err
}

// renderSummary formats speedups against serial as a table, in record order.
func renderSummary(summary *trace.SweepSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("experiment", "strategy", "workers", "size", "work", "mean (us)", "serial (us)", "speedup")
	for _, row := range summary.Rows {
		r := row.Record
		t.Row(
			r.Experiment,
			r.Strategy,
			strconv.Itoa(r.Workers),
			strconv.Itoa(r.Size),
			r.Work,
			fmt.Sprintf("%.0f", r.MeanUs),
			fmt.Sprintf("%.0f", row.SerialMeanUs),
			fmt.Sprintf("%.2fx", row.Speedup),
		)
	}

	out := t.String() + "\n"
	strategies := make([]string, 0, len(summary.MeanSpeedup))
	for s := range summary.MeanSpeedup {
		strategies = append(strategies, s)
	}
	slices.Sort(strategies)
	for _, s := range strategies {
		out += fmt.Sprintf("%s: mean speedup %.2fx, best %.2fx\n", s, summary.MeanSpeedup[s], summary.BestSpeedup[s])
	}
	if summary.Unmatched > 0 {
		out += fmt.Sprintf("%d runs had no serial baseline\n", summary.Unmatched)
	}
	return out
}

// writeTrace writes st as YAML to path.
func writeTrace(path string, st *trace.SweepTrace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	if err := st.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a benchmark sweep from a YAML file and report speedups over serial",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := bench.LoadSweep(sweepConfig)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if cmd.Flags().Changed("seed") {
			logrus.Infof("CLI --seed %d overrides sweep seed %d", seed, s.Seed)
			s.Seed = seed
		}

		st, pools, err := runSweep(cmd.Context(), s)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		if sweepOutput != "" {
			if err := writeTrace(sweepOutput, st); err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Results written to %s", sweepOutput)
		}
		printSummary(os.Stdout, trace.Summarize(st))

		if metricsFile != "" {
			if err := writeMetrics(metricsFile, pools); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
	},
}

func printSummary(w io.Writer, summary *trace.SweepSummary) {
	_, _ = fmt.Fprintf(w, "=== Sweep Summary (%d runs, %d serial baselines) ===\n", summary.TotalRuns, summary.Baselines)
	_, _ = io.WriteString(w, renderSummary(summary))
}

func init() {
	sweepCmd.Flags().StringVar(&sweepConfig, "config", "", "Path to the sweep YAML file")
	sweepCmd.Flags().StringVar(&sweepOutput, "output", "", "Write YAML results to this file")
	_ = sweepCmd.MarkFlagRequired("config")
}
