package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
)

var (
	// Global CLI flags
	seed        int64  // Seed for input generation and the latency oracle
	logLevel    string // Log verbosity level
	workers     int    // Worker slots for parallel strategies (0 = one per CPU)
	metricsFile string // Prometheus textfile written after the run (empty = disabled)

	// Flags shared by the single-run commands
	strategyName string  // serial | parallel | latency-hiding (or s | p | l)
	workMs       float64 // Leaf work duration in milliseconds
	latencyP     float64 // Probability that leaf work is latency rather than compute
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "lhsim",
	Short: "Divide-and-conquer workloads under serial, parallel and latency-hiding strategies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		sim.SeedLatencyOracle(sim.NewSimulationKey(seed))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// workSpecFromFlags builds the leaf work from --work-ms and --latency-p.
// An unset --work-ms means no work; an unset --latency-p means pure latency.
func workSpecFromFlags(cmd *cobra.Command) (sim.WorkSpec, error) {
	var d *time.Duration
	var p *float64
	if cmd.Flags().Changed("work-ms") {
		v := time.Duration(workMs * float64(time.Millisecond))
		d = &v
	}
	if cmd.Flags().Changed("latency-p") {
		p = &latencyP
	}
	return sim.NewWorkSpec(d, p)
}

// joinerFromFlags resolves --strategy and creates the pool it runs on.
// The pool is nil for the serial strategy.
func joinerFromFlags() (sim.Joiner, *pool.Pool, error) {
	kind, err := sim.ParseStrategy(strategyName)
	if err != nil {
		return nil, nil, err
	}
	if kind == sim.StrategySerial {
		return sim.Serial{}, nil, nil
	}
	p, err := pool.New(workers)
	if err != nil {
		return nil, nil, err
	}
	j, err := sim.NewJoiner(kind, p)
	return j, p, err
}

// writeMetrics exports the stats of pools, labelled by worker count, to path
// in the Prometheus text format.
func writeMetrics(path string, pools map[int]*pool.Pool) error {
	reg := prometheus.NewRegistry()
	for requested, p := range pools {
		labels := prometheus.Labels{"workers_requested": strconv.Itoa(requested)}
		if err := prometheus.WrapRegistererWith(labels, reg).Register(pool.NewCollector(p)); err != nil {
			return fmt.Errorf("registering pool metrics: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// finishRun writes the metrics file if requested. p may be nil.
func finishRun(p *pool.Pool) {
	if metricsFile == "" {
		return
	}
	pools := map[int]*pool.Pool{}
	if p != nil {
		pools[workers] = p
	}
	if err := writeMetrics(metricsFile, pools); err != nil {
		logrus.Fatalf("%v", err)
	}
	logrus.Infof("Pool metrics written to %s", metricsFile)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&strategyName, "strategy", "latency-hiding", "Execution strategy (serial, parallel, latency-hiding; or s, p, l)")
	cmd.Flags().Float64Var(&workMs, "work-ms", 0, "Leaf work duration in milliseconds (unset = no work)")
	cmd.Flags().Float64Var(&latencyP, "latency-p", 0, "Probability that leaf work is latency rather than compute (unset = always latency)")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Seed for input generation and the latency oracle")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Worker slots for parallel strategies (0 = one per CPU)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write pool metrics in Prometheus text format to this file")

	for _, c := range []*cobra.Command{fibCmd, quicksortCmd, mapreduceCmd} {
		addRunFlags(c)
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(sweepCmd)
}
