// Package sim provides the strategy-parameterized core for divide-and-conquer
// latency experiments.
//
// # Reading Guide
//
// Start with these three files:
//   - strategy.go: the Joiner execution strategies (Serial, Parallel,
//     ParallelLatencyHiding) consulted at every fork point
//   - work.go: WorkSpec, the simulated work a leaf performs, and
//     InjectLatency, which blocks or suspends depending on the strategy
//   - rng.go: the per-worker latency oracle and seeded input RNGs
//
// # Architecture
//
// The sim package defines the strategy and work abstractions; the rest lives
// in sub-packages:
//   - sim/pool/: the work-stealing engine (worker slots, Join, Suspend, Task)
//   - sim/workload/: Fibonacci, Quicksort and Map-Reduce over any Joiner
//   - sim/bench/: sweep configuration, sampling and statistics
//   - sim/trace/: run records and speedup summaries
//
// The experiment: under identical simulated latency, does suspending a worker
// (ParallelLatencyHiding) beat blocking it (Parallel)?
package sim
