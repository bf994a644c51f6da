// Package bench runs parameter sweeps of the divide-and-conquer workloads and
// measures them.
package bench

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/latency-hiding-sim/sim"
)

// Workload names accepted in sweep files.
const (
	WorkloadFib          = "fib"
	WorkloadFibInterior  = "fib-interior"
	WorkloadQuicksort    = "quicksort"
	WorkloadMapReduceFib = "mapreduce-fib"
	WorkloadPlayers      = "players"
)

var validWorkloads = map[string]bool{
	WorkloadFib:          true,
	WorkloadFibInterior:  true,
	WorkloadQuicksort:    true,
	WorkloadMapReduceFib: true,
	WorkloadPlayers:      true,
}

// Sweep is a benchmark sweep loaded from YAML.
type Sweep struct {
	Seed        int64        `yaml:"seed"`
	Samples     int          `yaml:"samples"`
	Experiments []Experiment `yaml:"experiments"`
}

// Experiment is the cross product of its parameter lists for one workload.
type Experiment struct {
	Name         string    `yaml:"name"`
	Workload     string    `yaml:"workload"`
	Strategies   []string  `yaml:"strategies,omitempty"` // empty: all three
	Workers      []int     `yaml:"workers,omitempty"`    // empty: [0], one slot per CPU
	Sizes        []int     `yaml:"sizes"`                // fib n, sequence length or item count
	SerialCutoff int       `yaml:"serial_cutoff"`        // 0 splits all the way down; quicksort 0 uses the default
	FibN         uint32    `yaml:"fib_n"`                // inner n for mapreduce-fib
	Clients      int       `yaml:"clients,omitempty"`    // concurrent instances per sample; 0 means 1
	WorkMs       []float64 `yaml:"work_ms,omitempty"`    // 0 or empty: no work
	LatencyP     []float64 `yaml:"latency_p,omitempty"`  // empty: pure latency
}

// LoadSweep reads and parses a YAML sweep file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSweep(path string) (*Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep: %w", err)
	}
	return ParseSweep(data)
}

// ParseSweep decodes a YAML sweep strictly. It does not validate.
func ParseSweep(data []byte) (*Sweep, error) {
	var s Sweep
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing sweep: %w", err)
	}
	return &s, nil
}

// Validate checks every field of the sweep.
func (s *Sweep) Validate() error {
	if s.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", s.Samples)
	}
	if len(s.Experiments) == 0 {
		return fmt.Errorf("at least one experiment required")
	}
	names := make(map[string]bool, len(s.Experiments))
	for i := range s.Experiments {
		e := &s.Experiments[i]
		if err := e.validate(i); err != nil {
			return err
		}
		if names[e.Name] {
			return fmt.Errorf("experiment[%d]: duplicate name %q", i, e.Name)
		}
		names[e.Name] = true
	}
	return nil
}

func (e *Experiment) validate(idx int) error {
	prefix := fmt.Sprintf("experiment[%d]", idx)
	if e.Name == "" {
		return fmt.Errorf("%s: name required", prefix)
	}
	prefix = fmt.Sprintf("experiment %q", e.Name)
	if !validWorkloads[e.Workload] {
		return fmt.Errorf("%s: unknown workload %q; valid: fib, fib-interior, quicksort, mapreduce-fib, players", prefix, e.Workload)
	}
	for _, name := range e.Strategies {
		if !sim.IsValidStrategy(name) {
			return fmt.Errorf("%s: unknown strategy %q", prefix, name)
		}
	}
	for _, w := range e.Workers {
		if w < 0 {
			return fmt.Errorf("%s: workers must be non-negative, got %d", prefix, w)
		}
	}
	if len(e.Sizes) == 0 {
		return fmt.Errorf("%s: at least one size required", prefix)
	}
	for _, n := range e.Sizes {
		if n < 0 {
			return fmt.Errorf("%s: sizes must be non-negative, got %d", prefix, n)
		}
	}
	if e.SerialCutoff < 0 {
		return fmt.Errorf("%s: serial_cutoff must be non-negative, got %d", prefix, e.SerialCutoff)
	}
	if e.Clients < 0 {
		return fmt.Errorf("%s: clients must be non-negative, got %d", prefix, e.Clients)
	}
	for _, ms := range e.WorkMs {
		if ms < 0 {
			return fmt.Errorf("%s: work_ms must be non-negative, got %g", prefix, ms)
		}
	}
	if len(e.LatencyP) > 0 && len(e.WorkMs) == 0 {
		return fmt.Errorf("%s: latency_p set without work_ms: %w", prefix, sim.ErrMissingDuration)
	}
	for _, p := range e.LatencyP {
		if err := sim.ValidateProbability(p); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	}
	return nil
}

// StrategyKinds resolves the experiment's strategies, defaulting to all three.
func (e *Experiment) StrategyKinds() ([]sim.StrategyKind, error) {
	if len(e.Strategies) == 0 {
		return []sim.StrategyKind{sim.StrategySerial, sim.StrategyParallel, sim.StrategyLatencyHiding}, nil
	}
	kinds := make([]sim.StrategyKind, 0, len(e.Strategies))
	for _, name := range e.Strategies {
		k, err := sim.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// WorkerCounts returns the experiment's worker counts, defaulting to [0].
func (e *Experiment) WorkerCounts() []int {
	if len(e.Workers) == 0 {
		return []int{0}
	}
	return e.Workers
}

// ClientCount returns the number of concurrent instances per sample.
func (e *Experiment) ClientCount() int {
	return max(e.Clients, 1)
}

// WorkSpecs expands work_ms × latency_p into work specs. A zero duration
// yields a single NoWork entry however many probabilities are listed.
func (e *Experiment) WorkSpecs() ([]sim.WorkSpec, error) {
	if len(e.WorkMs) == 0 {
		return []sim.WorkSpec{sim.NoWork()}, nil
	}
	var specs []sim.WorkSpec
	for _, ms := range e.WorkMs {
		if ms == 0 {
			specs = append(specs, sim.NoWork())
			continue
		}
		d := time.Duration(ms * float64(time.Millisecond))
		if len(e.LatencyP) == 0 {
			w, err := sim.PureLatency(d)
			if err != nil {
				return nil, err
			}
			specs = append(specs, w)
			continue
		}
		for _, p := range e.LatencyP {
			w, err := sim.LatencyOrCompute(d, p)
			if err != nil {
				return nil, err
			}
			specs = append(specs, w)
		}
	}
	return specs, nil
}
