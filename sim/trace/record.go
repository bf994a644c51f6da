// Package trace records the outcome of benchmark sweeps and summarizes them.
// It has no dependencies on sim/ or sim/bench/ and stores pure data types.
package trace

// RunRecord captures the timing of one parameter point of a sweep: a single
// workload under one strategy, sampled repeatedly.
type RunRecord struct {
	Experiment string  `yaml:"experiment"`
	Workload   string  `yaml:"workload"`
	Strategy   string  `yaml:"strategy"`
	Workers    int     `yaml:"workers"` // 0 for serial runs
	Size       int     `yaml:"size"`
	Work       string  `yaml:"work"` // rendered work spec, e.g. "latency-or-compute(1ms, p=0.5)"
	Samples    int     `yaml:"samples"`
	MeanUs     float64 `yaml:"mean_us"`
	StddevUs   float64 `yaml:"stddev_us"`
	P50Us      int64   `yaml:"p50_us"`
	P99Us      int64   `yaml:"p99_us"`
	MaxUs      int64   `yaml:"max_us"`
}

// baselineKey identifies the serial run a record is compared against.
// Worker count is not part of it: serial runs ignore the pool.
type baselineKey struct {
	experiment string
	size       int
	work       string
}

func (r RunRecord) baselineKey() baselineKey {
	return baselineKey{experiment: r.Experiment, size: r.Size, work: r.Work}
}
