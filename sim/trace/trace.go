package trace

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SerialStrategy is the strategy name whose records serve as speedup baselines.
const SerialStrategy = "serial"

// SweepTrace collects run records during a sweep.
type SweepTrace struct {
	Seed    int64       `yaml:"seed"`
	Samples int         `yaml:"samples"`
	Records []RunRecord `yaml:"records"`
}

// NewSweepTrace creates a SweepTrace ready for recording.
func NewSweepTrace(seed int64, samples int) *SweepTrace {
	return &SweepTrace{
		Seed:    seed,
		Samples: samples,
		Records: make([]RunRecord, 0),
	}
}

// Record appends a run record.
func (st *SweepTrace) Record(record RunRecord) {
	st.Records = append(st.Records, record)
}

// WriteYAML encodes the trace as a YAML document.
func (st *SweepTrace) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("encoding sweep trace: %w", err)
	}
	return enc.Close()
}
