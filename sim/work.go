package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/inference-sim/latency-hiding-sim/sim/pool"
)

var (
	// ErrInvalidProbability is returned for latency probabilities outside [0.0, 1.0].
	ErrInvalidProbability = errors.New("latency probability must be in [0.0, 1.0]")
	// ErrMissingDuration is returned when a latency probability is given without a work duration.
	ErrMissingDuration = errors.New("latency probability requires a work duration")
	// ErrNegativeDuration is returned for negative work durations.
	ErrNegativeDuration = errors.New("work duration must be non-negative")
)

// WorkKind tags the simulated work a leaf performs.
type WorkKind int

const (
	// WorkNone does nothing.
	WorkNone WorkKind = iota
	// WorkPureLatency always injects latency.
	WorkPureLatency
	// WorkLatencyOrCompute injects latency with probability p, otherwise computes.
	WorkLatencyOrCompute
)

func (k WorkKind) String() string {
	switch k {
	case WorkNone:
		return "none"
	case WorkPureLatency:
		return "pure-latency"
	case WorkLatencyOrCompute:
		return "latency-or-compute"
	default:
		return fmt.Sprintf("WorkKind(%d)", int(k))
	}
}

// WorkSpec describes the simulated work, if any, performed at each leaf of a
// computation. The zero value is WorkNone. Immutable once constructed.
type WorkSpec struct {
	kind     WorkKind
	duration time.Duration
	latencyP float64
}

// NoWork returns a WorkSpec that does nothing.
func NoWork() WorkSpec {
	return WorkSpec{kind: WorkNone}
}

// PureLatency returns a WorkSpec that always injects latency d.
func PureLatency(d time.Duration) (WorkSpec, error) {
	if d < 0 {
		return WorkSpec{}, fmt.Errorf("%w, got %v", ErrNegativeDuration, d)
	}
	return WorkSpec{kind: WorkPureLatency, duration: d}, nil
}

// LatencyOrCompute returns a WorkSpec that, per leaf, injects latency d with
// probability p and otherwise busy-computes for d.
func LatencyOrCompute(d time.Duration, p float64) (WorkSpec, error) {
	if d < 0 {
		return WorkSpec{}, fmt.Errorf("%w, got %v", ErrNegativeDuration, d)
	}
	if err := ValidateProbability(p); err != nil {
		return WorkSpec{}, err
	}
	return WorkSpec{kind: WorkLatencyOrCompute, duration: d, latencyP: p}, nil
}

// NewWorkSpec builds a WorkSpec from optional parts:
//
//	d == nil, p == nil  -> WorkNone
//	d != nil, p == nil  -> WorkPureLatency(d)
//	d != nil, p != nil  -> WorkLatencyOrCompute(d, p)
//	d == nil, p != nil  -> ErrMissingDuration
func NewWorkSpec(d *time.Duration, p *float64) (WorkSpec, error) {
	switch {
	case d == nil && p == nil:
		return NoWork(), nil
	case d == nil:
		return WorkSpec{}, ErrMissingDuration
	case p == nil:
		return PureLatency(*d)
	default:
		return LatencyOrCompute(*d, *p)
	}
}

// ValidateProbability checks that p is a probability in [0.0, 1.0].
func ValidateProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w, got %v", ErrInvalidProbability, p)
	}
	return nil
}

func (w WorkSpec) Kind() WorkKind          { return w.kind }
func (w WorkSpec) Duration() time.Duration { return w.duration }
func (w WorkSpec) LatencyP() float64       { return w.latencyP }

func (w WorkSpec) String() string {
	switch w.kind {
	case WorkPureLatency:
		return fmt.Sprintf("pure-latency(%v)", w.duration)
	case WorkLatencyOrCompute:
		return fmt.Sprintf("latency-or-compute(%v, p=%.2f)", w.duration, w.latencyP)
	default:
		return "none"
	}
}

// Do performs the leaf work under strategy j. Under a pooled strategy the
// caller must be running on j's pool (see Run).
// The compute path busy-waits and never yields its worker.
func (w WorkSpec) Do(j Joiner) {
	switch w.kind {
	case WorkPureLatency:
		InjectLatency(j, w.duration)
	case WorkLatencyOrCompute:
		if IncursLatency(w.latencyP) {
			InjectLatency(j, w.duration)
		} else {
			BusyWait(w.duration)
		}
	}
}

// DoTask performs the leaf work inside a suspension-capable unit. Latency
// always suspends the member; compute busy-waits on its worker.
func (w WorkSpec) DoTask(t *pool.Task) {
	switch w.kind {
	case WorkPureLatency:
		t.Sleep(w.duration)
	case WorkLatencyOrCompute:
		if IncursLatency(w.latencyP) {
			t.Sleep(w.duration)
		} else {
			BusyWait(w.duration)
		}
	}
}

// InjectLatency simulates an I/O delay of d. Latency-hiding strategies
// suspend and hand the worker back to the scheduler; all others block it.
// Like Do, it must run inside a pooled strategy's pool.
func InjectLatency(j Joiner, d time.Duration) {
	pj, ok := j.(pooled)
	switch {
	case ok && j.IsLatencyHiding():
		pj.Pool().Suspend(d)
	case ok:
		pj.Pool().Block(d)
	default:
		time.Sleep(d)
	}
}

// BusyWait spins for d, simulating CPU-bound work.
func BusyWait(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}
