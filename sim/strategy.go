package sim

import (
	"errors"
	"fmt"

	"github.com/inference-sim/latency-hiding-sim/sim/pool"
)

// ErrUnknownStrategy is returned for unrecognized strategy names.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Joiner is an execution strategy: the policy a recursive workload consults at
// every fork point. Implementations are immutable and safe to share across the
// whole call tree.
//
// No ordering is guaranteed between the two operands of Join except under Serial.
type Joiner interface {
	// IsParallel reports whether Join may run its operands in parallel.
	IsParallel() bool
	// IsLatencyHiding reports whether injected latency suspends instead of blocking.
	IsLatencyHiding() bool
	// Join runs a and b and returns once both have completed.
	Join(a, b func())
}

// Serial runs a then b on the caller.
type Serial struct{}

func (Serial) IsParallel() bool      { return false }
func (Serial) IsLatencyHiding() bool { return false }

func (Serial) Join(a, b func()) {
	a()
	b()
}

// Parallel forks onto a work-stealing pool. Injected latency blocks the worker.
type Parallel struct {
	pool *pool.Pool
}

// NewParallel creates a Parallel strategy on p.
func NewParallel(p *pool.Pool) Parallel {
	return Parallel{pool: p}
}

func (Parallel) IsParallel() bool      { return true }
func (Parallel) IsLatencyHiding() bool { return false }

func (s Parallel) Join(a, b func()) {
	s.pool.Join(a, b)
}

// Pool returns the pool the strategy forks onto.
func (s Parallel) Pool() *pool.Pool {
	return s.pool
}

// ParallelLatencyHiding forks exactly like Parallel, but injected latency
// cooperatively suspends so the worker can run other stolen work meanwhile.
type ParallelLatencyHiding struct {
	pool *pool.Pool
}

// NewParallelLatencyHiding creates a ParallelLatencyHiding strategy on p.
func NewParallelLatencyHiding(p *pool.Pool) ParallelLatencyHiding {
	return ParallelLatencyHiding{pool: p}
}

func (ParallelLatencyHiding) IsParallel() bool      { return true }
func (ParallelLatencyHiding) IsLatencyHiding() bool { return true }

func (s ParallelLatencyHiding) Join(a, b func()) {
	s.pool.Join(a, b)
}

// Pool returns the pool the strategy forks onto.
func (s ParallelLatencyHiding) Pool() *pool.Pool {
	return s.pool
}

// pooled is implemented by strategies backed by a worker pool.
type pooled interface {
	Pool() *pool.Pool
}

// Join runs a and b under j and returns both results.
func Join[A, B any](j Joiner, a func() A, b func() B) (A, B) {
	var (
		ra A
		rb B
	)
	j.Join(
		func() { ra = a() },
		func() { rb = b() },
	)
	return ra, rb
}

// StrategyKind names one of the three execution strategies.
type StrategyKind string

const (
	StrategySerial        StrategyKind = "serial"
	StrategyParallel      StrategyKind = "parallel"
	StrategyLatencyHiding StrategyKind = "latency-hiding"
)

// strategyAliases maps accepted CLI and YAML spellings to a strategy.
var strategyAliases = map[string]StrategyKind{
	"serial":         StrategySerial,
	"s":              StrategySerial,
	"parallel":       StrategyParallel,
	"p":              StrategyParallel,
	"latency-hiding": StrategyLatencyHiding,
	"l":              StrategyLatencyHiding,
}

// IsValidStrategy returns true if name is a recognized strategy spelling.
func IsValidStrategy(name string) bool {
	_, ok := strategyAliases[name]
	return ok
}

// ParseStrategy resolves a strategy name or its one-letter alias.
func ParseStrategy(name string) (StrategyKind, error) {
	kind, ok := strategyAliases[name]
	if !ok {
		return "", fmt.Errorf("%w %q; valid: serial (s), parallel (p), latency-hiding (l)", ErrUnknownStrategy, name)
	}
	return kind, nil
}

// NewJoiner builds the strategy for kind. Parallel strategies require a pool.
func NewJoiner(kind StrategyKind, p *pool.Pool) (Joiner, error) {
	switch kind {
	case StrategySerial:
		return Serial{}, nil
	case StrategyParallel, StrategyLatencyHiding:
		if p == nil {
			return nil, fmt.Errorf("strategy %q requires a worker pool", kind)
		}
		if kind == StrategyParallel {
			return NewParallel(p), nil
		}
		return NewParallelLatencyHiding(p), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, kind)
	}
}

// KindOf reports which strategy j behaves as.
func KindOf(j Joiner) StrategyKind {
	switch {
	case j.IsLatencyHiding():
		return StrategyLatencyHiding
	case j.IsParallel():
		return StrategyParallel
	default:
		return StrategySerial
	}
}

// Run executes fn under j. Pool-backed strategies run fn on a worker slot,
// which Join requires; Serial runs it on the caller. The workload entry points
// call Run themselves. Run must not be nested inside pool work: the inner call
// waits for a second slot.
func Run(j Joiner, fn func()) {
	if pj, ok := j.(pooled); ok {
		pj.Pool().Install(fn)
		return
	}
	fn()
}
