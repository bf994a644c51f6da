package workload

import (
	"fmt"

	"github.com/inference-sim/latency-hiding-sim/sim/pool"
)

// Combine selects how a suspension-capable workload forks its two branches.
type Combine string

const (
	// CombineSpawned spawns each branch as its own stealable unit, then awaits
	// both. Other workers can drive the tree while a branch is suspended.
	CombineSpawned Combine = "spawned"

	// CombineConcurrent runs both branches on the caller's unit. Branches
	// interleave at suspension points but never run in parallel, so
	// compute-bound work gains nothing over Serial.
	CombineConcurrent Combine = "concurrent"
)

// ParseCombine resolves a combinator name.
func ParseCombine(name string) (Combine, error) {
	switch Combine(name) {
	case CombineSpawned, CombineConcurrent:
		return Combine(name), nil
	default:
		return "", fmt.Errorf("unknown combinator %q; valid: spawned, concurrent", name)
	}
}

func joinTasks[A, B any](t *pool.Task, c Combine, a func(*pool.Task) A, b func(*pool.Task) B) (A, B) {
	if c == CombineConcurrent {
		return pool.Concurrently(t, a, b)
	}
	return pool.JoinAsync(t, a, b)
}
