package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// === SimulationKey ===

// SimulationKey identifies the seed of a reproducible run. Inputs generated
// from the same key are identical; latency draws are reproducible per
// generator instance, but which worker draws which value depends on scheduling.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemWorkload is the RNG subsystem for input generation.
	// Uses master seed directly.
	SubsystemWorkload = "workload"

	// SubsystemPlayers is the RNG subsystem for player id generation.
	SubsystemPlayers = "players"
)

// SubsystemOracle returns the subsystem name for latency generator instance N.
func SubsystemOracle(id int64) string {
	return fmt.Sprintf("oracle_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemWorkload: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(deriveSeed(p.key, name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func deriveSeed(key SimulationKey, name string) int64 {
	if name == SubsystemWorkload {
		return int64(key)
	}
	return int64(key) ^ fnv1a64(name)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// === LatencyOracle ===

// LatencyOracle decides, per leaf, whether simulated work incurs latency.
//
// Each generator is owned by exactly one caller between Get and Put of the
// underlying sync.Pool, which keeps one cached instance per P. There is no
// shared mutable generator and no lock on the hot path.
type LatencyOracle struct {
	key       SimulationKey
	instances atomic.Int64
	rngs      sync.Pool
}

// NewLatencyOracle creates an oracle whose generator instances are seeded
// from key, one derived seed per instance.
func NewLatencyOracle(key SimulationKey) *LatencyOracle {
	o := &LatencyOracle{key: key}
	o.rngs.New = func() any {
		id := o.instances.Add(1) - 1
		return rand.New(rand.NewSource(deriveSeed(o.key, SubsystemOracle(id))))
	}
	return o
}

// IncursLatency returns true with probability p.
// IncursLatency(0) is always false and IncursLatency(1) is always true.
func (o *LatencyOracle) IncursLatency(p float64) bool {
	rng := o.rngs.Get().(*rand.Rand)
	r := rng.Float64()
	o.rngs.Put(rng)
	return r < p
}

var defaultOracle atomic.Pointer[LatencyOracle]

func init() {
	defaultOracle.Store(NewLatencyOracle(NewSimulationKey(time.Now().UnixNano())))
}

// SeedLatencyOracle replaces the process-wide oracle with one seeded from key.
func SeedLatencyOracle(key SimulationKey) {
	defaultOracle.Store(NewLatencyOracle(key))
}

// IncursLatency draws from the process-wide oracle.
func IncursLatency(p float64) bool {
	return defaultOracle.Load().IncursLatency(p)
}
