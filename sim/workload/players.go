package workload

import (
	"fmt"
	"math"
	"time"

	"github.com/inference-sim/latency-hiding-sim/sim"
	"github.com/inference-sim/latency-hiding-sim/sim/pool"
)

// Player is a player id and its predicted score.
type Player struct {
	ID    uint64
	Score int32
}

// IdentityPlayer is the reduction identity. It never wins against a real player.
var IdentityPlayer = Player{ID: math.MaxUint64, Score: math.MaxInt32}

// RemoteCall models a network round trip that happens with probability P and
// takes Latency when it does.
type RemoteCall struct {
	Latency time.Duration
	P       float64
}

// RemoteCallFor models a remote call on leaf work: pure latency always calls
// out, latency-or-compute calls out with the work's probability and no work
// never does.
func RemoteCallFor(work sim.WorkSpec) RemoteCall {
	switch work.Kind() {
	case sim.WorkPureLatency:
		return RemoteCall{Latency: work.Duration(), P: 1}
	case sim.WorkLatencyOrCompute:
		return RemoteCall{Latency: work.Duration(), P: work.LatencyP()}
	default:
		return RemoteCall{}
	}
}

// predictScore stands in for a remote score prediction.
func predictScore(id uint64) int32 {
	if id > math.MaxInt32/2 {
		panic(fmt.Sprintf("player id %d overflows its predicted score", id))
	}
	return int32(id * 2)
}

// pickWinner returns the higher-scoring player; ties keep a.
// The second return is false when the outcome needs no remote call.
func pickWinner(a, b Player) (winner Player, remote bool) {
	if a == IdentityPlayer && b == IdentityPlayer {
		panic("both players in reduction cannot be the identity")
	}
	if a == IdentityPlayer {
		return b, false
	}
	if b == IdentityPlayer {
		return a, false
	}
	if b.Score > a.Score {
		return b, true
	}
	return a, true
}

// MapPlayer scores one player id under strategy j. The remote call blocks or
// suspends depending on j.
func MapPlayer(j sim.Joiner, call RemoteCall, id *uint64) Player {
	var out Player
	sim.Run(j, func() { out = mapPlayer(j, call, id) })
	return out
}

func mapPlayer(j sim.Joiner, call RemoteCall, id *uint64) Player {
	if sim.IncursLatency(call.P) {
		sim.InjectLatency(j, call.Latency)
	}
	return Player{ID: *id, Score: predictScore(*id)}
}

// ReducePlayers returns the predicted winner of a and b under strategy j.
func ReducePlayers(j sim.Joiner, call RemoteCall, a, b Player) Player {
	var out Player
	sim.Run(j, func() { out = reducePlayers(j, call, a, b) })
	return out
}

func reducePlayers(j sim.Joiner, call RemoteCall, a, b Player) Player {
	winner, remote := pickWinner(a, b)
	if remote && sim.IncursLatency(call.P) {
		sim.InjectLatency(j, call.Latency)
	}
	return winner
}

// MapPlayerTask is MapPlayer inside a suspension-capable unit.
func MapPlayerTask(t *pool.Task, call RemoteCall, id *uint64) Player {
	if sim.IncursLatency(call.P) {
		t.Sleep(call.Latency)
	}
	return Player{ID: *id, Score: predictScore(*id)}
}

// ReducePlayersTask is ReducePlayers inside a suspension-capable unit.
func ReducePlayersTask(t *pool.Task, call RemoteCall, a, b Player) Player {
	winner, remote := pickWinner(a, b)
	if remote && sim.IncursLatency(call.P) {
		t.Sleep(call.Latency)
	}
	return winner
}

// BestPlayer finds the highest-scoring player among ids under strategy j.
func BestPlayer(j sim.Joiner, call RemoteCall, ids []uint64) Player {
	return MapReduce(j, ids,
		func(id *uint64) Player { return mapPlayer(j, call, id) },
		func(a, b Player) Player { return reducePlayers(j, call, a, b) },
		func() Player { return IdentityPlayer },
	)
}

// BestPlayerAsync is BestPlayer over suspension-capable units.
func BestPlayerAsync(t *pool.Task, c Combine, call RemoteCall, ids []uint64) Player {
	return MapReduceAsync(t, c, ids,
		func(t *pool.Task, id *uint64) Player { return MapPlayerTask(t, call, id) },
		func(t *pool.Task, a, b Player) Player { return ReducePlayersTask(t, call, a, b) },
		func(*pool.Task) Player { return IdentityPlayer },
	)
}
