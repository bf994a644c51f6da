// Package pool is the work-stealing execution engine the sim strategies fork onto.
//
// Go's own scheduler parks any sleeping goroutine, so on its own it would hide
// every simulated latency. The pool instead models a fixed set of worker threads
// as slots (a weighted semaphore): every goroutine executing pool work holds
// exactly one slot. Blocking keeps the slot for the whole delay; suspending
// hands it back to the scheduler and queues for a new one on wake-up.
//
// Two call styles are supported:
//   - Join: thread-parallel fork-join over plain closures (Install, Join,
//     Suspend, Block).
//   - Task: suspension-capable units (BlockOn, Spawn, Future.Await,
//     JoinAsync, Concurrently, Task.Sleep). See task.go.
package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Pool is a fixed-size set of worker slots.
//
// Thread-safety: all methods are safe for concurrent use. Join, Suspend and
// Block must be called from pool work (inside Install or a Task), because they
// release or keep the caller's slot.
type Pool struct {
	workers int
	slots   *semaphore.Weighted
	stats   counters
}

type counters struct {
	joins       atomic.Int64
	inlined     atomic.Int64
	stolen      atomic.Int64
	suspensions atomic.Int64
	blocks      atomic.Int64
	units       atomic.Int64
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers     int
	Joins       int64 // Join calls
	Inlined     int64 // second Join operands reclaimed and run by the caller
	Stolen      int64 // second Join operands run by an idle slot
	Suspensions int64 // Suspend and Task.Sleep calls
	Blocks      int64 // Block calls
	Units       int64 // suspension-capable units spawned
}

// New creates a pool with the given number of worker slots.
// workers == 0 uses runtime.GOMAXPROCS(0).
func New(workers int) (*Pool, error) {
	if workers < 0 {
		return nil, fmt.Errorf("worker count must be non-negative, got %d", workers)
	}
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logrus.Debugf("pool: created with %d worker slots", workers)
	return &Pool{
		workers: workers,
		slots:   semaphore.NewWeighted(int64(workers)),
	}, nil
}

// Workers returns the number of worker slots.
func (p *Pool) Workers() int {
	return p.workers
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:     p.workers,
		Joins:       p.stats.joins.Load(),
		Inlined:     p.stats.inlined.Load(),
		Stolen:      p.stats.stolen.Load(),
		Suspensions: p.stats.suspensions.Load(),
		Blocks:      p.stats.blocks.Load(),
		Units:       p.stats.units.Load(),
	}
}

// acquire waits for a free slot. The background context is never canceled,
// so Acquire cannot fail.
func (p *Pool) acquire() {
	_ = p.slots.Acquire(context.Background(), 1)
}

func (p *Pool) release() {
	p.slots.Release(1)
}

// Install runs fn on a pool slot and returns once fn has returned.
// It is the entry point for code that forks with Join.
func (p *Pool) Install(fn func()) {
	p.acquire()
	defer p.release()
	fn()
}

// Join runs a and b, potentially in parallel, and returns when both are done.
// The caller runs a; b is published for any idle slot to steal. If nobody has
// taken b by the time a returns, the caller runs it inline. A panic in either
// operand is re-raised here after both have finished.
func (p *Pool) Join(a, b func()) {
	p.stats.joins.Add(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jb := &job{fn: b, done: make(chan struct{})}
	go p.steal(ctx, jb)

	panicA := catch(a)

	if jb.claim() {
		cancel() // withdraw the pending steal
		p.stats.inlined.Add(1)
		jb.run()
	} else {
		// b was stolen: give our slot to the scheduler until it finishes.
		p.release()
		<-jb.done
		p.acquire()
	}

	if panicA != nil {
		panic(panicA)
	}
	if jb.panicked != nil {
		panic(jb.panicked)
	}
}

// steal waits for an idle slot and runs j on it unless the owner got there first.
func (p *Pool) steal(ctx context.Context, j *job) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return
	}
	defer p.release()
	if !j.claim() {
		return
	}
	p.stats.stolen.Add(1)
	j.run()
}

// Suspend releases the caller's slot for d, then re-queues for a slot.
// The slot is free to run other stolen work in the meantime.
func (p *Pool) Suspend(d time.Duration) {
	p.stats.suspensions.Add(1)
	p.release()
	time.Sleep(d)
	p.acquire()
}

// Block sleeps for d while holding the caller's slot, making it unavailable
// to the scheduler.
func (p *Pool) Block(d time.Duration) {
	p.stats.blocks.Add(1)
	time.Sleep(d)
}

const (
	jobPending int32 = iota
	jobClaimed
)

// job is a stealable Join operand. Exactly one of the owner and the stealer
// wins claim().
type job struct {
	fn       func()
	state    atomic.Int32
	done     chan struct{}
	panicked any
}

func (j *job) claim() bool {
	return j.state.CompareAndSwap(jobPending, jobClaimed)
}

func (j *job) run() {
	defer close(j.done)
	j.panicked = catch(j.fn)
}

// catch runs fn and returns the recovered panic value, if any.
func catch(fn func()) (panicked any) {
	defer func() {
		panicked = recover()
	}()
	fn()
	return nil
}
