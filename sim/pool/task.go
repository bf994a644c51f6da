package pool

import "time"

// unit is one suspension-capable computation. Its members run one at a time:
// a member must hold the baton, and the baton holder is the only member that
// may hold a pool slot. A unit therefore never occupies more than one worker.
type unit struct {
	baton chan struct{}
}

func newUnit() *unit {
	return &unit{baton: make(chan struct{}, 1)}
}

// Task is the handle a suspension-capable computation runs with.
// Members started by Concurrently share their parent's Task; Spawn creates
// a new Task on a new unit.
type Task struct {
	pool *Pool
	unit *unit
}

// Pool returns the pool the task runs on.
func (t *Task) Pool() *Pool {
	return t.pool
}

func (t *Task) enter() {
	t.unit.baton <- struct{}{}
	t.pool.acquire()
}

func (t *Task) leave() {
	t.pool.release()
	<-t.unit.baton
}

// Sleep cooperatively suspends the calling member for d. Its worker slot is
// released for the duration; on expiry the member queues for a slot again and
// may resume on a different worker.
func (t *Task) Sleep(d time.Duration) {
	t.pool.stats.suspensions.Add(1)
	t.leave()
	time.Sleep(d)
	t.enter()
}

// Future is the result of a spawned unit.
type Future[R any] struct {
	done     chan struct{}
	val      R
	panicked any
}

// Await suspends the calling member until f completes and returns its value.
// A panic in the spawned unit is re-raised here.
func (f *Future[R]) Await(t *Task) R {
	select {
	case <-f.done:
	default:
		t.leave()
		<-f.done
		t.enter()
	}
	if f.panicked != nil {
		panic(f.panicked)
	}
	return f.val
}

// Spawn starts fn as a new, independently stealable unit. Any idle worker may
// pick it up, so spawned units run in parallel with the caller.
func Spawn[R any](t *Task, fn func(*Task) R) *Future[R] {
	return spawn(t.pool, fn)
}

func spawn[R any](p *Pool, fn func(*Task) R) *Future[R] {
	p.stats.units.Add(1)
	f := &Future[R]{done: make(chan struct{})}
	child := &Task{pool: p, unit: newUnit()}
	go func() {
		defer close(f.done)
		child.enter()
		defer child.leave()
		f.panicked = catch(func() {
			f.val = fn(child)
		})
	}()
	return f
}

// BlockOn runs fn as a root unit and blocks the calling goroutine until it
// completes. It must be called from outside the pool.
func BlockOn[R any](p *Pool, fn func(*Task) R) R {
	f := spawn(p, fn)
	<-f.done
	if f.panicked != nil {
		panic(f.panicked)
	}
	return f.val
}

// JoinAsync spawns a and b as separate stealable units, then awaits both.
// This is the parallel latency-hiding fork: while one branch sleeps, other
// workers keep driving the rest of the tree.
func JoinAsync[A, B any](t *Task, a func(*Task) A, b func(*Task) B) (A, B) {
	fa := Spawn(t, a)
	fb := Spawn(t, b)
	return fa.Await(t), fb.Await(t)
}

// Concurrently runs a and b as members of the caller's own unit. They
// interleave at suspension points but never run in parallel: no new stealable
// work is created, so no other worker can help. Use JoinAsync for parallelism.
func Concurrently[A, B any](t *Task, a func(*Task) A, b func(*Task) B) (A, B) {
	var (
		rb     B
		panicB any
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.enter()
		defer t.leave()
		panicB = catch(func() {
			rb = b(t)
		})
	}()

	var ra A
	panicA := catch(func() {
		ra = a(t)
	})

	t.leave()
	<-done
	t.enter()

	if panicA != nil {
		panic(panicA)
	}
	if panicB != nil {
		panic(panicB)
	}
	return ra, rb
}
