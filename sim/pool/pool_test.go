package pool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, workers int) *Pool {
	t.Helper()
	p, err := New(workers)
	require.NoError(t, err)
	return p
}

func TestNew_NegativeWorkers_Error(t *testing.T) {
	_, err := New(-1)
	assert.Error(t, err)
}

func TestNew_ZeroWorkers_UsesGOMAXPROCS(t *testing.T) {
	p := newTestPool(t, 0)
	assert.Greater(t, p.Workers(), 0)
}

func TestJoin_RunsBothOperands(t *testing.T) {
	p := newTestPool(t, 4)
	var a, b atomic.Int32
	p.Install(func() {
		p.Join(func() { a.Add(1) }, func() { b.Add(1) })
	})
	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
}

// sumTree forks down to depth 0 and counts the leaves it reaches.
func sumTree(p *Pool, depth int) int64 {
	if depth == 0 {
		return 1
	}
	var left, right int64
	p.Join(
		func() { left = sumTree(p, depth-1) },
		func() { right = sumTree(p, depth-1) },
	)
	return left + right
}

func TestJoin_NestedTree_AllLeavesVisited(t *testing.T) {
	for _, workers := range []int{1, 2, 8} {
		p := newTestPool(t, workers)
		var got int64
		p.Install(func() { got = sumTree(p, 10) })
		assert.Equal(t, int64(1024), got, "workers=%d", workers)

		// Every second operand is either reclaimed or stolen, never both.
		s := p.Stats()
		assert.Equal(t, s.Joins, s.Inlined+s.Stolen, "workers=%d", workers)
	}
}

func TestJoin_PanicInSecondOperand_Propagates(t *testing.T) {
	p := newTestPool(t, 2)
	assert.PanicsWithValue(t, "boom", func() {
		p.Install(func() {
			p.Join(func() {}, func() { panic("boom") })
		})
	})

	// The pool is still usable afterwards: no slot leaked.
	done := make(chan struct{})
	go func() {
		p.Install(func() { p.Install(func() {}) })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool slots leaked after panic")
	}
}

func TestJoin_PanicInFirstOperand_WaitsForSecond(t *testing.T) {
	p := newTestPool(t, 2)
	var ranB atomic.Bool
	assert.PanicsWithValue(t, "first", func() {
		p.Install(func() {
			p.Join(func() { panic("first") }, func() { ranB.Store(true) })
		})
	})
	assert.True(t, ranB.Load())
}

func TestSuspend_ReleasesWorker(t *testing.T) {
	// GIVEN a single worker slot
	p := newTestPool(t, 1)
	const d = 60 * time.Millisecond

	// WHEN both join operands suspend
	start := time.Now()
	p.Install(func() {
		p.Join(func() { p.Suspend(d) }, func() { p.Suspend(d) })
	})
	elapsed := time.Since(start)

	// THEN the delays overlap: the slot was free for the sibling
	assert.Less(t, elapsed, 2*d-10*time.Millisecond)
	assert.Equal(t, int64(2), p.Stats().Suspensions)
}

func TestBlock_HoldsWorker(t *testing.T) {
	// GIVEN a single worker slot
	p := newTestPool(t, 1)
	const d = 60 * time.Millisecond

	// WHEN both join operands block
	start := time.Now()
	p.Install(func() {
		p.Join(func() { p.Block(d) }, func() { p.Block(d) })
	})
	elapsed := time.Since(start)

	// THEN they serialize on the only worker
	assert.GreaterOrEqual(t, elapsed, 2*d)
	assert.Equal(t, int64(2), p.Stats().Blocks)
}
