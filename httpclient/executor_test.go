package httpclient

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineExecutorRunsOnCaller(t *testing.T) {
	ran := false
	InlineExecutor{}.Execute(func() { ran = true })
	assert.True(t, ran)
}

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	pool := NewWorkerPool(3)
	var count atomic.Int32

	for range 20 {
		pool.Execute(func() { count.Add(1) })
	}
	require.NoError(t, pool.Close())

	assert.Equal(t, int32(20), count.Load())
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const size = 2
	pool := NewWorkerPool(size)
	var running, peak atomic.Int32
	var mu sync.Mutex

	for range 10 {
		pool.Execute(func() {
			n := running.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	require.NoError(t, pool.Close())

	assert.LessOrEqual(t, peak.Load(), int32(size))
}

func TestWorkerPoolUnbounded(t *testing.T) {
	pool := NewWorkerPool(0)
	done := make(chan struct{})

	pool.Execute(func() { close(done) })
	require.NoError(t, pool.Close())

	select {
	case <-done:
	default:
		t.Fatal("task did not run")
	}
}

func TestWorkerPoolTaskCanScheduleFollowUpWhenSaturated(t *testing.T) {
	pool := NewWorkerPool(1)
	done := make(chan struct{})

	pool.Execute(func() {
		pool.Execute(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(testAwaitLimit):
		t.Fatal("follow-up task never ran")
	}
	require.NoError(t, pool.Close())
}

func TestWorkerPoolExecuteDoesNotBlockWhenSaturated(t *testing.T) {
	pool := NewWorkerPool(1)
	release := make(chan struct{})
	var ran atomic.Int32

	pool.Execute(func() { <-release })
	returned := make(chan struct{})
	go func() {
		pool.Execute(func() { ran.Add(1) })
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(testAwaitLimit):
		t.Fatal("Execute blocked on a saturated pool")
	}
	assert.Equal(t, int32(0), ran.Load())

	close(release)
	require.NoError(t, pool.Close())
	assert.Equal(t, int32(1), ran.Load())
}
