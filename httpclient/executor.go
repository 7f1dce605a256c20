package httpclient

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Executor runs completion handlers. It decides which goroutine classifies an attempt,
// schedules retries and performs downstream decoding. Execute must not block on other
// tasks: handlers schedule follow-up work from inside a running task.
type Executor interface {
	Execute(task func())
}

// InlineExecutor runs tasks on the calling goroutine, i.e. the transport's completion
// goroutine.
type InlineExecutor struct{}

// Execute runs task immediately.
func (InlineExecutor) Execute(task func()) {
	task()
}

// WorkerPool runs tasks on at most size goroutines. Execute never blocks: when the pool is
// saturated the task waits for a free worker on its own goroutine.
type WorkerPool struct {
	group   errgroup.Group
	pending sync.WaitGroup
}

// NewWorkerPool creates a pool; size <= 0 means unbounded.
func NewWorkerPool(size int) *WorkerPool {
	p := &WorkerPool{}
	if size > 0 {
		p.group.SetLimit(size)
	}
	return p
}

// Execute schedules task on the pool.
func (p *WorkerPool) Execute(task func()) {
	p.pending.Add(1)
	run := func() error {
		defer p.pending.Done()
		task()
		return nil
	}
	if p.group.TryGo(run) {
		return
	}
	go p.group.Go(run)
}

// Close waits for every scheduled task, including tasks scheduled by running tasks, to
// finish.
func (p *WorkerPool) Close() error {
	p.pending.Wait()
	return p.group.Wait()
}
