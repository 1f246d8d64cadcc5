// Package performance provides the worker pool used for batch analysis and
// the token bucket that throttles the HTTP API.
package performance

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// WorkerPool runs submitted tasks on a fixed set of goroutines.
// A panicking task is recovered and counted; the worker keeps going.
type WorkerPool struct {
	workers    int
	taskQueue  chan func()
	wg         sync.WaitGroup
	mu         sync.RWMutex
	running    bool
	tasksTotal atomic.Uint64
	tasksDone  atomic.Uint64
	panics     atomic.Uint64
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0, it defaults to runtime.NumCPU().
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*4),
	}
}

// Start starts the worker pool.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for task := range p.taskQueue {
		p.run(task)
	}
}

func (p *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
		}
		p.tasksDone.Add(1)
	}()
	task()
}

// SubmitContext blocks until the task is queued or ctx is done.
// Returns false if the pool is not running or ctx ended first.
func (p *WorkerPool) SubmitContext(ctx context.Context, task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return false
	}
	select {
	case p.taskQueue <- task:
		p.tasksTotal.Add(1)
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop drains queued tasks and waits for all workers to finish.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.taskQueue)
	p.mu.Unlock()
	p.wg.Wait()
}

// Stats returns pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	return PoolStats{
		Workers:    p.workers,
		Running:    running,
		TasksTotal: p.tasksTotal.Load(),
		TasksDone:  p.tasksDone.Load(),
		Panics:     p.panics.Load(),
		QueueLen:   len(p.taskQueue),
	}
}

// PoolStats contains worker pool statistics.
type PoolStats struct {
	Workers    int
	Running    bool
	TasksTotal uint64
	TasksDone  uint64
	Panics     uint64
	QueueLen   int
}

// RateLimiter implements a token bucket rate limiter.
type RateLimiter struct {
	rate       float64 // tokens per second
	burst      int     // max tokens
	tokens     float64
	lastUpdate time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter. A non-positive rate disables limiting.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     float64(burst),
		lastUpdate: time.Now(),
		now:        time.Now,
	}
}

// Allow takes a token if one is available.
func (r *RateLimiter) Allow() bool {
	if r.rate <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// RetryAfter returns how long until the next token is available, or 0 if one is.
func (r *RateLimiter) RetryAfter() time.Duration {
	if r.rate <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - r.tokens) / r.rate * float64(time.Second))
}

// refill must be called with r.mu held.
func (r *RateLimiter) refill() {
	now := r.now()
	r.tokens += now.Sub(r.lastUpdate).Seconds() * r.rate
	r.lastUpdate = now
	if r.tokens > float64(r.burst) {
		r.tokens = float64(r.burst)
	}
}
