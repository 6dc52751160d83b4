package asyncjob

import (
	"context"
	"sync"
)

// DefaultWorkers is the pool size used when NewPool gets workers <= 0.
const DefaultWorkers = 4

// Pool runs job bodies on a bounded number of goroutines. Go never blocks
// the caller: the goroutine is started immediately and waits for a free
// worker before running the body.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup

	onPanic func(any)
}

// NewPool creates a pool with the given number of workers. onPanic receives
// the value recovered from a panicking job body; when nil the panic is
// re-raised and crashes the process.
func NewPool(workers int, onPanic func(any)) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		ctx:     ctx,
		cancel:  cancel,
		sem:     make(chan struct{}, workers),
		onPanic: onPanic,
	}
}

// Lease is one job's claim on a pool worker.
type Lease struct {
	sem      chan struct{}
	detached chan struct{}

	mu       sync.Mutex
	held     bool
	released bool
}

// Release gives the worker back to the pool. The job keeps running, but no
// longer counts against the pool size. A lease released before its job got
// a worker runs the job without one. Release is idempotent.
func (l *Lease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	close(l.detached)
	if l.held {
		l.held = false
		<-l.sem
	}
}

// acquire waits for a worker or for the lease to be released. It returns
// false when the pool was closed first.
func (l *Lease) acquire(ctx context.Context) bool {
	select {
	case l.sem <- struct{}{}:
	case <-l.detached:
		return true
	case <-ctx.Done():
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		<-l.sem
		return true
	}
	l.held = true
	return true
}

// Go schedules fn. fn receives the pool context, which is cancelled only by
// Close. The returned lease is released when fn returns.
func (p *Pool) Go(fn func(ctx context.Context)) *Lease {
	l := &Lease{sem: p.sem, detached: make(chan struct{})}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if !l.acquire(p.ctx) {
			return
		}
		defer l.Release()

		defer func() {
			if r := recover(); r != nil {
				if p.onPanic == nil {
					panic(r)
				}
				p.onPanic(r)
			}
		}()

		fn(p.ctx)
	}()
	return l
}

// Close cancels the pool context. Jobs still waiting for a worker are
// dropped; running jobs see a cancelled context.
func (p *Pool) Close() {
	p.cancel()
}

// Wait blocks until every scheduled goroutine has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
