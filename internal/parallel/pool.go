// Package parallel splits per-row image work across a fixed set of
// goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// MinBandRows is the smallest band handed to a worker. Smaller jobs run
// on the calling goroutine.
const MinBandRows = 16

// Pool is a fixed set of worker goroutines fed from one queue.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queue   chan func()
	wg      sync.WaitGroup

	// mu is held shared while a Rows call enqueues and exclusively by
	// Close, so the queue is never sent to after it is closed.
	mu     sync.RWMutex
	closed bool
}

// NewPool starts a pool with the given number of workers. Zero or a
// negative count means GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		queue:   make(chan func(), workers*4),
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for work := range p.queue {
		work()
	}
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// Rows calls fn for disjoint bands [lo, hi) covering [0, n) and returns
// when every band is done. fn must only touch rows inside its band.
// After Close, or for small n, the bands run on the caller.
func (p *Pool) Rows(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	bands := min(p.workers, n/MinBandRows)
	if bands <= 1 {
		fn(0, n)
		return
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		fn(0, n)
		return
	}
	var wg sync.WaitGroup
	wg.Add(bands)
	for i := range bands {
		lo, hi := i*n/bands, (i+1)*n/bands
		p.queue <- func() {
			defer wg.Done()
			fn(lo, hi)
		}
	}
	p.mu.RUnlock()
	wg.Wait()
}

// Close stops the workers once the queued bands are done. Safe to call
// more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

var defaultPool = sync.OnceValue(func() *Pool { return NewPool(0) })

// Rows runs fn over [0, n) on the shared pool.
func Rows(n int, fn func(lo, hi int)) {
	defaultPool().Rows(n, fn)
}
