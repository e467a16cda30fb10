// Package workpool runs index-range work on a fixed set of goroutines.
//
// A Pool is created once and reused for every pass of every tick: ForEach
// splits [0, n) into chunks, hands them to the workers and returns only when
// every chunk has finished, so each call is a full barrier.
package workpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minChunk keeps tiny ranges from being split into more pieces than it is worth.
const minChunk = 32

type job struct {
	fn     func(lo, hi int)
	lo, hi int
	done   *sync.WaitGroup
}

// Pool is a fixed-size worker pool.
type Pool struct {
	size    int
	jobs    chan job
	workers sync.WaitGroup
	closed  atomic.Bool
	once    sync.Once
}

// New starts a pool of size workers. size <= 0 means runtime.NumCPU().
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size: size,
		jobs: make(chan job, size*4),
	}
	if size == 1 {
		// a single worker runs inline, no goroutine needed
		return p
	}
	p.workers.Add(size)
	for range size {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.workers.Done()
	for j := range p.jobs {
		j.fn(j.lo, j.hi)
		j.done.Done()
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// ForEach calls fn over disjoint sub-ranges covering [0, n) and blocks until
// all of them have returned. fn must only write state owned by its range.
// After Close, ForEach still works but runs on the calling goroutine.
func (p *Pool) ForEach(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if p.size == 1 || n <= minChunk || p.closed.Load() {
		fn(0, n)
		return
	}

	chunk := (n + p.size*4 - 1) / (p.size * 4)
	if chunk < minChunk {
		chunk = minChunk
	}

	var done sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		done.Add(1)
		p.jobs <- job{fn: fn, lo: lo, hi: hi, done: &done}
	}
	done.Wait()
}

// Close stops the workers once queued work has drained. It is idempotent.
// Close must not race with an in-flight ForEach; callers serialize the two.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.closed.Store(true)
		close(p.jobs)
		p.workers.Wait()
	})
}
