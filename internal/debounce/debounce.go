// Package debounce coalesces bursts of input into a single lookup and
// cancels lookups made stale by newer input.
package debounce

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of a lookup for one input.
type Result[In, Out any] struct {
	Input  In
	Output Out
	Err    error
}

// Debouncer runs fn for the latest input once no new input has arrived for
// the delay. Submitting again cancels the context of any running lookup, and
// results from cancelled lookups are dropped.
type Debouncer[In, Out any] struct {
	delay time.Duration
	fn    func(ctx context.Context, in In) (Out, error)

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	seq     uint64
	stopped bool

	parent  context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	results chan Result[In, Out]
}

// New creates a Debouncer. The returned Debouncer must be stopped with Stop.
func New[In, Out any](ctx context.Context, delay time.Duration, fn func(ctx context.Context, in In) (Out, error)) *Debouncer[In, Out] {
	parent, stop := context.WithCancel(ctx)
	return &Debouncer[In, Out]{
		delay:   delay,
		fn:      fn,
		parent:  parent,
		stop:    stop,
		results: make(chan Result[In, Out], 1),
	}
}

// Submit schedules a lookup for in, superseding any pending or running one.
func (d *Debouncer[In, Out]) Submit(in In) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}

	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, in) })
}

func (d *Debouncer[In, Out]) fire(seq uint64, in In) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(d.parent)
	d.cancel = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	defer cancel()

	out, err := d.fn(ctx, in)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || seq != d.seq || ctx.Err() != nil {
		return
	}

	// Keep only the newest result if the reader is behind.
	select {
	case <-d.results:
	default:
	}
	d.results <- Result[In, Out]{Input: in, Output: out, Err: err}
}

// Results delivers the outcome of each lookup that was not superseded.
// The channel is closed by Stop.
func (d *Debouncer[In, Out]) Results() <-chan Result[In, Out] {
	return d.results
}

// Flush runs the pending input immediately instead of waiting for the delay.
func (d *Debouncer[In, Out]) Flush(in In) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.fire(seq, in)
}

// Stop cancels pending and running lookups, waits for them to return and
// closes the results channel.
func (d *Debouncer[In, Out]) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.stop()
	d.wg.Wait()
	close(d.results)
}
