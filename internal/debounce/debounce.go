// Package debounce delays propagation of a rapidly-changing value until it
// has been stable for a quiescence window. It is the mechanism that turns
// free-form typing into a bounded rate of remote write attempts.
package debounce

import (
	"sync"
	"time"
)

// Debouncer propagates the most recent value passed to Set once the window
// has elapsed with no further Set calls. There is at most one live timer at
// any time: every Set invalidates and replaces the previous one.
type Debouncer[T any] struct {
	mu       sync.Mutex
	window   time.Duration
	fire     func(T)
	timer    *time.Timer
	gen      uint64
	stopped  bool
	inFlight sync.WaitGroup
}

// New creates a Debouncer that calls fire with the settled value after
// window of quiescence. fire runs on the timer goroutine.
func New[T any](window time.Duration, fire func(T)) *Debouncer[T] {
	return &Debouncer[T]{window: window, fire: fire}
}

// Set records a new input value and restarts the quiescence window.
func (d *Debouncer[T]) Set(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() {
		d.propagate(gen, value)
	})
}

// propagate delivers value unless the timer was superseded or the debouncer
// stopped while the callback was waiting to run.
func (d *Debouncer[T]) propagate(gen uint64, value T) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.inFlight.Add(1)
	d.mu.Unlock()

	defer d.inFlight.Done()
	d.fire(value)
}

// Cancel drops the pending value, if any, without stopping the debouncer.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Stop cancels any pending value and guarantees fire is never invoked again.
// It waits for an in-flight fire callback to return, so after Stop it is safe
// to tear down whatever fire dispatches into.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.inFlight.Wait()
}
