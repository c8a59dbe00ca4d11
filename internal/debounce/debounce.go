package debounce

import (
	"slices"
	"sync"
	"time"
)

var afterFunc = time.AfterFunc

// Debouncer collects paths and hands them to fn once no new path has arrived
// for the configured delay. Each path is delivered once per batch, in first
// seen order.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	pending []string
	seen    map[string]struct{}
	fn      func(paths []string)
}

func New(delay time.Duration, fn func(paths []string)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn, seen: make(map[string]struct{})}
}

// Add queues path and restarts the delay.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[path]; !ok {
		d.seen[path] = struct{}{}
		d.pending = append(d.pending, path)
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = afterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that was stopped too late, or replaced, must not flush.
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	paths := d.takeLocked()
	d.mu.Unlock()
	if len(paths) > 0 {
		d.fn(paths)
	}
}

// Flush delivers pending paths immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	paths := d.takeLocked()
	d.mu.Unlock()
	if len(paths) > 0 {
		d.fn(paths)
	}
}

// Pending returns a copy of the queued paths.
func (d *Debouncer) Pending() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.pending)
}

// Stop cancels the pending delivery and drops queued paths.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.takeLocked()
}

func (d *Debouncer) takeLocked() []string {
	paths := d.pending
	d.pending = nil
	clear(d.seen)
	return paths
}
