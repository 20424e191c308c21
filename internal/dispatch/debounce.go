package dispatch

import (
	"sync"
	"time"

	"vibefeed/internal/observability"
)

// DefaultSearchDebounce is the search window used when none is configured.
const DefaultSearchDebounce = 300 * time.Millisecond

// Debouncer runs only the last function triggered within its window.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates a Debouncer. A non-positive window uses DefaultSearchDebounce.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultSearchDebounce
	}
	return &Debouncer{window: window}
}

// Trigger schedules fn to run after the window, replacing any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil && d.timer.Stop() {
		observability.SearchDebounced.Inc()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		current := gen == d.gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
