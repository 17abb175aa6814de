// Package progress reports the advance of long-running batch jobs.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Tracker counts processed items and redraws a single status line on the
// writer every reportInterval items. It is safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	out      io.Writer
	label    string
	total    int
	interval int

	done    int
	shown   int
	started time.Time
}

// NewTracker returns a Tracker for total items of the given label, e.g.
// "brands". Intervals below one report every item.
func NewTracker(out io.Writer, label string, total, reportInterval int) *Tracker {
	return &Tracker{
		out:      out,
		label:    label,
		total:    total,
		interval: max(reportInterval, 1),
	}
}

// Start resets the count and the clock. A Tracker ignores Increment and
// Finish until it is started.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.started = time.Now()
	t.done, t.shown = 0, 0
}

// Increment adds delta processed items, capped at the total.
func (t *Tracker) Increment(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started.IsZero() {
		return
	}

	t.done = min(t.done+delta, t.total)
	if t.done-t.shown >= t.interval {
		t.draw()
		t.shown = t.done
	}
}

// Current returns the number of items counted so far.
func (t *Tracker) Current() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Finish draws the count actually reached and ends the line.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started.IsZero() {
		return
	}

	t.draw()
	fmt.Fprintf(t.out, ", done in %s\n", time.Since(t.started).Round(time.Millisecond))
}

// Elapsed returns the time since Start, or zero before it.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started.IsZero() {
		return 0
	}
	return time.Since(t.started)
}

// draw must be called with mu held.
func (t *Tracker) draw() {
	var pct, rate float64
	if t.total > 0 {
		pct = 100 * float64(t.done) / float64(t.total)
	}
	if secs := time.Since(t.started).Seconds(); secs > 0 {
		rate = float64(t.done) / secs
	}
	fmt.Fprintf(t.out, "\rProgress: %d/%d %s (%.1f%%) - %.1f/s", t.done, t.total, t.label, pct, rate)
}
