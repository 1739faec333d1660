package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// DefaultSearchDebounce is how long typing must pause before a search is sent
const DefaultSearchDebounce = 500 * time.Millisecond

// Timer is a pending callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks; tests substitute a manual clock
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SearchDebouncer coalesces keystrokes into a single delayed search.
// It is Idle when timer is nil and Pending otherwise.
type SearchDebouncer struct {
	clock    Clock
	delay    time.Duration
	search   func(text string)
	logger   *slog.Logger
	fired    metric.Int64Counter
	replaced metric.Int64Counter

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	stopped bool
}

// DebouncerOption customizes a SearchDebouncer
type DebouncerOption func(*SearchDebouncer)

// WithClock replaces the wall clock
func WithClock(c Clock) DebouncerOption {
	return func(d *SearchDebouncer) { d.clock = c }
}

// NewSearchDebouncer creates a debouncer that calls search with the latest
// text once keystrokes have paused for delay.
func NewSearchDebouncer(delay time.Duration, search func(text string), meter metric.Meter, logger *slog.Logger, opts ...DebouncerOption) *SearchDebouncer {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}

	fired, _ := meter.Int64Counter(
		"storefront.search.debounced",
		metric.WithDescription("Searches issued after the debounce window elapsed"),
	)
	replaced, _ := meter.Int64Counter(
		"storefront.search.superseded",
		metric.WithDescription("Pending searches cancelled by a newer keystroke"),
	)

	d := &SearchDebouncer{
		clock:    realClock{},
		delay:    delay,
		search:   search,
		logger:   logger,
		fired:    fired,
		replaced: replaced,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Keystroke records the current input text and restarts the debounce window
func (d *SearchDebouncer) Keystroke(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
		d.replaced.Add(context.Background(), 1)
	}

	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen, text) })
}

// Pending reports whether a search is waiting for its timer
func (d *SearchDebouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending search; later keystrokes are ignored
func (d *SearchDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// fire runs when a timer elapses. A timer superseded after it had already
// started firing sees a newer generation and does nothing.
func (d *SearchDebouncer) fire(gen uint64, text string) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fired.Add(context.Background(), 1)
	d.logger.Debug("Debounce window elapsed, searching",
		slog.String("text", text),
	)
	d.search(text)
}
