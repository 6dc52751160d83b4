package watcher

import (
	"sync"
	"time"
)

// DefaultWindow is the quiet period used when none is configured.
const DefaultWindow = 100 * time.Millisecond

// Debouncer turns a burst of triggers into one signal sent after the window
// passes with no further trigger (trailing edge).
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
	seq    uint64
	closed bool
	out    chan struct{}
}

// NewDebouncer creates a debouncer. The signal channel has room for one
// undelivered signal; while it is full further signals collapse into it.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		window: window,
		out:    make(chan struct{}, 1),
	}
}

// Signals returns the coalesced signal channel.
func (d *Debouncer) Signals() <-chan struct{} {
	return d.out
}

// Trigger pushes the deadline to now plus the window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// A timer that lost the race with Stop still runs; the sequence number
	// tells it a newer trigger took over.
	if d.closed || seq != d.seq {
		return
	}
	d.timer = nil

	select {
	case d.out <- struct{}{}:
	default:
	}
}

// Close stops any pending signal and closes the signal channel.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	close(d.out)
}
