// Package spinner draws the busy indicator. It runs on its own clock so a
// tick never waits behind job notifications.
package spinner

import (
	"time"

	bspinner "github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 80 * time.Millisecond

// Spinner holds the glyph frame and the aggregate busy flag. The flag is
// not a source of truth; the consumer recomputes it from its slots.
type Spinner struct {
	frames []string
	idx    int
	busy   bool
	style  lipgloss.Style
}

// New creates a spinner using the bubbles line frames.
func New(style lipgloss.Style) *Spinner {
	return &Spinner{
		frames: bspinner.Line.Frames,
		style:  style,
	}
}

// SetState sets whether any work is pending.
func (s *Spinner) SetState(busy bool) {
	s.busy = busy
}

// Busy reports the last state set.
func (s *Spinner) Busy() bool {
	return s.busy
}

// Update advances the frame while busy.
func (s *Spinner) Update() {
	if !s.busy || len(s.frames) == 0 {
		return
	}
	s.idx = (s.idx + 1) % len(s.frames)
}

// View renders the glyph, or a blank of the same width when idle.
func (s *Spinner) View() string {
	if !s.busy || len(s.frames) == 0 {
		return " "
	}
	return s.style.Render(s.frames[s.idx])
}

// Ticker is the independent spinner clock.
type Ticker struct {
	t *time.Ticker
}

// NewTicker starts a ticker firing every interval.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{t: time.NewTicker(interval)}
}

// C returns the tick channel.
func (t *Ticker) C() <-chan time.Time {
	return t.t.C
}

// Stop stops the ticker.
func (t *Ticker) Stop() {
	t.t.Stop()
}
