// Package event merges every source the consumer loop waits on into one
// stream: terminal input, the repository and application notification
// buses, the debounced watcher and the spinner clock.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/gitpane/internal/notify"
)

// Kind tags an event with its origin.
type Kind int

const (
	// KindRefresh is synthesized on the first call to Next.
	KindRefresh Kind = iota
	KindInput
	KindGit
	KindApp
	KindWatcher
	KindSpinner
)

func (k Kind) String() string {
	switch k {
	case KindRefresh:
		return "refresh"
	case KindInput:
		return "input"
	case KindGit:
		return "git"
	case KindApp:
		return "app"
	case KindWatcher:
		return "watcher"
	case KindSpinner:
		return "spinner"
	}
	return "unknown"
}

// Event is one unified event. Input, Git and App are set only for their
// respective kinds.
type Event struct {
	Kind  Kind
	Input tea.Msg
	Git   notify.Git
	App   notify.App
}

// ErrDisconnected is returned when a notification bus is closed. Every
// spawned job must eventually signal, so a closed bus means a worker died
// and the loop cannot continue.
var ErrDisconnected = errors.New("notification bus disconnected")

// Sources are the channels the multiplexer waits on. Any of them may be
// nil; a nil source never fires.
type Sources struct {
	Input   *InputQueue
	Git     <-chan notify.Git
	App     <-chan notify.App
	Watcher <-chan struct{}
	Spinner <-chan time.Time
}

// source indexes, in round-robin order
const (
	srcInput = iota
	srcGit
	srcApp
	srcWatcher
	srcSpinner
	numSources
)

// Multiplexer yields one event per Next call.
type Multiplexer struct {
	src          Sources
	logger       *slog.Logger
	bootstrapped bool
	next         int
}

// New creates a multiplexer over src.
func New(src Sources, logger *slog.Logger) *Multiplexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multiplexer{src: src, logger: logger}
}

// Next blocks until a source has data and returns one event. The first
// call returns a KindRefresh event without waiting.
//
// Ready sources are polled round-robin, starting after the source serviced
// last, so a source that stays ready is serviced at least once every
// numSources calls.
func (m *Multiplexer) Next(ctx context.Context) (Event, error) {
	if !m.bootstrapped {
		m.bootstrapped = true
		return Event{Kind: KindRefresh}, nil
	}
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}

	for i := 0; i < numSources; i++ {
		idx := (m.next + i) % numSources
		ev, ok, err := m.poll(idx)
		if err != nil {
			return Event{}, err
		}
		if ok {
			m.next = (idx + 1) % numSources
			return ev, nil
		}
	}

	return m.wait(ctx)
}

func (m *Multiplexer) poll(idx int) (Event, bool, error) {
	switch idx {
	case srcInput:
		if m.src.Input == nil {
			return Event{}, false, nil
		}
		if msg, ok := m.src.Input.Pop(); ok {
			return Event{Kind: KindInput, Input: msg}, true, nil
		}
	case srcGit:
		select {
		case n, ok := <-m.src.Git:
			if !ok {
				return Event{}, false, fmt.Errorf("git: %w", ErrDisconnected)
			}
			return Event{Kind: KindGit, Git: n}, true, nil
		default:
		}
	case srcApp:
		select {
		case n, ok := <-m.src.App:
			if !ok {
				return Event{}, false, fmt.Errorf("app: %w", ErrDisconnected)
			}
			return Event{Kind: KindApp, App: n}, true, nil
		default:
		}
	case srcWatcher:
		select {
		case _, ok := <-m.src.Watcher:
			if !ok {
				m.disableWatcher()
				return Event{}, false, nil
			}
			return Event{Kind: KindWatcher}, true, nil
		default:
		}
	case srcSpinner:
		select {
		case <-m.src.Spinner:
			return Event{Kind: KindSpinner}, true, nil
		default:
		}
	}
	return Event{}, false, nil
}

func (m *Multiplexer) wait(ctx context.Context) (Event, error) {
	var inputReady <-chan struct{}
	if m.src.Input != nil {
		inputReady = m.src.Input.Ready()
	}

	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()

		case <-inputReady:
			if msg, ok := m.src.Input.Pop(); ok {
				m.next = srcInput + 1
				return Event{Kind: KindInput, Input: msg}, nil
			}

		case n, ok := <-m.src.Git:
			if !ok {
				return Event{}, fmt.Errorf("git: %w", ErrDisconnected)
			}
			m.next = srcGit + 1
			return Event{Kind: KindGit, Git: n}, nil

		case n, ok := <-m.src.App:
			if !ok {
				return Event{}, fmt.Errorf("app: %w", ErrDisconnected)
			}
			m.next = srcApp + 1
			return Event{Kind: KindApp, App: n}, nil

		case _, ok := <-m.src.Watcher:
			if !ok {
				m.disableWatcher()
				continue
			}
			m.next = srcWatcher + 1
			return Event{Kind: KindWatcher}, nil

		case <-m.src.Spinner:
			m.next = (srcSpinner + 1) % numSources
			return Event{Kind: KindSpinner}, nil
		}
	}
}

// disableWatcher drops a closed watcher source. Losing the watcher only
// stops automatic refreshes.
func (m *Multiplexer) disableWatcher() {
	m.src.Watcher = nil
	m.logger.Warn("file watcher stopped; automatic refresh disabled")
}
