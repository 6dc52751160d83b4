package app

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/gitpane/internal/event"
)

const toastDuration = 3 * time.Second

// eventMsg carries one multiplexed event into Update.
type eventMsg struct {
	ev event.Event
}

// fatalMsg stops the program after an unrecoverable error.
type fatalMsg struct {
	err error
}

// ToastMsg shows a temporary message in the status bar.
type ToastMsg struct {
	Message string
	IsError bool
}

// copyToClipboard writes text to the system clipboard off the event loop;
// xclip and friends can be slow to return.
func copyToClipboard(text, label string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return ToastMsg{Message: "copy failed: " + err.Error(), IsError: true}
		}
		return ToastMsg{Message: "copied " + label}
	}
}

// nextEvent blocks on the multiplexer for one event. Exactly one of these
// is outstanding at a time: Init arms the first, and every eventMsg re-arms
// the next, so the multiplexer only ever has one caller.
func nextEvent(ctx context.Context, mux *event.Multiplexer) tea.Cmd {
	return func() tea.Msg {
		ev, err := mux.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fatalMsg{err: err}
		}
		return eventMsg{ev: ev}
	}
}
