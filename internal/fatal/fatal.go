// Package fatal provides the single path by which unrecoverable conditions
// (a panicking job, a disconnected notification bus) stop the application.
//
// The handler is created once at startup and passed explicitly to the
// components that can hit such a condition. Nothing here installs global
// hooks.
package fatal

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Handler records the first fatal error and invokes the shutdown callback.
type Handler struct {
	logger *slog.Logger

	mu       sync.Mutex
	err      error
	shutdown func(error)
}

// New creates a handler. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// OnFatal sets the callback run once when the first fatal error is
// reported. The callback typically kills the terminal program so the
// terminal is restored before the process exits.
func (h *Handler) OnFatal(fn func(error)) {
	h.mu.Lock()
	h.shutdown = fn
	h.mu.Unlock()
}

// Report records err as fatal. Only the first report runs the callback;
// later reports are logged and otherwise ignored.
func (h *Handler) Report(err error) {
	if err == nil {
		return
	}

	h.mu.Lock()
	if h.err != nil {
		h.mu.Unlock()
		h.logger.Error("additional fatal error", "err", err)
		return
	}
	h.err = err
	fn := h.shutdown
	h.mu.Unlock()

	h.logger.Error("fatal error", "err", err)
	if fn != nil {
		fn(err)
	}
}

// Recovered converts a recovered panic value into a fatal report that
// includes the goroutine's stack.
func (h *Handler) Recovered(r any) {
	h.Report(&PanicError{Value: r, Stack: debug.Stack()})
}

// Err returns the first reported fatal error, or nil.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// PanicError wraps a value recovered from a panicking goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\ntrace:\n%s", e.Value, e.Stack)
}
