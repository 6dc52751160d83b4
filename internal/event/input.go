package event

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// InputQueue is an unbounded FIFO of terminal input messages. Push never
// blocks, so the goroutine that receives input from the terminal can hand
// it over without waiting for the consumer.
type InputQueue struct {
	mu    sync.Mutex
	items []tea.Msg
	ready chan struct{}
}

// NewInputQueue creates an empty queue.
func NewInputQueue() *InputQueue {
	return &InputQueue{ready: make(chan struct{}, 1)}
}

// Push appends msg.
func (q *InputQueue) Push(msg tea.Msg) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.signal()
}

// Pop removes the oldest message.
func (q *InputQueue) Pop() (tea.Msg, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	msg := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	more := len(q.items) > 0
	q.mu.Unlock()

	if more {
		q.signal()
	}
	return msg, true
}

// Len returns the number of queued messages.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready is signalled when the queue may be non-empty. A wake-up can be
// spurious; Pop reports whether a message was actually there.
func (q *InputQueue) Ready() <-chan struct{} {
	return q.ready
}

func (q *InputQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
