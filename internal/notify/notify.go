// Package notify defines the payload-free signals that background jobs send
// to the consumer loop. A signal only says which slot changed; the data is
// pulled from the slot separately.
//
// Repository jobs and application jobs use disjoint buses so a component can
// hold only the sender half it needs.
package notify

// Phase tells whether a job reported progress or finished.
type Phase int

const (
	PhaseDone Phase = iota
	PhaseProgress
)

func (p Phase) String() string {
	if p == PhaseProgress {
		return "progress"
	}
	return "done"
}

// GitKind identifies a repository job kind.
type GitKind int

const (
	// GitFinishUnchanged means a job finished but produced nothing new.
	GitFinishUnchanged GitKind = iota
	GitStatus
	GitDiff
	GitLog
	GitCommitFiles
	GitTags
	GitPush
	GitPushTags
	GitFetch
	GitBlame
)

var gitKindNames = [...]string{
	GitFinishUnchanged: "finish-unchanged",
	GitStatus:          "status",
	GitDiff:            "diff",
	GitLog:             "log",
	GitCommitFiles:     "commit-files",
	GitTags:            "tags",
	GitPush:            "push",
	GitPushTags:        "push-tags",
	GitFetch:           "fetch",
	GitBlame:           "blame",
}

func (k GitKind) String() string {
	if k >= 0 && int(k) < len(gitKindNames) {
		return gitKindNames[k]
	}
	return "unknown"
}

// AppKind identifies an application (non-repository) job kind.
type AppKind int

const (
	AppSyntaxHighlighting AppKind = iota
)

func (k AppKind) String() string {
	if k == AppSyntaxHighlighting {
		return "syntax-highlighting"
	}
	return "unknown"
}

// Git is a signal from the repository bus.
type Git struct {
	Kind  GitKind
	Phase Phase
}

// App is a signal from the application bus.
type App struct {
	Kind  AppKind
	Phase Phase
}

// DefaultCapacity is the buffer size used by NewBus when capacity <= 0.
const DefaultCapacity = 256

// Bus is a buffered channel of signals. Senders are job goroutines; the
// single receiver is the event multiplexer.
type Bus[T any] struct {
	ch chan T
}

// NewBus creates a bus with the given buffer capacity.
func NewBus[T any](capacity int) *Bus[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus[T]{ch: make(chan T, capacity)}
}

// Send delivers a signal. It blocks only while the buffer is full, which
// happens on a job goroutine and never on the consumer.
func (b *Bus[T]) Send(v T) {
	b.ch <- v
}

// Receiver returns the receive half for the multiplexer.
func (b *Bus[T]) Receiver() <-chan T {
	return b.ch
}

// Close closes the bus. A multiplexer reading a closed bus treats it as a
// fatal disconnect.
func (b *Bus[T]) Close() {
	close(b.ch)
}

// GitSender sends repository signals.
type GitSender interface {
	Send(Git)
}

// AppSender sends application signals.
type AppSender interface {
	Send(App)
}
