package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/gitpane/internal/asyncjob"
	"github.com/marcus/gitpane/internal/config"
	"github.com/marcus/gitpane/internal/event"
	"github.com/marcus/gitpane/internal/fatal"
	"github.com/marcus/gitpane/internal/gitjobs"
	"github.com/marcus/gitpane/internal/gitops"
	"github.com/marcus/gitpane/internal/highlight"
	"github.com/marcus/gitpane/internal/keymap"
	"github.com/marcus/gitpane/internal/spinner"
	"github.com/marcus/gitpane/internal/state"
	"github.com/marcus/gitpane/internal/styles"
)

// HighlightSlot is the slot type that renders file previews.
type HighlightSlot = *asyncjob.Slot[highlight.Request, highlight.Result]

type remoteSlot = *asyncjob.Slot[gitjobs.RemoteRequest, string]

// pane is what the right-hand side of the status tab shows.
type pane int

const (
	paneDiff pane = iota
	panePreview
	paneBlame
)

// Options wires the model to its collaborators. Everything except Logger
// and Warnings is required.
type Options struct {
	Ctx       context.Context
	Config    *config.Config
	Keymap    *keymap.KeyMap
	Jobs      *gitjobs.Jobs
	Highlight HighlightSlot
	Mux       *event.Multiplexer
	Input     *event.InputQueue
	Fatal     *fatal.Handler
	Logger    *slog.Logger

	// Warnings are shown as a toast once the first event arrives.
	Warnings []string
}

// Model is the root Bubble Tea model. All consumer-side state lives here
// and is only touched from Update.
type Model struct {
	ctx    context.Context
	cfg    *config.Config
	keys   *keymap.KeyMap
	jobs   *gitjobs.Jobs
	hl     HighlightSlot
	mux    *event.Multiplexer
	input  *event.InputQueue
	fatal  *fatal.Handler
	logger *slog.Logger

	help     help.Model
	spinner  *spinner.Spinner
	viewport viewport.Model
	warnings []string

	width, height int
	ready         bool
	tab           string

	// status tab
	status     gitops.StatusResult
	statusErr  error
	hasStatus  bool
	files      []gitops.FileEntry
	cursor     int
	pane       pane
	diffLayout string

	diffWant gitops.DiffParams
	diff     *gitops.FileDiff
	diffErr  error

	blamePath string
	blame     *gitops.FileBlame
	blameErr  error

	preview preview

	// log tab
	commits         []gitops.Commit
	logErr          error
	hasLog          bool
	logCursor       int
	tags            map[string][]string
	commitFiles     *gitops.CommitFiles
	commitFilesErr  error
	commitFilesWant string

	// status bar
	toast       string
	toastIsErr  bool
	toastExpiry time.Time

	// body is the rendered content area. It is rebuilt on every accepted
	// event except spinner ticks.
	body     string
	rightKey string
}

// New creates the model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	h := help.New()
	h.Styles.ShortKey = styles.BarText
	h.Styles.ShortDesc = styles.Muted
	h.Styles.FullKey = styles.BarText
	h.Styles.FullDesc = styles.Muted

	tab := state.GetLastTab()
	if tab != state.TabLog {
		tab = state.TabStatus
	}

	return Model{
		ctx:        ctx,
		cfg:        opts.Config,
		keys:       opts.Keymap,
		jobs:       opts.Jobs,
		hl:         opts.Highlight,
		mux:        opts.Mux,
		input:      opts.Input,
		fatal:      opts.Fatal,
		logger:     logger,
		help:       h,
		spinner:    spinner.New(styles.Spinner),
		viewport:   viewport.New(0, 0),
		warnings:   opts.Warnings,
		tab:        tab,
		diffLayout: state.GetDiffLayout(),
		tags:       map[string][]string{},
	}
}

// Init arms the event loop.
func (m Model) Init() tea.Cmd {
	return nextEvent(m.ctx, m.mux)
}

// AnyWorkPending reports whether any background job is running.
func (m Model) AnyWorkPending() bool {
	return m.jobs.AnyPending() || m.hl.IsPending()
}

func (m *Model) selectedFile() (gitops.FileEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.files) {
		return gitops.FileEntry{}, false
	}
	return m.files[m.cursor], true
}

func (m *Model) selectedCommit() (gitops.Commit, bool) {
	if m.logCursor < 0 || m.logCursor >= len(m.commits) {
		return gitops.Commit{}, false
	}
	return m.commits[m.logCursor], true
}

func (m *Model) showToast(msg string, isErr bool) {
	m.toast = msg
	m.toastIsErr = isErr
	m.toastExpiry = time.Now().Add(toastDuration)
}

func (m *Model) expireToast(now time.Time) {
	if m.toast != "" && now.After(m.toastExpiry) {
		m.toast = ""
	}
}

// repoName is the working tree's directory name, shown in the header.
func (m *Model) repoName() string {
	return filepath.Base(strings.TrimRight(m.jobs.Dir, string(filepath.Separator)))
}
