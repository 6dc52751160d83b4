package app

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/gitpane/internal/event"
	"github.com/marcus/gitpane/internal/gitjobs"
	"github.com/marcus/gitpane/internal/gitops"
	"github.com/marcus/gitpane/internal/highlight"
	"github.com/marcus/gitpane/internal/keymap"
	"github.com/marcus/gitpane/internal/notify"
	"github.com/marcus/gitpane/internal/state"
)

// Update handles all messages. Terminal input is queued for the
// multiplexer rather than handled directly, so every change to the model
// happens in response to exactly one multiplexed event.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd, quit := m.handleEvent(msg.ev)
		if quit {
			return m, cmd
		}
		return m, tea.Batch(nextEvent(m.ctx, m.mux), cmd)

	case fatalMsg:
		m.fatal.Report(msg.err)
		return m, tea.Quit

	case ToastMsg:
		m.showToast(msg.Message, msg.IsError)
		return m, nil

	case tea.KeyMsg, tea.WindowSizeMsg, tea.MouseMsg:
		m.input.Push(msg)
		return m, nil
	}
	return m, nil
}

// handleEvent applies one event. Spinner ticks only advance the glyph and
// leave the cached body alone; every other event rebuilds it.
func (m *Model) handleEvent(ev event.Event) (tea.Cmd, bool) {
	var (
		cmd  tea.Cmd
		quit bool
	)
	switch ev.Kind {
	case event.KindSpinner:
		m.spinner.SetState(m.AnyWorkPending())
		m.spinner.Update()
		m.expireToast(time.Now())
		return nil, false
	case event.KindRefresh:
		m.flushWarnings()
		m.refresh(false)
	case event.KindWatcher:
		m.refresh(true)
	case event.KindInput:
		cmd, quit = m.handleInput(ev.Input)
	case event.KindGit:
		m.applyGit(ev.Git)
	case event.KindApp:
		m.applyApp(ev.App)
	}

	m.spinner.SetState(m.AnyWorkPending())
	if !quit {
		m.render()
	}
	return cmd, quit
}

func (m *Model) flushWarnings() {
	if len(m.warnings) == 0 {
		return
	}
	m.showToast(strings.Join(m.warnings, "; "), true)
	m.warnings = nil
}

// refresh re-reads everything derived from the working tree. Status
// fingerprinting means an unchanged tree produces no status outcome, so
// the selected file's diff is requested here as well.
func (m *Model) refresh(fromWatcher bool) {
	m.jobs.Status.Spawn(struct{}{})
	m.jobs.Log.Spawn(gitjobs.LogRequest{Limit: m.cfg.Jobs.LogLimit})
	m.jobs.Tags.Spawn(struct{}{})

	if m.hasStatus {
		m.spawnDiff()
		if m.pane == paneBlame {
			m.spawnBlame()
		}
	}
	if fromWatcher && m.preview.open() {
		m.openPreview(m.preview.path, true)
	}
}

func (m *Model) discard(kind string, gen uint64) {
	m.logger.Debug("discarding stale outcome", "kind", kind, "generation", gen)
}

func (m *Model) applyGit(n notify.Git) {
	if n.Kind == notify.GitFinishUnchanged {
		return
	}
	// Progress is read from the slot when the status bar renders.
	if n.Phase == notify.PhaseProgress {
		return
	}

	switch n.Kind {
	case notify.GitStatus:
		m.applyStatus()
	case notify.GitDiff:
		m.applyDiff()
	case notify.GitBlame:
		m.applyBlame()
	case notify.GitLog:
		m.applyLog()
	case notify.GitTags:
		m.applyTags()
	case notify.GitCommitFiles:
		m.applyCommitFiles()
	case notify.GitFetch, notify.GitPush, notify.GitPushTags:
		m.applyRemote(n.Kind)
	}
}

func (m *Model) applyApp(n notify.App) {
	if n.Kind != notify.AppSyntaxHighlighting || n.Phase == notify.PhaseProgress {
		return
	}
	m.applyHighlight()
}

func (m *Model) applyStatus() {
	out, ok := m.jobs.Status.TakeResult()
	if !ok {
		return
	}
	if !m.jobs.Status.IsCurrent(out) {
		m.discard("status", out.Generation)
		m.jobs.Status.InvalidateFingerprint()
		return
	}
	if out.Err != nil {
		m.statusErr = out.Err
		m.hasStatus = true
		m.jobs.Status.InvalidateFingerprint()
		return
	}

	prev, hadSelection := m.selectedFile()
	m.status = out.Value
	m.statusErr = nil
	m.hasStatus = true
	m.files = out.Value.Entries()

	m.cursor = clamp(m.cursor, len(m.files))
	if hadSelection {
		for i, f := range m.files {
			if f.Path == prev.Path && f.Staged == prev.Staged {
				m.cursor = i
				break
			}
		}
	}

	m.spawnDiff()
	switch m.pane {
	case paneBlame:
		m.spawnBlame()
	case panePreview:
		if f, ok := m.selectedFile(); ok {
			m.openPreview(f.Path, false)
		}
	}
}

func (m *Model) spawnDiff() {
	f, ok := m.selectedFile()
	if !ok {
		m.diffWant = gitops.DiffParams{}
		m.diff = nil
		m.diffErr = nil
		return
	}
	want := gitops.DiffParams{Path: f.Path, Staged: f.Staged, Untracked: f.Untracked()}
	if want != m.diffWant {
		m.diff = nil
		m.diffErr = nil
	}
	m.diffWant = want
	m.jobs.Diff.Spawn(want)
}

func (m *Model) applyDiff() {
	out, ok := m.jobs.Diff.TakeResult()
	if !ok {
		return
	}
	if !m.jobs.Diff.IsCurrent(out) || out.Input != m.diffWant {
		m.discard("diff", out.Generation)
		return
	}
	if out.Err != nil {
		m.diff = nil
		m.diffErr = out.Err
		return
	}
	d := out.Value
	m.diff = &d
	m.diffErr = nil
}

func (m *Model) spawnBlame() {
	f, ok := m.selectedFile()
	if !ok {
		m.blamePath = ""
		m.blame = nil
		m.blameErr = nil
		return
	}
	if f.Path != m.blamePath {
		m.blame = nil
		m.blameErr = nil
	}
	m.blamePath = f.Path
	m.jobs.Blame.Spawn(f.Path)
}

func (m *Model) applyBlame() {
	out, ok := m.jobs.Blame.TakeResult()
	if !ok {
		return
	}
	if !m.jobs.Blame.IsCurrent(out) || m.pane != paneBlame || out.Input != m.blamePath {
		m.discard("blame", out.Generation)
		return
	}
	if out.Err != nil {
		m.blame = nil
		m.blameErr = out.Err
		return
	}
	b := out.Value
	m.blame = &b
	m.blameErr = nil
}

func (m *Model) applyLog() {
	out, ok := m.jobs.Log.TakeResult()
	if !ok {
		return
	}
	if !m.jobs.Log.IsCurrent(out) {
		m.discard("log", out.Generation)
		m.jobs.Log.InvalidateFingerprint()
		return
	}
	m.hasLog = true
	if out.Err != nil {
		m.logErr = out.Err
		m.jobs.Log.InvalidateFingerprint()
		return
	}

	prev, hadSelection := m.selectedCommit()
	m.commits = out.Value
	m.logErr = nil
	m.logCursor = clamp(m.logCursor, len(m.commits))
	if hadSelection {
		for i, c := range m.commits {
			if c.Hash == prev.Hash {
				m.logCursor = i
				break
			}
		}
	}
	m.spawnCommitFiles()
}

func (m *Model) applyTags() {
	out, ok := m.jobs.Tags.TakeResult()
	if !ok {
		return
	}
	if !m.jobs.Tags.IsCurrent(out) {
		m.discard("tags", out.Generation)
		m.jobs.Tags.InvalidateFingerprint()
		return
	}
	if out.Err != nil {
		m.logger.Warn("list tags", "err", out.Err)
		m.jobs.Tags.InvalidateFingerprint()
		return
	}
	m.tags = gitops.TagsByCommit(out.Value)
}

// spawnCommitFiles requests the file list of the selected commit. Commits
// are immutable, so a list that is loaded or already requested is kept.
func (m *Model) spawnCommitFiles() {
	c, ok := m.selectedCommit()
	if !ok {
		m.commitFiles = nil
		m.commitFilesErr = nil
		m.commitFilesWant = ""
		return
	}
	if m.commitFiles != nil && m.commitFiles.Commit == c.Hash {
		return
	}
	if m.commitFilesWant == c.Hash {
		return
	}
	m.commitFiles = nil
	m.commitFilesErr = nil
	m.commitFilesWant = c.Hash
	m.jobs.CommitFiles.Spawn(c.Hash)
}

func (m *Model) applyCommitFiles() {
	out, ok := m.jobs.CommitFiles.TakeResult()
	if !ok {
		return
	}
	c, selected := m.selectedCommit()
	if !selected || out.Input != c.Hash {
		m.discard("commit-files", out.Generation)
		return
	}
	if out.Err != nil {
		m.commitFiles = nil
		m.commitFilesErr = out.Err
		m.commitFilesWant = ""
		return
	}
	files := out.Value
	m.commitFiles = &files
	m.commitFilesErr = nil
}

func (m *Model) remote(kind notify.GitKind) (string, remoteSlot) {
	switch kind {
	case notify.GitPush:
		return "push", m.jobs.Push
	case notify.GitPushTags:
		return "push tags", m.jobs.PushTags
	}
	return "fetch", m.jobs.Fetch
}

// spawnRemote starts a network job unless one of the same kind is still
// running.
func (m *Model) spawnRemote(kind notify.GitKind) {
	name, slot := m.remote(kind)
	if slot.IsPending() {
		m.showToast(name+" already running", true)
		return
	}
	slot.Spawn(gitjobs.RemoteRequest{Remote: m.cfg.Remote.Name})
}

func (m *Model) applyRemote(kind notify.GitKind) {
	name, slot := m.remote(kind)
	out, ok := slot.TakeResult()
	if !ok {
		return
	}
	if !slot.IsCurrent(out) {
		m.discard(name, out.Generation)
		return
	}
	if out.Err != nil {
		m.logger.Warn(name+" failed", "remote", out.Input.Remote, "err", out.Err)
		m.showToast(name+" failed: "+firstLine(out.Err.Error()), true)
	} else {
		m.showToast(name+" complete", false)
	}

	m.jobs.Status.Spawn(struct{}{})
	m.jobs.Log.Spawn(gitjobs.LogRequest{Limit: m.cfg.Jobs.LogLimit})
	if kind != notify.GitPush {
		m.jobs.Tags.Spawn(struct{}{})
	}
}

func (m *Model) handleInput(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			break
		}
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			m.viewport.LineDown(3)
		case tea.MouseButtonWheelUp:
			m.viewport.LineUp(3)
		}
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil, false
}

func (m *Model) resize(width, height int) {
	widthChanged := width != m.width
	m.width = width
	m.height = height
	m.ready = true
	m.help.Width = width

	// Rendered markdown is wrapped to the pane width.
	if widthChanged && m.preview.open() && highlight.IsMarkdown(m.preview.path) {
		m.openPreview(m.preview.path, true)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	c, ok := m.keys.Match(msg)
	if !ok {
		return nil, false
	}

	switch c {
	case keymap.Quit:
		return tea.Quit, true
	case keymap.Refresh:
		m.refresh(false)
	case keymap.CursorDown:
		m.setCursor(m.activeCursor() + 1)
	case keymap.CursorUp:
		m.setCursor(m.activeCursor() - 1)
	case keymap.CursorTop:
		m.setCursor(0)
	case keymap.CursorBottom:
		m.setCursor(m.activeLen() - 1)
	case keymap.ScrollDown:
		m.viewport.HalfViewDown()
	case keymap.ScrollUp:
		m.viewport.HalfViewUp()
	case keymap.SwitchTab:
		m.switchTab()
	case keymap.TogglePreview:
		m.togglePane(panePreview)
	case keymap.Blame:
		m.togglePane(paneBlame)
	case keymap.Fetch:
		m.spawnRemote(notify.GitFetch)
	case keymap.Push:
		m.spawnRemote(notify.GitPush)
	case keymap.PushTags:
		m.spawnRemote(notify.GitPushTags)
	case keymap.Yank:
		return m.yank(), false
	case keymap.ToggleDiffLayout:
		m.toggleDiffLayout()
	case keymap.Back:
		m.setPane(paneDiff)
	case keymap.Help:
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil, false
}

func (m *Model) activeCursor() int {
	if m.tab == state.TabLog {
		return m.logCursor
	}
	return m.cursor
}

func (m *Model) activeLen() int {
	if m.tab == state.TabLog {
		return len(m.commits)
	}
	return len(m.files)
}

func (m *Model) setCursor(i int) {
	i = clamp(i, m.activeLen())
	if i == m.activeCursor() {
		return
	}

	if m.tab == state.TabLog {
		m.logCursor = i
		m.spawnCommitFiles()
		return
	}

	m.cursor = i
	m.spawnDiff()
	switch m.pane {
	case panePreview:
		if f, ok := m.selectedFile(); ok {
			m.openPreview(f.Path, false)
		}
	case paneBlame:
		m.spawnBlame()
	}
}

func (m *Model) switchTab() {
	if m.tab == state.TabLog {
		m.tab = state.TabStatus
	} else {
		m.tab = state.TabLog
		m.spawnCommitFiles()
	}
	if err := state.SetLastTab(m.tab); err != nil {
		m.logger.Warn("save state", "err", err)
	}
}

func (m *Model) togglePane(p pane) {
	if m.tab != state.TabStatus {
		return
	}
	if m.pane == p {
		m.setPane(paneDiff)
		return
	}
	m.setPane(p)
}

func (m *Model) setPane(p pane) {
	if p == m.pane {
		return
	}
	switch m.pane {
	case panePreview:
		m.closePreview()
	case paneBlame:
		m.blamePath = ""
		m.blame = nil
		m.blameErr = nil
	}

	m.pane = p
	switch p {
	case panePreview:
		if f, ok := m.selectedFile(); ok {
			m.openPreview(f.Path, false)
		}
	case paneBlame:
		m.spawnBlame()
	}
}

func (m *Model) toggleDiffLayout() {
	if m.diffLayout == state.DiffCompact {
		m.diffLayout = state.DiffUnified
	} else {
		m.diffLayout = state.DiffCompact
	}
	if err := state.SetDiffLayout(m.diffLayout); err != nil {
		m.logger.Warn("save state", "err", err)
	}
}

func (m *Model) yank() tea.Cmd {
	if m.tab == state.TabLog {
		if c, ok := m.selectedCommit(); ok {
			return copyToClipboard(c.Hash, "commit "+c.Short)
		}
		return nil
	}
	if f, ok := m.selectedFile(); ok {
		return copyToClipboard(f.Path, f.Path)
	}
	return nil
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
