package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/gitpane/internal/gitops"
	"github.com/marcus/gitpane/internal/highlight"
	"github.com/marcus/gitpane/internal/state"
	"github.com/marcus/gitpane/internal/styles"
	"github.com/mattn/go-runewidth"
)

const (
	headerHeight    = 1
	statusBarHeight = 1
	minWidth        = 60
	minHeight       = 10
	minListWidth    = 24
	defaultWidth    = 80
)

// View renders the entire application UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		msg := fmt.Sprintf("Terminal too small (%dx%d)\nMinimum: %dx%d",
			m.width, m.height, minWidth, minHeight)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.ErrorText.Render(msg))
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.body)
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	if m.cfg.UI.ShowFooter {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}
	return b.String()
}

// render rebuilds the cached body.
func (m *Model) render() {
	if !m.ready {
		return
	}
	h := m.bodyHeight()
	leftW, rightW := m.columns()

	var left, right string
	if m.tab == state.TabLog {
		left = m.renderCommitList(leftW, h)
		right = m.renderRightPane("commit", m.commitDetailTitle(), m.commitDetailLines(rightW-2), rightW, h)
	} else {
		left = m.renderFileList(leftW, h)
		key, title, lines := m.statusRightPane(rightW - 2)
		right = m.renderRightPane(key, title, lines, rightW, h)
	}
	m.body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m *Model) bodyHeight() int {
	h := m.height - headerHeight - statusBarHeight
	if m.cfg.UI.ShowFooter {
		h -= lipgloss.Height(m.renderFooter())
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) columns() (int, int) {
	left := m.width * 2 / 5
	if left < minListWidth {
		left = minListWidth
	}
	return left, m.width - left
}

// rightInnerWidth is the content width of the right pane, used to wrap
// rendered markdown.
func (m *Model) rightInnerWidth() int {
	if m.width == 0 {
		return defaultWidth
	}
	_, right := m.columns()
	return right - 2
}

func (m Model) renderHeader() string {
	tabs := styles.RenderTab("Status", m.tab == state.TabStatus) + " " +
		styles.RenderTab("Log", m.tab == state.TabLog)
	repo := styles.Title.Render(" " + m.repoName())
	return styles.Header.Width(m.width).Render(tabs + repo)
}

func (m Model) renderStatusBar() string {
	left := m.spinner.View() + " "
	if m.hasStatus && m.statusErr == nil {
		left += styles.Title.Render(m.status.Branch)
		if t := m.status.TrackingInfo(); t != "" {
			left += " " + styles.BarText.Render(t)
		}
		left += " " + styles.Muted.Render(m.status.Summary())
	}
	if name, p, ok := m.jobs.RemoteProgress(); ok {
		left += "  " + styles.BarText.Render(name+": "+p.String())
	}

	right := ""
	if m.toast != "" {
		if m.toastIsErr {
			right = styles.ToastError.Render(m.toast)
		} else {
			right = styles.ToastSuccess.Render(m.toast)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		left = ansi.Truncate(left, m.width-lipgloss.Width(right)-1, "…")
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderFooter() string {
	return styles.Footer.Width(m.width).Render(m.help.View(m.keys))
}

// panel draws the focused list box of outer size w×h with a title line.
func panel(title string, lines []string, w, h int) string {
	inner := w - 2
	rows := h - 3
	if inner < 1 || rows < 0 {
		return ""
	}

	out := make([]string, 0, rows+1)
	out = append(out, styles.PanelTitle.Render(ansi.Truncate(title, inner, "…")))
	for i := 0; i < rows && i < len(lines); i++ {
		out = append(out, ansi.Truncate(lines[i], inner, "…"))
	}

	return styles.PanelActive.Width(inner).Height(h - 2).Render(strings.Join(out, "\n"))
}

// visibleRange returns the slice bounds of an n-item list that keep cursor
// on screen.
func visibleRange(n, cursor, rows int) (int, int) {
	if rows <= 0 || n == 0 {
		return 0, 0
	}
	start := 0
	if cursor >= rows {
		start = cursor - rows + 1
	}
	end := start + rows
	if end > n {
		end = n
	}
	return start, end
}

func errorLine(s string) string {
	return styles.ErrorText.Render(s)
}

func mutedLine(s string) string {
	return styles.Muted.Render(s)
}

func listLine(text string, selected bool, width int) string {
	if selected {
		return styles.ListCursor.Render("▸ ") + styles.ListItemSelected.Render(ansi.Truncate(text, width-2, "…"))
	}
	return "  " + styles.ListItemNormal.Render(ansi.Truncate(text, width-2, "…"))
}

func (m *Model) renderFileList(w, h int) string {
	title := fmt.Sprintf("Changes (%d)", len(m.files))
	var lines []string
	switch {
	case m.statusErr != nil:
		lines = []string{errorLine(m.statusErr.Error())}
	case !m.hasStatus:
		lines = []string{mutedLine("loading…")}
	case len(m.files) == 0:
		lines = []string{mutedLine("working tree clean")}
	default:
		inner := w - 2
		start, end := visibleRange(len(m.files), m.cursor, h-3)
		for i := start; i < end; i++ {
			f := m.files[i]
			code := string(f.Status)
			side := " "
			if f.Staged {
				side = "+"
			}
			path := f.Path
			if f.OldPath != "" {
				path = f.OldPath + " → " + f.Path
			}
			avail := inner - 6
			if avail < 1 {
				avail = 1
			}
			text := styles.StatusStyle(code, f.Staged).Render(code) + side + " " +
				runewidth.Truncate(path, avail, "…")
			lines = append(lines, listLine(text, i == m.cursor, inner))
		}
	}
	return panel(title, lines, w, h)
}

// statusRightPane returns the subject key, title and lines of the pane next
// to the file list.
func (m *Model) statusRightPane(width int) (string, string, []string) {
	switch m.pane {
	case panePreview:
		return "preview:" + m.preview.path, m.previewTitle(), m.previewLines()
	case paneBlame:
		return "blame:" + m.blamePath, "blame: " + m.blamePath, m.blameLines()
	}
	return m.diffKey(), m.diffTitle(), m.diffLines(width)
}

// renderRightPane draws lines through the viewport. The scroll position is
// kept while key stays the same and reset when the subject changes.
func (m *Model) renderRightPane(key, title string, lines []string, w, h int) string {
	inner := w - 2
	rows := h - 3
	if inner < 1 || rows < 1 {
		return ""
	}

	clipped := make([]string, len(lines))
	for i, l := range lines {
		clipped[i] = ansi.Truncate(l, inner, "…")
	}
	m.viewport.Width = inner
	m.viewport.Height = rows
	m.viewport.SetContent(strings.Join(clipped, "\n"))
	if key != m.rightKey {
		m.viewport.GotoTop()
		m.rightKey = key
	}

	body := styles.PanelTitle.Render(ansi.Truncate(title, inner, "…")) + "\n" + m.viewport.View()
	return styles.PanelInactive.Width(inner).Height(h - 2).Render(body)
}

func (m *Model) diffKey() string {
	return fmt.Sprintf("diff:%s:%t", m.diffWant.Path, m.diffWant.Staged)
}

func (m *Model) diffTitle() string {
	if m.diffWant.Path == "" {
		return "Diff"
	}
	title := m.diffWant.Path
	if m.diffWant.Staged {
		title += " (staged)"
	}
	if m.diff != nil && !m.diff.Binary {
		title += fmt.Sprintf(" +%d -%d", m.diff.Additions, m.diff.Deletions)
	}
	if m.diffLayout == state.DiffCompact {
		title += " [compact]"
	}
	return title
}

func (m *Model) diffLines(width int) []string {
	switch {
	case m.diffErr != nil:
		return []string{errorLine(m.diffErr.Error())}
	case m.diffWant.Path == "":
		return []string{mutedLine("no file selected")}
	case m.diff == nil:
		return []string{mutedLine("loading…")}
	case m.diff.Binary:
		return []string{mutedLine("binary file")}
	case m.diff.Empty():
		return []string{mutedLine("no changes")}
	}

	compact := m.diffLayout == state.DiffCompact
	lines := make([]string, 0, len(m.diff.Lines))
	for _, l := range m.diff.Lines {
		text := highlight.ExpandTabs(l.Text, m.cfg.UI.TabWidth)
		switch l.Kind {
		case gitops.LineHeader:
			if compact {
				continue
			}
			lines = append(lines, styles.DiffHeader.Render(text))
		case gitops.LineHunk:
			lines = append(lines, styles.DiffHunk.Render(text))
		case gitops.LineAdd:
			lines = append(lines, lineNumbers(0, l.NewNo)+styles.DiffAdd.Render("+"+text))
		case gitops.LineDelete:
			lines = append(lines, lineNumbers(l.OldNo, 0)+styles.DiffRemove.Render("-"+text))
		case gitops.LineContext:
			if compact {
				continue
			}
			lines = append(lines, lineNumbers(l.OldNo, l.NewNo)+styles.DiffContext.Render(" "+text))
		}
	}
	return lines
}

func lineNumbers(oldNo, newNo int) string {
	num := func(n int) string {
		if n == 0 {
			return "    "
		}
		return fmt.Sprintf("%4d", n)
	}
	return styles.LineNumber.Render(num(oldNo)+" "+num(newNo)) + " "
}

func (m *Model) blameLines() []string {
	switch {
	case m.blameErr != nil:
		return []string{errorLine(m.blameErr.Error())}
	case m.blame == nil:
		return []string{mutedLine("loading…")}
	}

	lines := make([]string, 0, len(m.blame.Lines))
	for _, l := range m.blame.Lines {
		hash := styles.Hash.Render(l.ShortCommit())
		author := l.Author
		date := "          "
		if l.Uncommitted() {
			hash = styles.Muted.Render("0000000")
			author = "Not Committed"
		} else if !l.Time.IsZero() {
			date = l.Time.Format("2006-01-02")
		}
		author = runewidth.FillRight(runewidth.Truncate(author, 14, "…"), 14)
		text := highlight.ExpandTabs(l.Text, m.cfg.UI.TabWidth)
		lines = append(lines, fmt.Sprintf("%s %s %s %s │ %s",
			hash, styles.BarText.Render(author), styles.Muted.Render(date),
			styles.LineNumber.Render(fmt.Sprintf("%4d", l.LineNo)), text))
	}
	return lines
}

func (m *Model) renderCommitList(w, h int) string {
	title := fmt.Sprintf("Commits (%d)", len(m.commits))
	var lines []string
	switch {
	case m.logErr != nil:
		lines = []string{errorLine(m.logErr.Error())}
	case !m.hasLog:
		lines = []string{mutedLine("loading…")}
	case len(m.commits) == 0:
		lines = []string{mutedLine("no commits yet")}
	default:
		inner := w - 2
		start, end := visibleRange(len(m.commits), m.logCursor, h-3)
		for i := start; i < end; i++ {
			c := m.commits[i]
			text := styles.Hash.Render(c.Short) + " "
			for _, tag := range m.tags[c.Hash] {
				text += styles.TagLabel.Render("("+tag+")") + " "
			}
			text += c.Subject
			lines = append(lines, listLine(text, i == m.logCursor, inner))
		}
	}
	return panel(title, lines, w, h)
}

func (m *Model) commitDetailTitle() string {
	c, ok := m.selectedCommit()
	if !ok {
		return "Commit"
	}
	return "commit " + c.Short
}

func (m *Model) commitDetailLines(width int) []string {
	c, ok := m.selectedCommit()
	if !ok {
		return []string{mutedLine("no commit selected")}
	}

	lines := []string{
		styles.Hash.Render(c.Hash),
		styles.BarText.Render("Author: ") + c.Author,
		styles.BarText.Render("Date:   ") + c.Time.Format("Mon Jan 2 15:04:05 2006 -0700"),
	}
	if tags := m.tags[c.Hash]; len(tags) > 0 {
		lines = append(lines, styles.BarText.Render("Tags:   ")+styles.TagLabel.Render(strings.Join(tags, ", ")))
	}
	lines = append(lines, "", styles.Title.Render(c.Subject), "")

	switch {
	case m.commitFilesErr != nil:
		lines = append(lines, errorLine(m.commitFilesErr.Error()))
	case m.commitFiles == nil:
		lines = append(lines, mutedLine("loading files…"))
	case len(m.commitFiles.Files) == 0:
		lines = append(lines, mutedLine("no files changed"))
	default:
		for _, f := range m.commitFiles.Files {
			path := f.Path
			if f.OldPath != "" {
				path = f.OldPath + " → " + f.Path
			}
			code := string(f.Status)
			lines = append(lines, styles.StatusStyle(code, true).Render(code)+" "+
				runewidth.Truncate(path, max(width-2, 1), "…"))
		}
	}
	return lines
}
