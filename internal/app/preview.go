package app

import (
	"fmt"
	"path/filepath"

	"github.com/marcus/gitpane/internal/highlight"
)

// preview is the file shown in place of the diff. The file is read and
// highlighted by one job; until it returns the pane shows a loading line.
type preview struct {
	path      string
	loaded    bool
	plain     []string
	lines     []string
	truncated bool
	err       error
	hlErr     error
}

func (p preview) open() bool {
	return p.path != ""
}

// openPreview starts loading path into the preview. Reopening the current
// path is a no-op unless force is set; a forced reload keeps showing the
// old content until the new job returns.
func (m *Model) openPreview(path string, force bool) {
	if m.preview.path == path {
		if !force {
			return
		}
	} else {
		m.preview = preview{path: path}
	}

	m.hl.Spawn(highlight.Request{
		Path:     path,
		File:     filepath.Join(m.jobs.Dir, path),
		TabWidth: m.cfg.UI.TabWidth,
		Width:    m.rightInnerWidth(),
	})
}

func (m *Model) closePreview() {
	m.preview = preview{}
}

// applyHighlight takes the loading outcome and keeps it only when it comes
// from the latest spawn for the file still being previewed.
func (m *Model) applyHighlight() {
	out, ok := m.hl.TakeResult()
	if !ok {
		return
	}
	if !m.hl.IsCurrent(out) || !m.preview.open() || out.Input.Path != m.preview.path {
		m.logger.Debug("discarding stale outcome", "kind", "syntax-highlighting",
			"path", out.Input.Path, "generation", out.Generation)
		return
	}

	p := preview{path: m.preview.path, loaded: true}
	if out.Err != nil {
		p.err = out.Err
		m.preview = p
		return
	}
	p.plain = out.Value.Plain
	p.truncated = out.Value.Truncated
	if out.Value.HighlightErr != nil {
		m.logger.Warn("highlight failed", "path", out.Input.Path, "err", out.Value.HighlightErr)
		p.hlErr = out.Value.HighlightErr
	} else {
		p.lines = out.Value.Lines
	}
	m.preview = p
}

func (m *Model) previewTitle() string {
	title := m.preview.path
	if m.preview.truncated {
		title += " [truncated]"
	}
	if m.preview.hlErr != nil {
		title += " [plain]"
	}
	if m.hl.IsPending() {
		pct := 0
		if p, ok := m.hl.Progress(); ok {
			pct = p.Percent
		}
		title += fmt.Sprintf(" (%d%%)", pct)
	}
	return title
}

func (m *Model) previewLines() []string {
	switch {
	case m.preview.err != nil:
		return []string{errorLine("error loading file: " + m.preview.err.Error())}
	case !m.preview.loaded:
		return []string{mutedLine("loading…")}
	case m.preview.lines != nil:
		return m.preview.lines
	}
	return m.preview.plain
}
