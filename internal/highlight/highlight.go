// Package highlight turns file content into terminal-colored lines. Source
// code goes through chroma; markdown is rendered with glamour.
package highlight

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
)

const (
	DefaultTheme         = "monokai"
	DefaultMarkdownStyle = "dark"
	minWrap              = 20
)

// Options configures a Highlighter.
type Options struct {
	Theme         string
	MarkdownStyle string
}

// Highlighter is safe for concurrent use.
type Highlighter struct {
	style         *chroma.Style
	formatter     chroma.Formatter
	markdownStyle string

	mu        sync.Mutex
	renderers map[int]*sync.Pool
}

// New creates a highlighter. Unknown chroma themes fall back to chroma's
// default style.
func New(opts Options) *Highlighter {
	if opts.Theme == "" {
		opts.Theme = DefaultTheme
	}
	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = DefaultMarkdownStyle
	}
	return &Highlighter{
		style:         styles.Get(opts.Theme),
		formatter:     formatters.TTY256,
		markdownStyle: opts.MarkdownStyle,
		renderers:     make(map[int]*sync.Pool),
	}
}

// IsMarkdown reports whether path is rendered as markdown.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// Highlight renders content as lines. report, if set, receives the
// percentage of lines done each time it changes. width is the wrap width
// for markdown and is ignored for code.
func (h *Highlighter) Highlight(ctx context.Context, content, path string, width int, report func(percent int)) ([]string, error) {
	if report == nil {
		report = func(int) {}
	}
	if IsMarkdown(path) {
		return h.markdown(content, width, report)
	}
	return h.code(ctx, content, path, report)
}

func (h *Highlighter) code(ctx context.Context, content, path string, report func(int)) ([]string, error) {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, content)
	if err != nil {
		return nil, fmt.Errorf("tokenise %s: %w", path, err)
	}
	tokenLines := chroma.SplitTokensIntoLines(it.Tokens())

	out := make([]string, 0, len(tokenLines))
	last := -1
	var buf bytes.Buffer
	for i, tokens := range tokenLines {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		buf.Reset()
		if err := h.formatter.Format(&buf, h.style, chroma.Literator(tokens...)); err != nil {
			return nil, fmt.Errorf("format %s: %w", path, err)
		}
		out = append(out, strings.ReplaceAll(buf.String(), "\n", ""))

		if pct := (i + 1) * 100 / len(tokenLines); pct != last {
			last = pct
			report(pct)
		}
	}

	return out, nil
}

func (h *Highlighter) markdown(content string, width int, report func(int)) ([]string, error) {
	if width < minWrap {
		width = 80
	}
	r, err := h.renderer(width)
	if err != nil {
		return nil, err
	}
	rendered, err := r.Render(content)
	h.putRenderer(width, r)
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	report(100)
	return strings.Split(strings.TrimRight(rendered, "\n"), "\n"), nil
}

// renderer returns a pooled glamour renderer for width; a TermRenderer is
// not safe for concurrent use.
func (h *Highlighter) renderer(width int) (*glamour.TermRenderer, error) {
	h.mu.Lock()
	pool, ok := h.renderers[width]
	if !ok {
		pool = &sync.Pool{}
		h.renderers[width] = pool
	}
	h.mu.Unlock()

	if r, _ := pool.Get().(*glamour.TermRenderer); r != nil {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(h.markdownStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return r, nil
}

func (h *Highlighter) putRenderer(width int, r *glamour.TermRenderer) {
	h.mu.Lock()
	pool := h.renderers[width]
	h.mu.Unlock()
	if pool != nil {
		pool.Put(r)
	}
}
