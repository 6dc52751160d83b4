package highlight

import (
	"context"

	"github.com/marcus/gitpane/internal/asyncjob"
	"github.com/marcus/gitpane/internal/notify"
)

// Request is the owned input of a highlighting job. File is read on the
// worker; Path is what the consumer compares against its preview.
type Request struct {
	Path     string
	File     string
	TabWidth int
	Width    int
}

// Result holds the file as plain lines and, unless highlighting failed,
// as rendered lines.
type Result struct {
	Path      string
	Plain     []string
	Lines     []string
	Truncated bool

	// HighlightErr is set when the file was read but could not be rendered.
	HighlightErr error
}

// Load reads and renders req. A read failure is returned as the error; a
// rendering failure still returns the plain lines.
func (h *Highlighter) Load(ctx context.Context, req Request, report func(percent int)) (Result, error) {
	content, plain, truncated, err := LoadText(req.File, req.TabWidth)
	if err != nil {
		return Result{Path: req.Path}, err
	}
	res := Result{Path: req.Path, Plain: plain, Truncated: truncated}
	res.Lines, res.HighlightErr = h.Highlight(ctx, content, req.Path, req.Width, report)
	return res, nil
}

// NewSlot creates the highlighting slot. It signals the application bus.
func NewSlot(pool *asyncjob.Pool, h *Highlighter, bus notify.AppSender) *asyncjob.Slot[Request, Result] {
	return asyncjob.NewSlot(pool,
		func(ctx context.Context, req Request, report asyncjob.ProgressFunc) (Result, error) {
			return h.Load(ctx, req, func(pct int) {
				report(asyncjob.Progress{Percent: pct})
			})
		},
		func(phase notify.Phase, _ bool) {
			bus.Send(notify.App{Kind: notify.AppSyntaxHighlighting, Phase: phase})
		})
}
