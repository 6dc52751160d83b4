package gitops

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// DiffParams selects which side of a file to diff.
type DiffParams struct {
	Path      string
	Staged    bool
	Untracked bool
}

// DiffLineKind classifies a line of unified diff output.
type DiffLineKind int

const (
	LineContext DiffLineKind = iota
	LineAdd
	LineDelete
	LineHunk
	LineHeader
)

// DiffLine is one parsed diff line. Line numbers are zero where they do not
// apply.
type DiffLine struct {
	Kind  DiffLineKind
	Text  string
	OldNo int
	NewNo int
}

// FileDiff is the parsed diff of one file.
type FileDiff struct {
	Path      string
	Staged    bool
	Binary    bool
	Lines     []DiffLine
	Additions int
	Deletions int
}

// Empty reports whether the diff has no hunks.
func (d FileDiff) Empty() bool {
	for _, l := range d.Lines {
		if l.Kind == LineHunk {
			return false
		}
	}
	return !d.Binary
}

// Diff computes the diff of a single file. Untracked files are diffed
// against /dev/null.
func Diff(ctx context.Context, dir string, p DiffParams) (FileDiff, error) {
	var (
		out []byte
		err error
	)
	switch {
	case p.Untracked:
		out, err = runDiffNoIndex(ctx, dir, p.Path)
	case p.Staged:
		out, err = run(ctx, dir, "diff", "--no-color", "--no-ext-diff", "--cached", "--", p.Path)
	default:
		out, err = run(ctx, dir, "diff", "--no-color", "--no-ext-diff", "--", p.Path)
	}
	if err != nil {
		return FileDiff{}, err
	}

	d := parseDiff(out)
	d.Path = p.Path
	d.Staged = p.Staged
	return d, nil
}

// runDiffNoIndex runs `git diff --no-index`, which exits 1 when the inputs
// differ.
func runDiffNoIndex(ctx context.Context, dir, path string) ([]byte, error) {
	out, err := run(ctx, dir, "diff", "--no-color", "--no-ext-diff", "--no-index", "--", os.DevNull, path)
	var ce *CommandError
	if errors.As(err, &ce) && ce.ExitCode() == 1 {
		return []byte(ce.Output), nil
	}
	return out, err
}

var hunkRe = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

func parseDiff(out []byte) FileDiff {
	var d FileDiff
	var oldNo, newNo int
	inHunk := false

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := hunkRe.FindStringSubmatch(line); m != nil {
			oldNo, _ = strconv.Atoi(m[1])
			newNo, _ = strconv.Atoi(m[2])
			inHunk = true
			d.Lines = append(d.Lines, DiffLine{Kind: LineHunk, Text: line})
			continue
		}

		if !inHunk || strings.HasPrefix(line, "diff --git ") {
			inHunk = false
			if strings.HasPrefix(line, "Binary files ") {
				d.Binary = true
			}
			d.Lines = append(d.Lines, DiffLine{Kind: LineHeader, Text: line})
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			d.Lines = append(d.Lines, DiffLine{Kind: LineAdd, Text: line[1:], NewNo: newNo})
			newNo++
			d.Additions++
		case strings.HasPrefix(line, "-"):
			d.Lines = append(d.Lines, DiffLine{Kind: LineDelete, Text: line[1:], OldNo: oldNo})
			oldNo++
			d.Deletions++
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file"
			d.Lines = append(d.Lines, DiffLine{Kind: LineHeader, Text: line})
		default:
			text := line
			if text != "" {
				text = text[1:]
			}
			d.Lines = append(d.Lines, DiffLine{Kind: LineContext, Text: text, OldNo: oldNo, NewNo: newNo})
			oldNo++
			newNo++
		}
	}
	return d
}
