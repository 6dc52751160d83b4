package highlight

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// MaxFileSize bounds how much of a file is read for preview.
const MaxFileSize = 1 << 20

// DefaultTabWidth is used when no tab width is configured.
const DefaultTabWidth = 4

// ErrBinary is returned by ReadFile for content that is not text.
var ErrBinary = errors.New("binary file")

// ReadFile reads up to MaxFileSize bytes of path. truncated is true when
// the file was longer.
func ReadFile(path string) (content string, truncated bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > MaxFileSize {
		data = data[:MaxFileSize]
		truncated = true
	}
	if isBinary(data) {
		return "", truncated, ErrBinary
	}
	return string(data), truncated, nil
}

// LoadText reads path for display with tabs expanded. lines is the content
// split into lines without the trailing newline.
func LoadText(path string, tabWidth int) (content string, lines []string, truncated bool, err error) {
	content, truncated, err = ReadFile(path)
	if err != nil {
		return "", nil, truncated, err
	}
	content = ExpandTabs(content, tabWidth)
	return content, strings.Split(strings.TrimSuffix(content, "\n"), "\n"), truncated, nil
}

func isBinary(data []byte) bool {
	head := data
	if len(head) > 8000 {
		head = head[:8000]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	// A cut at MaxFileSize may split a multi-byte rune at the very end.
	for len(head) > 0 {
		r, size := utf8.DecodeRune(head)
		if r == utf8.RuneError && size == 1 && len(head) > utf8.UTFMax {
			return true
		}
		head = head[size:]
	}
	return false
}

// ExpandTabs replaces every tab with spaces up to the next tab stop,
// counting columns by display width.
func ExpandTabs(s string, width int) string {
	if width <= 0 {
		width = DefaultTabWidth
	}
	if !strings.ContainsRune(s, '\t') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := width - col%width
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col += runewidth.RuneWidth(r)
		}
	}
	return b.String()
}
