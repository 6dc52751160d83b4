package gitops

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"
)

// BlameLine attributes one line of a file to a commit.
type BlameLine struct {
	Commit string
	Author string
	Time   time.Time
	LineNo int
	Text   string
}

// ShortCommit returns the abbreviated commit hash.
func (l BlameLine) ShortCommit() string {
	if len(l.Commit) > 7 {
		return l.Commit[:7]
	}
	return l.Commit
}

// Uncommitted reports whether the line has not been committed yet.
func (l BlameLine) Uncommitted() bool {
	return strings.Trim(l.Commit, "0") == ""
}

// FileBlame is the blame of one file at HEAD plus working tree changes.
type FileBlame struct {
	Path  string
	Lines []BlameLine
}

// Blame runs git blame on path.
func Blame(ctx context.Context, dir, path string) (FileBlame, error) {
	out, err := run(ctx, dir, "blame", "--porcelain", "--", path)
	if err != nil {
		return FileBlame{}, err
	}
	b := parseBlame(out)
	b.Path = path
	return b, nil
}

type blameCommit struct {
	author string
	time   time.Time
}

// parseBlame parses `git blame --porcelain`. Commit metadata is only
// printed the first time a commit appears.
func parseBlame(out []byte) FileBlame {
	var fb FileBlame
	commits := make(map[string]*blameCommit)

	var cur *blameCommit
	var curHash string
	var curLine int

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "\t") {
			bl := BlameLine{Commit: curHash, LineNo: curLine, Text: line[1:]}
			if cur != nil {
				bl.Author = cur.author
				bl.Time = cur.time
			}
			fb.Lines = append(fb.Lines, bl)
			continue
		}

		key, val, _ := strings.Cut(line, " ")
		if len(key) == 40 && isHex(key) {
			// <hash> <orig-line> <final-line> [<group-size>]
			fields := strings.Fields(val)
			curHash = key
			if len(fields) >= 2 {
				curLine, _ = strconv.Atoi(fields[1])
			}
			cur = commits[key]
			if cur == nil {
				cur = &blameCommit{}
				commits[key] = cur
			}
			continue
		}

		if cur == nil {
			continue
		}
		switch key {
		case "author":
			cur.author = val
		case "author-time":
			if sec, err := strconv.ParseInt(val, 10, 64); err == nil {
				cur.time = time.Unix(sec, 0)
			}
		}
	}
	return fb
}

func isHex(s string) bool {
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
