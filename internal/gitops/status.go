package gitops

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"strings"
)

// FileStatus is the single-letter git status of a file.
type FileStatus string

const (
	StatusModified   FileStatus = "M"
	StatusAdded      FileStatus = "A"
	StatusDeleted    FileStatus = "D"
	StatusRenamed    FileStatus = "R"
	StatusCopied     FileStatus = "C"
	StatusTypeChange FileStatus = "T"
	StatusUntracked  FileStatus = "?"
	StatusUnmerged   FileStatus = "U"
)

// FileEntry is one changed file. A file with both staged and unstaged
// changes appears twice, once per side.
type FileEntry struct {
	Path    string
	OldPath string
	Status  FileStatus
	Staged  bool
}

// Untracked reports whether the file is not yet known to git.
func (e FileEntry) Untracked() bool {
	return e.Status == StatusUntracked
}

// StatusResult is a snapshot of the working tree.
type StatusResult struct {
	Branch    string
	Upstream  string
	Ahead     int
	Behind    int
	Staged    []FileEntry
	Unstaged  []FileEntry
	Untracked []FileEntry
}

// Entries returns every file in display order: staged, unstaged, untracked.
func (s StatusResult) Entries() []FileEntry {
	all := make([]FileEntry, 0, len(s.Staged)+len(s.Unstaged)+len(s.Untracked))
	all = append(all, s.Staged...)
	all = append(all, s.Unstaged...)
	all = append(all, s.Untracked...)
	return all
}

// Clean reports whether nothing has changed.
func (s StatusResult) Clean() bool {
	return len(s.Staged)+len(s.Unstaged)+len(s.Untracked) == 0
}

// Summary returns a summary string like "2 staged, 3 modified".
func (s StatusResult) Summary() string {
	var parts []string
	if n := len(s.Staged); n > 0 {
		parts = append(parts, strconv.Itoa(n)+" staged")
	}
	if n := len(s.Unstaged); n > 0 {
		parts = append(parts, strconv.Itoa(n)+" modified")
	}
	if n := len(s.Untracked); n > 0 {
		parts = append(parts, strconv.Itoa(n)+" untracked")
	}
	if len(parts) == 0 {
		return "clean"
	}
	return strings.Join(parts, ", ")
}

// TrackingInfo formats ahead/behind counts, e.g. "↑2↓1".
func (s StatusResult) TrackingInfo() string {
	var b strings.Builder
	if s.Ahead > 0 {
		b.WriteString("↑" + strconv.Itoa(s.Ahead))
	}
	if s.Behind > 0 {
		b.WriteString("↓" + strconv.Itoa(s.Behind))
	}
	return b.String()
}

// Status reads the working tree status.
func Status(ctx context.Context, dir string) (StatusResult, error) {
	out, err := run(ctx, dir, "status", "--porcelain=v2", "--branch", "-z", "--untracked-files=all")
	if err != nil {
		return StatusResult{}, err
	}
	return parseStatus(out), nil
}

// parseStatus parses `git status --porcelain=v2 --branch -z` output.
func parseStatus(out []byte) StatusResult {
	var res StatusResult
	parts := bytes.Split(out, []byte{0})

	for i := 0; i < len(parts); i++ {
		line := string(parts[i])
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "# "):
			res.parseHeader(line[2:])

		case strings.HasPrefix(line, "1 "):
			// 1 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <path>
			fields := strings.SplitN(line, " ", 9)
			if len(fields) == 9 {
				res.add(fields[1], fields[8], "")
			}

		case strings.HasPrefix(line, "2 "):
			// 2 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <X><score> <path>, then <origPath>
			fields := strings.SplitN(line, " ", 10)
			var orig string
			if i+1 < len(parts) {
				i++
				orig = string(parts[i])
			}
			if len(fields) == 10 {
				res.add(fields[1], fields[9], orig)
			}

		case strings.HasPrefix(line, "u "):
			// u <XY> <sub> <m1> <m2> <m3> <mW> <h1> <h2> <h3> <path>
			fields := strings.SplitN(line, " ", 11)
			if len(fields) == 11 {
				res.Unstaged = append(res.Unstaged, FileEntry{Path: fields[10], Status: StatusUnmerged})
			}

		case strings.HasPrefix(line, "? "):
			res.Untracked = append(res.Untracked, FileEntry{Path: line[2:], Status: StatusUntracked})
		}
	}

	byPath := func(list []FileEntry) {
		sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	}
	byPath(res.Staged)
	byPath(res.Unstaged)
	byPath(res.Untracked)
	return res
}

func (s *StatusResult) parseHeader(h string) {
	key, val, _ := strings.Cut(h, " ")
	switch key {
	case "branch.head":
		s.Branch = val
	case "branch.upstream":
		s.Upstream = val
	case "branch.ab":
		// +<ahead> -<behind>
		for _, f := range strings.Fields(val) {
			n, err := strconv.Atoi(f[1:])
			if err != nil {
				continue
			}
			if f[0] == '+' {
				s.Ahead = n
			} else if f[0] == '-' {
				s.Behind = n
			}
		}
	}
}

// add records an ordinary or renamed entry. X is the index side, Y the
// worktree side; '.' means unchanged.
func (s *StatusResult) add(xy, path, orig string) {
	if len(xy) < 2 {
		return
	}
	if x := xy[0]; x != '.' {
		s.Staged = append(s.Staged, FileEntry{Path: path, OldPath: orig, Status: FileStatus(string(x)), Staged: true})
	}
	if y := xy[1]; y != '.' {
		s.Unstaged = append(s.Unstaged, FileEntry{Path: path, Status: FileStatus(string(y))})
	}
}
