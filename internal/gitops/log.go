package gitops

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Commit is one entry of the revision log.
type Commit struct {
	Hash    string
	Short   string
	Author  string
	Time    time.Time
	Subject string
}

// Tag is a tag name and the commit it points at.
type Tag struct {
	Name   string
	Commit string
}

// CommitFile is one file touched by a commit.
type CommitFile struct {
	Path    string
	OldPath string
	Status  FileStatus
}

// CommitFiles lists the files of one commit.
type CommitFiles struct {
	Commit string
	Files  []CommitFile
}

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Log returns up to limit commits reachable from HEAD, newest first. A
// repository without commits yields an empty log.
func Log(ctx context.Context, dir string, limit int) ([]Commit, error) {
	args := []string{"log", "--format=%H%x1f%h%x1f%an%x1f%at%x1f%s%x1e"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	out, err := run(ctx, dir, args...)
	if err != nil {
		var ce *CommandError
		if errors.As(err, &ce) && strings.Contains(ce.Output, "does not have any commits") {
			return nil, nil
		}
		return nil, err
	}
	return parseLog(out), nil
}

func parseLog(out []byte) []Commit {
	var commits []Commit
	for _, rec := range strings.Split(string(out), recordSep) {
		rec = strings.TrimLeft(rec, "\n")
		if rec == "" {
			continue
		}
		f := strings.Split(rec, fieldSep)
		if len(f) < 5 {
			continue
		}
		c := Commit{Hash: f[0], Short: f[1], Author: f[2], Subject: f[4]}
		if sec, err := strconv.ParseInt(f[3], 10, 64); err == nil {
			c.Time = time.Unix(sec, 0)
		}
		commits = append(commits, c)
	}
	return commits
}

// Tags lists every tag, peeling annotated tags to their commit.
func Tags(ctx context.Context, dir string) ([]Tag, error) {
	out, err := run(ctx, dir, "for-each-ref",
		"--format=%(refname:short)%1f%(objectname)%1f%(*objectname)", "refs/tags")
	if err != nil {
		return nil, err
	}
	return parseTags(out), nil
}

func parseTags(out []byte) []Tag {
	var tags []Tag
	for _, line := range strings.Split(string(out), "\n") {
		f := strings.Split(line, fieldSep)
		if len(f) < 3 || f[0] == "" {
			continue
		}
		commit := f[1]
		if f[2] != "" {
			commit = f[2]
		}
		tags = append(tags, Tag{Name: f[0], Commit: commit})
	}
	return tags
}

// TagsByCommit indexes tags by the commit they point at.
func TagsByCommit(tags []Tag) map[string][]string {
	m := make(map[string][]string, len(tags))
	for _, t := range tags {
		m[t.Commit] = append(m[t.Commit], t.Name)
	}
	return m
}

// ListCommitFiles lists the files changed by commit, including the root
// commit.
func ListCommitFiles(ctx context.Context, dir, commit string) (CommitFiles, error) {
	out, err := run(ctx, dir, "diff-tree", "--no-commit-id", "-r", "--root", "-M", "--name-status", "-z", commit)
	if err != nil {
		return CommitFiles{}, err
	}
	return CommitFiles{Commit: commit, Files: parseNameStatus(out)}, nil
}

// parseNameStatus parses `--name-status -z`: "M\0path\0" or
// "R100\0old\0new\0".
func parseNameStatus(out []byte) []CommitFile {
	var files []CommitFile
	parts := bytes.Split(out, []byte{0})
	for i := 0; i < len(parts); i++ {
		code := string(parts[i])
		if code == "" {
			continue
		}
		status := FileStatus(code[:1])
		switch status {
		case StatusRenamed, StatusCopied:
			if i+2 >= len(parts) {
				return files
			}
			files = append(files, CommitFile{OldPath: string(parts[i+1]), Path: string(parts[i+2]), Status: status})
			i += 2
		default:
			if i+1 >= len(parts) {
				return files
			}
			files = append(files, CommitFile{Path: string(parts[i+1]), Status: status})
			i++
		}
	}
	return files
}
