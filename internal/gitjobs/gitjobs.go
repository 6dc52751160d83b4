// Package gitjobs binds each repository job kind to a typed slot. Every
// slot runs its git call on the shared pool and signals the git bus with
// its own kind.
package gitjobs

import (
	"context"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/marcus/gitpane/internal/asyncjob"
	"github.com/marcus/gitpane/internal/gitops"
	"github.com/marcus/gitpane/internal/notify"
)

// LogRequest asks for the newest Limit commits.
type LogRequest struct {
	Limit int
}

// RemoteRequest names the remote for fetch and push jobs.
type RemoteRequest struct {
	Remote string
}

// Jobs holds one slot per repository job kind.
type Jobs struct {
	Dir string

	Status      *asyncjob.Slot[struct{}, gitops.StatusResult]
	Diff        *asyncjob.Slot[gitops.DiffParams, gitops.FileDiff]
	Log         *asyncjob.Slot[LogRequest, []gitops.Commit]
	CommitFiles *asyncjob.Slot[string, gitops.CommitFiles]
	Tags        *asyncjob.Slot[struct{}, []gitops.Tag]
	Blame       *asyncjob.Slot[string, gitops.FileBlame]
	Fetch       *asyncjob.Slot[RemoteRequest, string]
	Push        *asyncjob.Slot[RemoteRequest, string]
	PushTags    *asyncjob.Slot[RemoteRequest, string]
}

// New creates the slots for the repository at dir.
func New(pool *asyncjob.Pool, dir string, bus notify.GitSender) *Jobs {
	return &Jobs{
		Dir: dir,

		Status: asyncjob.NewSlot(pool,
			func(ctx context.Context, _ struct{}, _ asyncjob.ProgressFunc) (gitops.StatusResult, error) {
				return gitops.Status(ctx, dir)
			},
			notifier(bus, notify.GitStatus),
			asyncjob.WithFingerprint[struct{}](statusFingerprint)),

		Diff: asyncjob.NewSlot(pool,
			func(ctx context.Context, p gitops.DiffParams, _ asyncjob.ProgressFunc) (gitops.FileDiff, error) {
				return gitops.Diff(ctx, dir, p)
			},
			notifier(bus, notify.GitDiff)),

		Log: asyncjob.NewSlot(pool,
			func(ctx context.Context, r LogRequest, _ asyncjob.ProgressFunc) ([]gitops.Commit, error) {
				return gitops.Log(ctx, dir, r.Limit)
			},
			notifier(bus, notify.GitLog),
			asyncjob.WithFingerprint[LogRequest](logFingerprint)),

		CommitFiles: asyncjob.NewSlot(pool,
			func(ctx context.Context, commit string, _ asyncjob.ProgressFunc) (gitops.CommitFiles, error) {
				return gitops.ListCommitFiles(ctx, dir, commit)
			},
			notifier(bus, notify.GitCommitFiles)),

		Tags: asyncjob.NewSlot(pool,
			func(ctx context.Context, _ struct{}, _ asyncjob.ProgressFunc) ([]gitops.Tag, error) {
				return gitops.Tags(ctx, dir)
			},
			notifier(bus, notify.GitTags),
			asyncjob.WithFingerprint[struct{}](tagsFingerprint)),

		Blame: asyncjob.NewSlot(pool,
			func(ctx context.Context, path string, _ asyncjob.ProgressFunc) (gitops.FileBlame, error) {
				return gitops.Blame(ctx, dir, path)
			},
			notifier(bus, notify.GitBlame)),

		Fetch:    remoteSlot(pool, dir, bus, notify.GitFetch, gitops.Fetch),
		Push:     remoteSlot(pool, dir, bus, notify.GitPush, gitops.Push),
		PushTags: remoteSlot(pool, dir, bus, notify.GitPushTags, gitops.PushTags),
	}
}

// AnyPending reports whether any repository job is running.
func (j *Jobs) AnyPending() bool {
	return j.Status.IsPending() ||
		j.Diff.IsPending() ||
		j.Log.IsPending() ||
		j.CommitFiles.IsPending() ||
		j.Tags.IsPending() ||
		j.Blame.IsPending() ||
		j.Fetch.IsPending() ||
		j.Push.IsPending() ||
		j.PushTags.IsPending()
}

// RemoteProgress returns the progress of whichever network job is running.
func (j *Jobs) RemoteProgress() (string, asyncjob.Progress, bool) {
	for _, r := range []struct {
		name string
		slot *asyncjob.Slot[RemoteRequest, string]
	}{
		{"fetch", j.Fetch},
		{"push", j.Push},
		{"push tags", j.PushTags},
	} {
		if p, ok := r.slot.Progress(); ok {
			return r.name, p, true
		}
	}
	return "", asyncjob.Progress{}, false
}

type remoteFunc func(ctx context.Context, dir, remote string, report gitops.ProgressFunc) (string, error)

func remoteSlot(pool *asyncjob.Pool, dir string, bus notify.GitSender, kind notify.GitKind, fn remoteFunc) *asyncjob.Slot[RemoteRequest, string] {
	return asyncjob.NewSlot(pool,
		func(ctx context.Context, r RemoteRequest, report asyncjob.ProgressFunc) (string, error) {
			return fn(ctx, dir, r.Remote, func(stage string, pct int) {
				report(asyncjob.Progress{Stage: stage, Percent: pct})
			})
		},
		notifier(bus, kind))
}

func notifier(bus notify.GitSender, kind notify.GitKind) asyncjob.Notifier {
	return func(phase notify.Phase, unchanged bool) {
		if unchanged {
			bus.Send(notify.Git{Kind: notify.GitFinishUnchanged, Phase: notify.PhaseDone})
			return
		}
		bus.Send(notify.Git{Kind: kind, Phase: phase})
	}
}

// digest writes length-prefixed strings so that field boundaries are part
// of the hash.
type digest struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newDigest() *digest {
	return &digest{d: xxhash.New()}
}

func (h *digest) str(s string) {
	h.num(len(s))
	_, _ = h.d.WriteString(s)
}

func (h *digest) num(n int) {
	binary.LittleEndian.PutUint64(h.buf[:], uint64(n))
	_, _ = h.d.Write(h.buf[:])
}

func (h *digest) entries(list []gitops.FileEntry) {
	h.num(len(list))
	for _, e := range list {
		h.str(e.Path)
		h.str(e.OldPath)
		h.str(string(e.Status))
	}
}

func statusFingerprint(s gitops.StatusResult) uint64 {
	h := newDigest()
	h.str(s.Branch)
	h.str(s.Upstream)
	h.num(s.Ahead)
	h.num(s.Behind)
	h.entries(s.Staged)
	h.entries(s.Unstaged)
	h.entries(s.Untracked)
	return h.d.Sum64()
}

func logFingerprint(commits []gitops.Commit) uint64 {
	h := newDigest()
	h.num(len(commits))
	for _, c := range commits {
		h.str(c.Hash)
	}
	return h.d.Sum64()
}

func tagsFingerprint(tags []gitops.Tag) uint64 {
	h := newDigest()
	h.num(len(tags))
	for _, t := range tags {
		h.str(t.Name)
		h.str(t.Commit)
	}
	return h.d.Sum64()
}
