package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo creates a repository with one commit containing a.txt.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	gitRun(t, dir, "init", "-q")
	gitRun(t, dir, "config", "user.email", "test@example.com")
	gitRun(t, dir, "config", "user.name", "Test")
	gitRun(t, dir, "config", "commit.gpgsign", "false")
	gitRun(t, dir, "config", "tag.gpgsign", "false")
	writeFile(t, dir, "a.txt", "one\ntwo\n")
	gitRun(t, dir, "add", "a.txt")
	gitRun(t, dir, "commit", "-q", "-m", "initial")
	return dir
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestStatus_Repo(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "a.txt", "one\nTWO\n")
	writeFile(t, dir, "b.txt", "new\n")
	writeFile(t, dir, "c.txt", "staged\n")
	gitRun(t, dir, "add", "c.txt")

	res, err := Status(ctx, dir)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(res.Staged) != 1 || res.Staged[0].Path != "c.txt" || res.Staged[0].Status != StatusAdded {
		t.Errorf("staged = %+v", res.Staged)
	}
	if len(res.Unstaged) != 1 || res.Unstaged[0].Path != "a.txt" {
		t.Errorf("unstaged = %+v", res.Unstaged)
	}
	if len(res.Untracked) != 1 || res.Untracked[0].Path != "b.txt" {
		t.Errorf("untracked = %+v", res.Untracked)
	}
	if res.Branch == "" {
		t.Error("branch not parsed")
	}
}

func TestDiff_Repo(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "a.txt", "one\nTWO\n")
	d, err := Diff(ctx, dir, DiffParams{Path: "a.txt"})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.Additions != 1 || d.Deletions != 1 || d.Path != "a.txt" {
		t.Errorf("diff = +%d -%d path %q", d.Additions, d.Deletions, d.Path)
	}

	staged, err := Diff(ctx, dir, DiffParams{Path: "a.txt", Staged: true})
	if err != nil {
		t.Fatalf("Diff staged: %v", err)
	}
	if !staged.Empty() {
		t.Error("nothing staged, staged diff should be empty")
	}

	writeFile(t, dir, "new.txt", "x\ny\n")
	u, err := Diff(ctx, dir, DiffParams{Path: "new.txt", Untracked: true})
	if err != nil {
		t.Fatalf("Diff untracked: %v", err)
	}
	if u.Additions != 2 {
		t.Errorf("untracked additions = %d, want 2", u.Additions)
	}
}

func TestBlame_Repo(t *testing.T) {
	dir := initRepo(t)

	b, err := Blame(context.Background(), dir, "a.txt")
	if err != nil {
		t.Fatalf("Blame: %v", err)
	}
	if len(b.Lines) != 2 || b.Lines[0].Author != "Test" || b.Lines[1].Text != "two" {
		t.Errorf("blame = %+v", b.Lines)
	}
}

func TestLogTagsCommitFiles_Repo(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "b.txt", "b\n")
	gitRun(t, dir, "add", "b.txt")
	gitRun(t, dir, "commit", "-q", "-m", "add b")
	gitRun(t, dir, "tag", "v1")
	gitRun(t, dir, "tag", "-a", "v1-annotated", "-m", "release")
	head := gitRun(t, dir, "rev-parse", "HEAD")

	commits, err := Log(ctx, dir, 10)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(commits) != 2 || commits[0].Hash != head || commits[0].Subject != "add b" {
		t.Errorf("log = %+v", commits)
	}

	limited, err := Log(ctx, dir, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limited log = %+v, %v", limited, err)
	}

	tags, err := Tags(ctx, dir)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if got := TagsByCommit(tags)[head]; len(got) != 2 {
		t.Errorf("tags on HEAD = %v, want both", got)
	}

	cf, err := ListCommitFiles(ctx, dir, head)
	if err != nil {
		t.Fatalf("ListCommitFiles: %v", err)
	}
	if cf.Commit != head || len(cf.Files) != 1 || cf.Files[0].Path != "b.txt" {
		t.Errorf("commit files = %+v", cf)
	}

	root, err := ListCommitFiles(ctx, dir, commits[1].Hash)
	if err != nil || len(root.Files) != 1 || root.Files[0].Path != "a.txt" {
		t.Errorf("root commit files = %+v, %v", root, err)
	}
}

func TestLog_EmptyRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	gitRun(t, dir, "init", "-q")

	commits, err := Log(context.Background(), dir, 10)
	if err != nil || len(commits) != 0 {
		t.Errorf("Log on empty repo = %+v, %v", commits, err)
	}
}

func TestRepoRoot(t *testing.T) {
	dir := initRepo(t)
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	root, err := RepoRoot(context.Background(), sub)
	if err != nil {
		t.Fatalf("RepoRoot: %v", err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(root)
	if got != want {
		t.Errorf("RepoRoot = %q, want %q", got, want)
	}

	if _, err := RepoRoot(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error outside a repository")
	}
}

func TestFetch_MissingRemote(t *testing.T) {
	dir := initRepo(t)

	_, err := Fetch(context.Background(), dir, "nowhere", nil)
	if err == nil {
		t.Fatal("expected error for missing remote")
	}
	ce, ok := err.(*CommandError)
	if !ok {
		t.Fatalf("err type = %T, want *CommandError", err)
	}
	if ce.ExitCode() == 0 || ce.Error() == "" {
		t.Errorf("CommandError = %+v", ce)
	}
}

func TestPush_LocalRemote(t *testing.T) {
	dir := initRepo(t)
	remote := t.TempDir()
	gitRun(t, remote, "init", "-q", "--bare")
	gitRun(t, dir, "remote", "add", "origin", remote)
	gitRun(t, dir, "tag", "v0.1")
	ctx := context.Background()

	if _, err := Push(ctx, dir, "", nil); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, err := PushTags(ctx, dir, "origin", nil); err != nil {
		t.Fatalf("PushTags: %v", err)
	}
	if out := gitRun(t, remote, "tag", "--list"); out != "v0.1" {
		t.Errorf("remote tags = %q", out)
	}
	if _, err := Fetch(ctx, dir, "origin", nil); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	res, err := Status(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Upstream == "" {
		t.Error("push should set upstream")
	}
}
