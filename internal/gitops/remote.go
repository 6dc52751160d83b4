package gitops

import "context"

// DefaultRemote is used when no remote is configured.
const DefaultRemote = "origin"

// Fetch runs git fetch against remote, reporting transfer progress.
func Fetch(ctx context.Context, dir, remote string, report ProgressFunc) (string, error) {
	return runWithProgress(ctx, dir, report, "fetch", "--progress", "--prune", remoteOrDefault(remote))
}

// Push pushes the current branch to remote, setting the upstream when the
// branch has none.
func Push(ctx context.Context, dir, remote string, report ProgressFunc) (string, error) {
	return runWithProgress(ctx, dir, report, "push", "--progress", "--set-upstream", remoteOrDefault(remote), "HEAD")
}

// PushTags pushes every local tag to remote.
func PushTags(ctx context.Context, dir, remote string, report ProgressFunc) (string, error) {
	return runWithProgress(ctx, dir, report, "push", "--progress", "--tags", remoteOrDefault(remote))
}

func remoteOrDefault(remote string) string {
	if remote == "" {
		return DefaultRemote
	}
	return remote
}
