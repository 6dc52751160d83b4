// Package gitops runs git commands against a working tree and parses their
// output. Every call spawns its own git process, so the functions are safe
// to use from any goroutine.
package gitops

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// CommandError wraps a failed git invocation with its output.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return out
	}
	return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status, or -1 if git did not run.
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func gitCommand(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	// Read-only commands must not take index.lock; the watcher would see it
	// and schedule another refresh.
	cmd.Env = append(os.Environ(), "GIT_OPTIONAL_LOCKS=0", "LC_ALL=C", "GIT_TERMINAL_PROMPT=0")
	return cmd
}

// run executes git and returns stdout. Stderr is folded into the error.
func run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := gitCommand(ctx, dir, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &CommandError{Args: args, Output: stderr.String() + string(out), Err: err}
	}
	return out, nil
}

// RepoRoot returns the top-level directory of the working tree containing
// dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("find repository root: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ProgressFunc receives remote progress as git reports it.
type ProgressFunc func(stage string, percent int)

// progressRe matches git --progress lines such as
// "Receiving objects:  42% (21/50)" or "remote: Counting objects: 100% (3/3)".
var progressRe = regexp.MustCompile(`^(?:remote:\s*)?([A-Za-z][A-Za-z ]*):\s+(\d{1,3})%`)

func parseProgress(line string) (string, int, bool) {
	m := progressRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", 0, false
	}
	pct, err := strconv.Atoi(m[2])
	if err != nil || pct > 100 {
		return "", 0, false
	}
	return strings.TrimSpace(m[1]), pct, true
}

// scanProgressLines splits on both \r and \n; git redraws progress lines
// with carriage returns.
func scanProgressLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// runWithProgress executes git, streaming stderr through report. It returns
// the combined output with progress redraws collapsed.
func runWithProgress(ctx context.Context, dir string, report ProgressFunc, args ...string) (string, error) {
	cmd := gitCommand(ctx, dir, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	if err := cmd.Start(); err != nil {
		return "", &CommandError{Args: args, Err: err}
	}

	var lines []string
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		line := scanner.Text()
		if stage, pct, ok := parseProgress(line); ok {
			if report != nil {
				report(stage, pct)
			}
			continue
		}
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	output := strings.TrimSpace(strings.Join(lines, "\n") + "\n" + stdout.String())
	if err := cmd.Wait(); err != nil {
		return "", &CommandError{Args: args, Output: output, Err: err}
	}
	return output, nil
}
