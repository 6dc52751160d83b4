package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func countSignals(ch <-chan struct{}, within time.Duration) int {
	n := 0
	deadline := time.After(within)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return n
			}
			n++
		case <-deadline:
			return n
		}
	}
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Close()

	var last time.Time
	for i := 0; i < 5; i++ {
		d.Trigger()
		last = time.Now()
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-d.Signals():
		if elapsed := time.Since(last); elapsed < 90*time.Millisecond {
			t.Errorf("signal fired %v after last trigger, want ~100ms", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("no signal after quiet period")
	}

	if n := countSignals(d.Signals(), 250*time.Millisecond); n != 0 {
		t.Errorf("got %d extra signals, want 0", n)
	}
}

func TestDebouncer_SeparateQuietPeriods(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Close()

	for i := 0; i < 3; i++ {
		d.Trigger()
		select {
		case <-d.Signals():
		case <-time.After(time.Second):
			t.Fatalf("period %d: no signal", i)
		}
	}
}

func TestDebouncer_CloseStopsPendingSignal(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	d.Trigger()
	d.Close()

	if n := countSignals(d.Signals(), 100*time.Millisecond); n != 0 {
		t.Errorf("got %d signals after close, want 0", n)
	}
	// Trigger after close is a no-op.
	d.Trigger()
}

func TestIgnored(t *testing.T) {
	root := filepath.FromSlash("/repo")
	tests := []struct {
		path string
		want bool
	}{
		{"/repo/main.go", false},
		{"/repo/.git/HEAD", false},
		{"/repo/.git/refs/heads/main", false},
		{"/repo/.git/index.lock", true},
		{"/repo/.git/objects/ab/cdef", true},
		{"/repo/.git/logs/HEAD", true},
		{"/repo/.git/lfs/tmp", true},
		{"/repo/vendor/objects/x.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ignored(root, filepath.FromSlash(tt.path)); got != tt.want {
				t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRepoWatcher_SignalsOnceForBurst(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	w, err := New(dir, 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, "sub", "file.txt")
		if err := os.WriteFile(path, []byte{byte(i)}, 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if n := countSignals(w.Signals(), 500*time.Millisecond); n != 1 {
		t.Errorf("got %d signals, want 1", n)
	}
}

func TestRepoWatcher_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, 30*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	newDir := filepath.Join(dir, "pkg")
	if err := os.Mkdir(newDir, 0755); err != nil {
		t.Fatal(err)
	}
	// Drain the signal caused by the mkdir.
	countSignals(w.Signals(), 200*time.Millisecond)

	if err := os.WriteFile(filepath.Join(newDir, "a.go"), []byte("package pkg"), 0644); err != nil {
		t.Fatal(err)
	}
	if n := countSignals(w.Signals(), 300*time.Millisecond); n != 1 {
		t.Errorf("got %d signals for write in new directory, want 1", n)
	}
}

func TestRepoWatcher_CloseClosesSignals(t *testing.T) {
	w, err := New(t.TempDir(), 30*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case _, ok := <-w.Signals():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Error("signals channel not closed")
	}
}

func TestNew_MissingRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), 0, nil); err == nil {
		t.Error("expected error for missing root")
	}
}
