package spinner

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func TestSpinner_IdleDoesNotAdvance(t *testing.T) {
	s := New(lipgloss.NewStyle())
	s.Update()
	s.Update()
	if s.idx != 0 {
		t.Errorf("idx = %d, want 0 while idle", s.idx)
	}
	if got := s.View(); got != " " {
		t.Errorf("View() = %q, want blank", got)
	}
}

func TestSpinner_BusyCyclesFrames(t *testing.T) {
	s := New(lipgloss.NewStyle())
	s.SetState(true)

	seen := make(map[string]bool)
	for i := 0; i < len(s.frames); i++ {
		seen[s.View()] = true
		s.Update()
	}
	if len(seen) != len(s.frames) {
		t.Errorf("saw %d distinct frames, want %d", len(seen), len(s.frames))
	}
	if s.idx != 0 {
		t.Errorf("idx = %d after a full cycle, want 0", s.idx)
	}

	s.SetState(false)
	if s.Busy() {
		t.Error("Busy() should be false")
	}
}

func TestTicker_Fires(t *testing.T) {
	tk := NewTicker(10 * time.Millisecond)
	defer tk.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-tk.C():
		case <-time.After(time.Second):
			t.Fatalf("tick %d did not fire", i)
		}
	}
}
