package notify

import "testing"

func TestBus_SendReceive(t *testing.T) {
	b := NewBus[Git](0)
	if cap(b.ch) != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", cap(b.ch), DefaultCapacity)
	}

	var s GitSender = b
	s.Send(Git{Kind: GitPush, Phase: PhaseProgress})

	got := <-b.Receiver()
	if got.Kind != GitPush || got.Phase != PhaseProgress {
		t.Errorf("got %+v", got)
	}

	b.Close()
	if _, ok := <-b.Receiver(); ok {
		t.Error("expected closed receiver")
	}
}

func TestKindNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{GitFinishUnchanged.String(), "finish-unchanged"},
		{GitCommitFiles.String(), "commit-files"},
		{GitKind(99).String(), "unknown"},
		{AppSyntaxHighlighting.String(), "syntax-highlighting"},
		{PhaseProgress.String(), "progress"},
		{PhaseDone.String(), "done"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
