package keymap

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestDefault_Match(t *testing.T) {
	k := Default()

	tests := []struct {
		msg  tea.KeyMsg
		want Command
	}{
		{runeKey('j'), CursorDown},
		{tea.KeyMsg{Type: tea.KeyDown}, CursorDown},
		{runeKey('f'), Fetch},
		{runeKey('P'), Push},
		{runeKey('T'), PushTags},
		{tea.KeyMsg{Type: tea.KeyTab}, SwitchTab},
		{tea.KeyMsg{Type: tea.KeyEnter}, TogglePreview},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, Quit},
	}
	for _, tt := range tests {
		t.Run(tt.msg.String(), func(t *testing.T) {
			got, ok := k.Match(tt.msg)
			if !ok || got != tt.want {
				t.Errorf("Match(%q) = %q, %v; want %q", tt.msg.String(), got, ok, tt.want)
			}
		})
	}

	if _, ok := k.Match(runeKey('x')); ok {
		t.Error("x should be unbound")
	}
}

func TestApplyOverrides(t *testing.T) {
	k := Default()
	unknown := k.ApplyOverrides(map[string]string{
		"fetch":   "F, ctrl+f",
		"push":    "",
		"nothing": "z",
	})

	if len(unknown) != 1 || unknown[0] != "nothing" {
		t.Errorf("unknown = %v, want [nothing]", unknown)
	}
	if got, _ := k.Match(runeKey('F')); got != Fetch {
		t.Errorf("F = %q, want fetch", got)
	}
	if got, _ := k.Match(tea.KeyMsg{Type: tea.KeyCtrlF}); got != Fetch {
		t.Errorf("ctrl+f = %q, want fetch", got)
	}
	if _, ok := k.Match(runeKey('f')); ok {
		t.Error("f should no longer be bound")
	}
	// Empty override keeps the default.
	if got, _ := k.Match(runeKey('P')); got != Push {
		t.Errorf("P = %q, want push", got)
	}
	if h := k.Binding(Fetch).Help(); h.Key != "F/ctrl+f" {
		t.Errorf("help key = %q", h.Key)
	}
}

func TestHelpBindings(t *testing.T) {
	k := Default()
	if n := len(k.ShortHelp()); n == 0 {
		t.Error("ShortHelp is empty")
	}
	for _, col := range k.FullHelp() {
		for _, b := range col {
			if b.Help().Key == "" {
				t.Errorf("binding %v has no help", b.Keys())
			}
		}
	}
}
