// Package keymap maps key presses to commands. Bindings come from
// bubbles/key and can be overridden per command from config.
package keymap

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Command names an action. The names double as config override keys.
type Command string

const (
	Quit             Command = "quit"
	Refresh          Command = "refresh"
	CursorDown       Command = "cursor-down"
	CursorUp         Command = "cursor-up"
	CursorTop        Command = "cursor-top"
	CursorBottom     Command = "cursor-bottom"
	ScrollDown       Command = "scroll-down"
	ScrollUp         Command = "scroll-up"
	SwitchTab        Command = "switch-tab"
	TogglePreview    Command = "toggle-preview"
	Blame            Command = "blame"
	Fetch            Command = "fetch"
	Push             Command = "push"
	PushTags         Command = "push-tags"
	Yank             Command = "yank"
	ToggleDiffLayout Command = "toggle-diff-layout"
	Back             Command = "back"
	Help             Command = "help"
)

// KeyMap holds one binding per command.
type KeyMap struct {
	bindings map[Command]key.Binding
	order    []Command
}

// Default returns the default key bindings.
func Default() *KeyMap {
	k := &KeyMap{bindings: make(map[Command]key.Binding)}
	k.add(CursorDown, key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "move")))
	k.add(CursorUp, key.NewBinding(key.WithKeys("k", "up")))
	k.add(CursorTop, key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g/G", "top/bottom")))
	k.add(CursorBottom, key.NewBinding(key.WithKeys("G", "end")))
	k.add(ScrollDown, key.NewBinding(key.WithKeys("ctrl+d", "pgdown"), key.WithHelp("ctrl+d/u", "scroll")))
	k.add(ScrollUp, key.NewBinding(key.WithKeys("ctrl+u", "pgup")))
	k.add(SwitchTab, key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch tab")))
	k.add(TogglePreview, key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "preview")))
	k.add(Blame, key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "blame")))
	k.add(Fetch, key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fetch")))
	k.add(Push, key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "push")))
	k.add(PushTags, key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "push tags")))
	k.add(Yank, key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yank")))
	k.add(ToggleDiffLayout, key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "diff layout")))
	k.add(Refresh, key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")))
	k.add(Back, key.NewBinding(key.WithKeys("esc")))
	k.add(Help, key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")))
	k.add(Quit, key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")))
	return k
}

func (k *KeyMap) add(c Command, b key.Binding) {
	k.bindings[c] = b
	k.order = append(k.order, c)
}

// ApplyOverrides rebinds commands from a command-to-keys map. Keys are
// comma separated ("f,F"). It returns the override names that matched no
// command, sorted.
func (k *KeyMap) ApplyOverrides(overrides map[string]string) []string {
	var unknown []string
	for name, value := range overrides {
		c := Command(name)
		b, ok := k.bindings[c]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		keys := splitKeys(value)
		if len(keys) == 0 {
			continue
		}
		b.SetKeys(keys...)
		if h := b.Help(); h.Desc != "" {
			b.SetHelp(strings.Join(keys, "/"), h.Desc)
		}
		k.bindings[c] = b
	}
	sort.Strings(unknown)
	return unknown
}

func splitKeys(list string) []string {
	var keys []string
	for _, s := range strings.Split(list, ",") {
		// "," itself can't be bound this way; a lone space can.
		if s == " " {
			keys = append(keys, s)
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			keys = append(keys, s)
		}
	}
	return keys
}

// Match returns the command bound to msg. Commands are checked in
// registration order, so the first binding wins when keys collide.
func (k *KeyMap) Match(msg tea.KeyMsg) (Command, bool) {
	for _, c := range k.order {
		if key.Matches(msg, k.bindings[c]) {
			return c, true
		}
	}
	return "", false
}

// Binding returns the binding for c.
func (k *KeyMap) Binding(c Command) key.Binding {
	return k.bindings[c]
}

// ShortHelp implements help.KeyMap.
func (k *KeyMap) ShortHelp() []key.Binding {
	return k.pick(TogglePreview, Blame, Fetch, Push, SwitchTab, Help, Quit)
}

// FullHelp implements help.KeyMap.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.pick(CursorDown, CursorTop, ScrollDown, SwitchTab, TogglePreview, Refresh),
		k.pick(Blame, Fetch, Push, PushTags, Yank, ToggleDiffLayout, Help, Quit),
	}
}

func (k *KeyMap) pick(cs ...Command) []key.Binding {
	out := make([]key.Binding, 0, len(cs))
	for _, c := range cs {
		out = append(out, k.bindings[c])
	}
	return out
}
