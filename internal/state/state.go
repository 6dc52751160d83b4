package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Diff layouts.
const (
	DiffUnified = "unified"
	DiffCompact = "compact" // hunks only, no context lines
)

// Tabs.
const (
	TabStatus = "status"
	TabLog    = "log"
)

// State holds persistent UI preferences.
type State struct {
	LastTab    string `json:"lastTab"`
	DiffLayout string `json:"diffLayout"`
}

func defaults() *State {
	return &State{LastTab: TabStatus, DiffLayout: DiffUnified}
}

var (
	current *State
	mu      sync.RWMutex
	path    string
)

// Init loads state from the default location.
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return InitWithDir(filepath.Join(home, ".config", "gitpane"))
}

// InitWithDir loads state from a specified directory.
// This is primarily for testing to avoid reading real user state.
func InitWithDir(dir string) error {
	mu.Lock()
	path = filepath.Join(dir, "state.json")
	mu.Unlock()
	return Load()
}

// Load reads state from disk. Unknown values fall back to defaults.
func Load() error {
	mu.Lock()
	defer mu.Unlock()

	current = defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // no state file yet, use defaults
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, current); err != nil {
		current = defaults()
		return err
	}
	if current.LastTab != TabStatus && current.LastTab != TabLog {
		current.LastTab = TabStatus
	}
	if current.DiffLayout != DiffUnified && current.DiffLayout != DiffCompact {
		current.DiffLayout = DiffUnified
	}
	return nil
}

// Save writes state to disk. It is a no-op before Init.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil || path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetLastTab returns the tab that was open on exit.
func GetLastTab() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return TabStatus
	}
	return current.LastTab
}

// SetLastTab saves the open tab.
func SetLastTab(tab string) error {
	mu.Lock()
	if current == nil {
		current = defaults()
	}
	current.LastTab = tab
	mu.Unlock()
	return Save()
}

// GetDiffLayout returns the saved diff layout.
func GetDiffLayout() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return DiffUnified
	}
	return current.DiffLayout
}

// SetDiffLayout saves the diff layout preference.
func SetDiffLayout(layout string) error {
	mu.Lock()
	if current == nil {
		current = defaults()
	}
	current.DiffLayout = layout
	mu.Unlock()
	return Save()
}
