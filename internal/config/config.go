package config

import "time"

const (
	DefaultDebounce        = 100 * time.Millisecond
	DefaultSpinnerInterval = 80 * time.Millisecond
	DefaultWorkers         = 4
	DefaultLogLimit        = 500
	DefaultTabWidth        = 4
	DefaultRemote          = "origin"
)

// Config is the root configuration structure.
type Config struct {
	Refresh RefreshConfig `json:"refresh"`
	UI      UIConfig      `json:"ui"`
	Jobs    JobsConfig    `json:"jobs"`
	Remote  RemoteConfig  `json:"remote"`
	Keymap  KeymapConfig  `json:"keymap"`
}

// RefreshConfig controls automatic refresh from filesystem changes.
type RefreshConfig struct {
	Debounce time.Duration `json:"debounce"`
	Watch    bool          `json:"watch"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	SpinnerInterval time.Duration `json:"spinnerInterval"`
	SyntaxTheme     string        `json:"syntaxTheme"`   // chroma style name
	MarkdownStyle   string        `json:"markdownStyle"` // glamour standard style
	TabWidth        int           `json:"tabWidth"`
	ShowFooter      bool          `json:"showFooter"`
}

// JobsConfig sizes the background worker pool.
type JobsConfig struct {
	Workers  int `json:"workers"`
	LogLimit int `json:"logLimit"` // commits loaded into the log tab
}

// RemoteConfig names the remote used by fetch and push.
type RemoteConfig struct {
	Name string `json:"name"`
}

// KeymapConfig holds key binding overrides, action name to key list
// ("ctrl+f" or "f,F").
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Refresh: RefreshConfig{
			Debounce: DefaultDebounce,
			Watch:    true,
		},
		UI: UIConfig{
			SpinnerInterval: DefaultSpinnerInterval,
			SyntaxTheme:     "monokai",
			MarkdownStyle:   "dark",
			TabWidth:        DefaultTabWidth,
			ShowFooter:      true,
		},
		Jobs: JobsConfig{
			Workers:  DefaultWorkers,
			LogLimit: DefaultLogLimit,
		},
		Remote: RemoteConfig{
			Name: DefaultRemote,
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
	}
}

// Validate resets out-of-range values to their defaults.
func (c *Config) Validate() error {
	if c.Refresh.Debounce <= 0 {
		c.Refresh.Debounce = DefaultDebounce
	}
	if c.UI.SpinnerInterval < 10*time.Millisecond {
		c.UI.SpinnerInterval = DefaultSpinnerInterval
	}
	if c.UI.TabWidth <= 0 || c.UI.TabWidth > 16 {
		c.UI.TabWidth = DefaultTabWidth
	}
	if c.Jobs.Workers <= 0 {
		c.Jobs.Workers = DefaultWorkers
	}
	if c.Jobs.LogLimit <= 0 {
		c.Jobs.LogLimit = DefaultLogLimit
	}
	if c.Remote.Name == "" {
		c.Remote.Name = DefaultRemote
	}
	if c.Keymap.Overrides == nil {
		c.Keymap.Overrides = make(map[string]string)
	}
	return nil
}
