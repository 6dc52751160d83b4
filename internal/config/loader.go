package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/gitpane"
	configFile = "config.json"
)

// rawConfig is the JSON-unmarshaling intermediary. Pointers distinguish
// "absent" from a zero value.
type rawConfig struct {
	Refresh rawRefreshConfig `json:"refresh"`
	UI      rawUIConfig      `json:"ui"`
	Jobs    rawJobsConfig    `json:"jobs"`
	Remote  RemoteConfig     `json:"remote"`
	Keymap  KeymapConfig     `json:"keymap"`
}

type rawRefreshConfig struct {
	Debounce string `json:"debounce"`
	Watch    *bool  `json:"watch"`
}

type rawUIConfig struct {
	SpinnerInterval string `json:"spinnerInterval"`
	SyntaxTheme     string `json:"syntaxTheme"`
	MarkdownStyle   string `json:"markdownStyle"`
	TabWidth        *int   `json:"tabWidth"`
	ShowFooter      *bool  `json:"showFooter"`
}

type rawJobsConfig struct {
	Workers  *int `json:"workers"`
	LogLimit *int `json:"logLimit"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/gitpane/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	mergeConfig(cfg, &raw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	// Refresh
	mergeDuration(&cfg.Refresh.Debounce, raw.Refresh.Debounce, "refresh.debounce")
	if raw.Refresh.Watch != nil {
		cfg.Refresh.Watch = *raw.Refresh.Watch
	}

	// UI
	mergeDuration(&cfg.UI.SpinnerInterval, raw.UI.SpinnerInterval, "ui.spinnerInterval")
	if raw.UI.SyntaxTheme != "" {
		cfg.UI.SyntaxTheme = raw.UI.SyntaxTheme
	}
	if raw.UI.MarkdownStyle != "" {
		cfg.UI.MarkdownStyle = raw.UI.MarkdownStyle
	}
	if raw.UI.TabWidth != nil {
		cfg.UI.TabWidth = *raw.UI.TabWidth
	}
	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}

	// Jobs
	if raw.Jobs.Workers != nil {
		cfg.Jobs.Workers = *raw.Jobs.Workers
	}
	if raw.Jobs.LogLimit != nil {
		cfg.Jobs.LogLimit = *raw.Jobs.LogLimit
	}

	// Remote
	if raw.Remote.Name != "" {
		cfg.Remote.Name = raw.Remote.Name
	}

	// Keymap
	for k, v := range raw.Keymap.Overrides {
		cfg.Keymap.Overrides[k] = v
	}
}

func mergeDuration(dst *time.Duration, s, key string) {
	if s == "" {
		return
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		slog.Warn("invalid duration in config", "key", key, "value", s, "err", err)
		return
	}
	*dst = d
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}

// Dir returns the directory holding config, state and log files.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir)
}
