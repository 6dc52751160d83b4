package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Refresh saveRefreshConfig `json:"refresh"`
	UI      saveUIConfig      `json:"ui"`
	Jobs    JobsConfig        `json:"jobs"`
	Remote  RemoteConfig      `json:"remote"`
	Keymap  KeymapConfig      `json:"keymap"`
}

type saveRefreshConfig struct {
	Debounce string `json:"debounce"`
	Watch    bool   `json:"watch"`
}

type saveUIConfig struct {
	SpinnerInterval string `json:"spinnerInterval"`
	SyntaxTheme     string `json:"syntaxTheme,omitempty"`
	MarkdownStyle   string `json:"markdownStyle,omitempty"`
	TabWidth        int    `json:"tabWidth"`
	ShowFooter      bool   `json:"showFooter"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		Refresh: saveRefreshConfig{
			Debounce: cfg.Refresh.Debounce.String(),
			Watch:    cfg.Refresh.Watch,
		},
		UI: saveUIConfig{
			SpinnerInterval: cfg.UI.SpinnerInterval.String(),
			SyntaxTheme:     cfg.UI.SyntaxTheme,
			MarkdownStyle:   cfg.UI.MarkdownStyle,
			TabWidth:        cfg.UI.TabWidth,
			ShowFooter:      cfg.UI.ShowFooter,
		},
		Jobs:   cfg.Jobs,
		Remote: cfg.Remote,
		Keymap: cfg.Keymap,
	}
}

// Save writes the config to ~/.config/gitpane/config.json
func Save(cfg *Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating parent directories. Keys in an
// existing file that Config does not manage are kept.
func SaveTo(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("save config: no path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	merged := make(map[string]json.RawMessage)
	if existing, err := os.ReadFile(path); err == nil {
		// An unreadable file is replaced rather than blocking the save.
		_ = json.Unmarshal(existing, &merged)
	}

	managed, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(managed, &fields); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	for k, v := range fields {
		merged[k] = v
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
