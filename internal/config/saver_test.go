package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSave_PreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	initial := []byte(`{
  "customKey": "should survive",
  "refresh": {"debounce": "1s"}
}`)
	if err := os.WriteFile(path, initial, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal saved config: %v", err)
	}

	if string(raw["customKey"]) != `"should survive"` {
		t.Errorf("customKey = %s", raw["customKey"])
	}
	for _, key := range []string{"refresh", "ui", "jobs", "remote", "keymap"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("SaveTo() did not write %q", key)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Refresh.Debounce = 300 * time.Millisecond
	cfg.UI.MarkdownStyle = "light"
	cfg.Jobs.Workers = 2
	cfg.Keymap.Overrides["push"] = "ctrl+p"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if got.Refresh.Debounce != cfg.Refresh.Debounce {
		t.Errorf("debounce = %v, want %v", got.Refresh.Debounce, cfg.Refresh.Debounce)
	}
	if got.UI.MarkdownStyle != "light" || got.Jobs.Workers != 2 {
		t.Errorf("got ui %+v jobs %+v", got.UI, got.Jobs)
	}
	if got.Keymap.Overrides["push"] != "ctrl+p" {
		t.Errorf("overrides = %v", got.Keymap.Overrides)
	}
}

func TestSaveTo_EmptyPath(t *testing.T) {
	if err := SaveTo("", Default()); err == nil {
		t.Error("expected error for empty path")
	}
}
