package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileStore(t *testing.T) {
	t.Run("creates store with custom path", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")

		store, err := NewFileStore(configPath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}
		if store.Path() != configPath {
			t.Errorf("Expected path %s, got %s", configPath, store.Path())
		}
		all, _ := store.GetAll()
		if len(all) != 0 {
			t.Errorf("Expected empty store, got %v", all)
		}
	})

	t.Run("creates store with default path when empty", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		store, err := NewFileStore("")
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}
		if !strings.HasSuffix(store.Path(), filepath.Join(".miru", "config.json")) {
			t.Errorf("Expected default path under .miru, got %s", store.Path())
		}
	})

	t.Run("loads existing config file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		content := `{"version":"1","sections":{"llm":{"model":"gpt-4o"}}}`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		store, err := NewFileStore(configPath)
		if err != nil {
			t.Fatalf("NewFileStore failed: %v", err)
		}
		data, _ := store.GetSection("llm")
		if data["model"] != "gpt-4o" {
			t.Errorf("Expected model gpt-4o, got %v", data["model"])
		}
	})

	t.Run("rejects corrupt file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(configPath, []byte("{not json"), 0o600); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
		if _, err := NewFileStore(configPath); err == nil {
			t.Error("Expected error for corrupt config file")
		}
	})
}

func TestFileStore_SaveAndReload(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.json")

	store, err := NewFileStore(configPath)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.SetSection("chat", map[string]any{"mode": "with-agent", "max_steps": 5}); err != nil {
		t.Fatalf("SetSection failed: %v", err)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected permissions 0600, got %o", perm)
	}
	if _, err := os.Stat(configPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should not remain after save")
	}

	raw, _ := os.ReadFile(configPath)
	var file fileFormat
	if err := json.Unmarshal(raw, &file); err != nil {
		t.Fatalf("Saved file is not valid JSON: %v", err)
	}
	if file.Version != FileVersion {
		t.Errorf("Expected version %s, got %s", FileVersion, file.Version)
	}

	reloaded, err := NewFileStore(configPath)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	data, _ := reloaded.GetSection("chat")
	if data["mode"] != "with-agent" {
		t.Errorf("Expected mode with-agent, got %v", data["mode"])
	}
	if data["max_steps"] != float64(5) {
		t.Errorf("Expected max_steps 5, got %v", data["max_steps"])
	}
}

func TestFileStore_ReturnsCopies(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	_ = store.SetSection("llm", map[string]any{"model": "a"})

	data, _ := store.GetSection("llm")
	data["model"] = "b"

	again, _ := store.GetSection("llm")
	if again["model"] != "a" {
		t.Errorf("GetSection should return a copy, store now has %v", again["model"])
	}

	all, _ := store.GetAll()
	all["llm"]["model"] = "c"
	again, _ = store.GetSection("llm")
	if again["model"] != "a" {
		t.Errorf("GetAll should return copies, store now has %v", again["model"])
	}
}

func TestFileStore_SetAll(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	_ = store.SetSection("old", map[string]any{"x": 1})

	if err := store.SetAll(map[string]map[string]any{"llm": {"model": "m"}}); err != nil {
		t.Fatalf("SetAll failed: %v", err)
	}
	all, _ := store.GetAll()
	if _, ok := all["old"]; ok {
		t.Error("SetAll should replace existing sections")
	}
	if all["llm"]["model"] != "m" {
		t.Errorf("Expected model m, got %v", all["llm"]["model"])
	}
}
