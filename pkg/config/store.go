package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// FileVersion is written to every config file.
const FileVersion = "1"

// Store provides persistence for configuration data.
type Store interface {
	// Load reads the persisted data. A missing file is an empty configuration.
	Load() error

	// Save persists the current data.
	Save() error

	// GetSection returns a copy of one section's data, empty if absent.
	GetSection(sectionID string) (map[string]any, error)

	// SetSection replaces one section's data.
	SetSection(sectionID string, data map[string]any) error

	// GetAll returns a copy of all sections.
	GetAll() (map[string]map[string]any, error)

	// SetAll replaces all sections.
	SetAll(data map[string]map[string]any) error
}

// DefaultDir returns ~/.miru, where the config file, history and logs live.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".miru"), nil
}

// DefaultPath returns ~/.miru/config.json.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

type fileFormat struct {
	Version  string                    `json:"version"`
	Sections map[string]map[string]any `json:"sections"`
}

// FileStore is a Store backed by one JSON file. Writes go to a temp file that
// is renamed over the original, and the file is readable only by its owner
// since it can hold an API key.
type FileStore struct {
	path string
	data map[string]map[string]any
	mu   sync.RWMutex
}

// NewFileStore opens the store at path, or at DefaultPath when path is empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	s := &FileStore{path: path, data: make(map[string]map[string]any)}
	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return s, nil
}

// Load implements Store.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.data = make(map[string]map[string]any)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileFormat
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	if file.Sections == nil {
		file.Sections = make(map[string]map[string]any)
	}
	s.data = file.Sections
	return nil
}

// Save implements Store.
func (s *FileStore) Save() error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(fileFormat{Version: FileVersion, Sections: s.data}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(raw, '\n'), 0o600); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// GetSection implements Store.
func (s *FileStore) GetSection(sectionID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.data[sectionID]))
	maps.Copy(out, s.data[sectionID])
	return out, nil
}

// SetSection implements Store.
func (s *FileStore) SetSection(sectionID string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sectionID] = maps.Clone(data)
	return nil
}

// GetAll implements Store.
func (s *FileStore) GetAll() (map[string]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]any, len(s.data))
	for id, section := range s.data {
		out[id] = maps.Clone(section)
	}
	return out, nil
}

// SetAll implements Store.
func (s *FileStore) SetAll(data map[string]map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]map[string]any, len(data))
	for id, section := range data {
		s.data[id] = maps.Clone(section)
	}
	return nil
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}
