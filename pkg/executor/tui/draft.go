package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DraftStore keeps the unsent input between sessions.
type DraftStore struct {
	path string
}

// NewDraftStore stores the draft at path.
func NewDraftStore(path string) *DraftStore {
	return &DraftStore{path: path}
}

// Path returns the draft file path.
func (s *DraftStore) Path() string {
	return s.path
}

// Load returns the saved draft, or "" when there is none.
func (s *DraftStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read draft: %w", err)
	}
	return string(data), nil
}

// Save writes the draft. An empty draft removes the file.
func (s *DraftStore) Save(text string) error {
	if text == "" {
		return s.Clear()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create draft directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}

// Clear removes the saved draft.
func (s *DraftStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove draft: %w", err)
	}
	return nil
}
