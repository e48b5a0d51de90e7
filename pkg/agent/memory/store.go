package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/entrhq/miru/pkg/types"
)

// Store persists session histories by key.
type Store interface {
	// Load returns the saved history for key, or an empty slice if none exists.
	Load(key string) ([]*types.Message, error)

	// Save replaces the saved history for key.
	Save(key string, messages []*types.Message) error

	// Delete removes the saved history for key.
	Delete(key string) error
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileStore keeps one JSON document per session key in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

type historyFile struct {
	Key       string           `json:"key"`
	UpdatedAt time.Time        `json:"updated_at"`
	Messages  []*types.Message `json:"messages"`
}

// NewFileStore creates a file store rooted at dir. If dir is empty it
// defaults to ~/.miru/history.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".miru", "history")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory histories are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	if key == "" {
		key = "default"
	}
	return filepath.Join(s.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Load implements Store.
func (s *FileStore) Load(key string) ([]*types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*types.Message{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var file historyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode history file: %w", err)
	}

	out := make([]*types.Message, 0, len(file.Messages))
	for _, msg := range file.Messages {
		if msg != nil && (msg.IsHuman() || msg.IsAssistant()) {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Save implements Store with a temp-file-and-rename write.
func (s *FileStore) Save(key string, messages []*types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(historyFile{
		Key:       key,
		UpdatedAt: time.Now().UTC(),
		Messages:  messages,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	target := s.path(key)
	tempPath := target + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp history file: %w", err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp history file: %w", err)
	}
	return nil
}

// Delete implements Store. Deleting a missing key is not an error.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete history file: %w", err)
	}
	return nil
}
