package config

import (
	"fmt"
	"regexp"
	"sync"
)

const (
	// SectionIDChat is the identifier for the chat settings section
	SectionIDChat = "chat"

	// Stored mode flags.
	ModeChat  = "with-llm"
	ModeAgent = "with-agent"

	defaultMaxSteps             = 10
	defaultMaxObservationTokens = 4000
	defaultSession              = "default"
)

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ChatSettings is a snapshot of the chat section.
type ChatSettings struct {
	Mode                 string
	Session              string
	SystemPrompt         string
	MaxSteps             int
	MaxObservationTokens int
}

// ChatSection holds the conversation mode and agent loop limits.
type ChatSection struct {
	settings ChatSettings
	mu       sync.RWMutex
}

// NewChatSection creates a chat section with default settings.
func NewChatSection() *ChatSection {
	s := &ChatSection{}
	s.Reset()
	return s
}

func (s *ChatSection) ID() string    { return SectionIDChat }
func (s *ChatSection) Title() string { return "Chat Settings" }

func (s *ChatSection) Description() string {
	return "Conversation mode (with-llm or with-agent), history session, custom system prompt and agent step limits."
}

// Data returns the current configuration data.
func (s *ChatSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"mode":                   s.settings.Mode,
		"session":                s.settings.Session,
		"system_prompt":          s.settings.SystemPrompt,
		"max_steps":              s.settings.MaxSteps,
		"max_observation_tokens": s.settings.MaxObservationTokens,
	}
}

// SetData updates the configuration from the provided data.
func (s *ChatSection) SetData(data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	for key, value := range data {
		var err error
		switch key {
		case "mode":
			next.Mode, err = toString(key, value)
		case "session":
			next.Session, err = toString(key, value)
		case "system_prompt":
			next.SystemPrompt, err = toString(key, value)
		case "max_steps":
			next.MaxSteps, err = toInt(key, value)
		case "max_observation_tokens":
			next.MaxObservationTokens, err = toInt(key, value)
		}
		if err != nil {
			return err
		}
	}
	s.settings = next
	return nil
}

// Validate validates the current configuration.
func (s *ChatSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings.Mode != ModeChat && s.settings.Mode != ModeAgent {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeChat, ModeAgent, s.settings.Mode)
	}
	if s.settings.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be at least 1, got %d", s.settings.MaxSteps)
	}
	if s.settings.MaxObservationTokens < 0 {
		return fmt.Errorf("max_observation_tokens must not be negative, got %d", s.settings.MaxObservationTokens)
	}
	if !sessionPattern.MatchString(s.settings.Session) {
		return fmt.Errorf("session must be letters, digits, '.', '_' or '-', got %q", s.settings.Session)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *ChatSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = ChatSettings{
		Mode:                 ModeChat,
		Session:              defaultSession,
		MaxSteps:             defaultMaxSteps,
		MaxObservationTokens: defaultMaxObservationTokens,
	}
}

// Settings returns a snapshot of the section.
func (s *ChatSection) Settings() ChatSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetMode sets the stored mode flag.
func (s *ChatSection) SetMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Mode = mode
}
