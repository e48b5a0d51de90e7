package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-4o-mini"
)

// LLMSettings is a snapshot of the LLM section.
type LLMSettings struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
}

// LLMSection holds the provider credential and model settings.
type LLMSection struct {
	settings LLMSettings
	mu       sync.RWMutex
}

// NewLLMSection creates a new LLM section with default settings.
func NewLLMSection() *LLMSection {
	s := &LLMSection{}
	s.Reset()
	return s
}

func (s *LLMSection) ID() string    { return SectionIDLLM }
func (s *LLMSection) Title() string { return "LLM Settings" }

func (s *LLMSection) Description() string {
	return "OpenAI-compatible provider settings: API key, model, base URL and sampling temperature."
}

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"api_key":     s.settings.APIKey,
		"model":       s.settings.Model,
		"base_url":    s.settings.BaseURL,
		"temperature": s.settings.Temperature,
	}
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	for key, value := range data {
		var err error
		switch key {
		case "api_key":
			next.APIKey, err = toString(key, value)
		case "model":
			next.Model, err = toString(key, value)
		case "base_url":
			next.BaseURL, err = toString(key, value)
		case "temperature":
			next.Temperature, err = toFloat(key, value)
		}
		if err != nil {
			return err
		}
	}
	s.settings = next
	return nil
}

// Validate validates the current configuration. A missing API key is not an
// error here; front ends check for it before starting a chat.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings.Temperature < 0 || s.settings.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", s.settings.Temperature)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = LLMSettings{Model: DefaultModel}
}

// Settings returns a snapshot of the section.
func (s *LLMSection) Settings() LLMSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetAPIKey sets the API key.
func (s *LLMSection) SetAPIKey(apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.APIKey = apiKey
}
