package config

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

const (
	// SectionIDBrowser is the identifier for the browser settings section
	SectionIDBrowser = "browser"

	// Browser backends.
	BackendPlaywright = "playwright"
	BackendCDP        = "cdp"

	defaultCDPURL        = "http://127.0.0.1:9222"
	defaultSearchURL     = "https://www.google.com/search?q=%s"
	defaultActionTimeout = 30 * time.Second
)

// BrowserSettings is a snapshot of the browser section.
type BrowserSettings struct {
	Backend       string
	CDPURL        string
	StartURL      string
	SearchURL     string
	AllowedURLs   []string
	ActionTimeout time.Duration
	Headless      bool
}

// BrowserSection configures the browser the agent acts on.
type BrowserSection struct {
	settings BrowserSettings
	mu       sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

func (s *BrowserSection) ID() string    { return SectionIDBrowser }
func (s *BrowserSection) Title() string { return "Browser Settings" }

func (s *BrowserSection) Description() string {
	return "Which browser agent mode acts on: a Playwright-managed Chromium, or a running Chrome reached over the DevTools protocol."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"backend":        s.settings.Backend,
		"headless":       s.settings.Headless,
		"cdp_url":        s.settings.CDPURL,
		"start_url":      s.settings.StartURL,
		"search_url":     s.settings.SearchURL,
		"allowed_urls":   slices.Clone(s.settings.AllowedURLs),
		"action_timeout": s.settings.ActionTimeout.String(),
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	for key, value := range data {
		var err error
		switch key {
		case "backend":
			next.Backend, err = toString(key, value)
		case "headless":
			next.Headless, err = toBool(key, value)
		case "cdp_url":
			next.CDPURL, err = toString(key, value)
		case "start_url":
			next.StartURL, err = toString(key, value)
		case "search_url":
			next.SearchURL, err = toString(key, value)
		case "allowed_urls":
			next.AllowedURLs, err = toStringList(key, value)
		case "action_timeout":
			next.ActionTimeout, err = toDuration(key, value)
		}
		if err != nil {
			return err
		}
	}
	s.settings = next
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings.Backend != BackendPlaywright && s.settings.Backend != BackendCDP {
		return fmt.Errorf("backend must be %q or %q, got %q", BackendPlaywright, BackendCDP, s.settings.Backend)
	}
	if s.settings.ActionTimeout < 0 {
		return fmt.Errorf("action_timeout must not be negative, got %v", s.settings.ActionTimeout)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = BrowserSettings{
		Backend:       BackendPlaywright,
		CDPURL:        defaultCDPURL,
		SearchURL:     defaultSearchURL,
		ActionTimeout: defaultActionTimeout,
	}
}

// Settings returns a snapshot of the section.
func (s *BrowserSection) Settings() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.settings
	out.AllowedURLs = slices.Clone(s.settings.AllowedURLs)
	return out
}
