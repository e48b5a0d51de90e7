package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionDefaults(t *testing.T) {
	llm := NewLLMSection().Settings()
	assert.Equal(t, DefaultModel, llm.Model)
	assert.Empty(t, llm.APIKey)
	assert.Zero(t, llm.Temperature)

	chat := NewChatSection().Settings()
	assert.Equal(t, ModeChat, chat.Mode)
	assert.Equal(t, 10, chat.MaxSteps)
	assert.Equal(t, 4000, chat.MaxObservationTokens)
	assert.Equal(t, "default", chat.Session)

	browser := NewBrowserSection().Settings()
	assert.Equal(t, BackendPlaywright, browser.Backend)
	assert.Equal(t, "http://127.0.0.1:9222", browser.CDPURL)
	assert.Equal(t, 30*time.Second, browser.ActionTimeout)
	assert.False(t, browser.Headless)
}

func TestSectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		section Section
		data    map[string]any
		wantErr bool
	}{
		{"llm ok", NewLLMSection(), map[string]any{"temperature": 1.5}, false},
		{"llm temperature negative", NewLLMSection(), map[string]any{"temperature": -0.1}, true},
		{"chat agent mode", NewChatSection(), map[string]any{"mode": ModeAgent}, false},
		{"chat bad mode", NewChatSection(), map[string]any{"mode": "agent"}, true},
		{"chat zero steps", NewChatSection(), map[string]any{"max_steps": 0}, true},
		{"chat negative budget", NewChatSection(), map[string]any{"max_observation_tokens": -1}, true},
		{"chat empty session", NewChatSection(), map[string]any{"session": ""}, true},
		{"browser cdp", NewBrowserSection(), map[string]any{"backend": BackendCDP}, false},
		{"browser unknown backend", NewBrowserSection(), map[string]any{"backend": "firefox"}, true},
		{"browser negative timeout", NewBrowserSection(), map[string]any{"action_timeout": "-1s"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.section.SetData(tt.data))
			err := tt.section.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSectionSetDataTypeErrors(t *testing.T) {
	chat := NewChatSection()
	err := chat.SetData(map[string]any{"mode": ModeAgent, "max_steps": true})
	assert.Error(t, err)
	assert.Equal(t, ModeChat, chat.Settings().Mode, "a failed SetData leaves the section untouched")

	browser := NewBrowserSection()
	assert.Error(t, browser.SetData(map[string]any{"allowed_urls": []any{"ok", 3}}))
	assert.Error(t, browser.SetData(map[string]any{"headless": "maybe"}))

	llm := NewLLMSection()
	assert.Error(t, llm.SetData(map[string]any{"model": 4}))
	assert.NoError(t, llm.SetData(map[string]any{"unknown": "ignored"}))
}

func TestBrowserSettingsAreCopies(t *testing.T) {
	browser := NewBrowserSection()
	require.NoError(t, browser.SetData(map[string]any{"allowed_urls": "https://a.test/*"}))

	settings := browser.Settings()
	settings.AllowedURLs[0] = "changed"

	assert.Equal(t, []string{"https://a.test/*"}, browser.Settings().AllowedURLs)
}
