package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrecedence(t *testing.T) {
	llm := NewLLMSection()
	require.NoError(t, llm.SetData(map[string]any{"api_key": "from-file", "base_url": "http://file", "model": "file-model"}))
	chat := NewChatSection()

	t.Run("file values", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		t.Setenv(EnvBaseURL, "")
		r := Resolve(llm, chat, nil, Overrides{})
		assert.Equal(t, "from-file", r.LLM.APIKey)
		assert.Equal(t, "http://file", r.LLM.BaseURL)
		assert.Equal(t, "file-model", r.LLM.Model)
		assert.Equal(t, ModeChat, r.Chat.Mode)
		assert.Equal(t, BackendPlaywright, r.Browser.Backend)
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "from-env")
		t.Setenv(EnvBaseURL, "http://env")
		r := Resolve(llm, chat, nil, Overrides{})
		assert.Equal(t, "from-env", r.LLM.APIKey)
		assert.Equal(t, "http://env", r.LLM.BaseURL)
	})

	t.Run("flags beat env", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "from-env")
		r := Resolve(llm, chat, nil, Overrides{APIKey: "from-flag", Model: "flag-model", Mode: ModeAgent})
		assert.Equal(t, "from-flag", r.LLM.APIKey)
		assert.Equal(t, "flag-model", r.LLM.Model)
		assert.Equal(t, ModeAgent, r.Chat.Mode)
	})

	assert.Equal(t, "from-file", llm.Settings().APIKey, "Resolve never writes back")
}

func TestInitializeAndGlobalAccessors(t *testing.T) {
	t.Cleanup(func() {
		globalMu.Lock()
		globalManager = nil
		globalMu.Unlock()
	})

	assert.Nil(t, GetLLM())

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Initialize(path))
	require.True(t, IsInitialized())

	require.NotNil(t, GetLLM())
	require.NotNil(t, GetChat())
	require.NotNil(t, GetBrowser())

	require.NoError(t, Global().SetPath("chat.mode", ModeAgent))

	globalMu.Lock()
	globalManager = nil
	globalMu.Unlock()

	require.NoError(t, Initialize(path))
	assert.Equal(t, ModeAgent, GetChat().Settings().Mode)
}
