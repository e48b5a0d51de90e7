package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/miru/pkg/config"
	"github.com/entrhq/miru/pkg/tools/browser"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "Miru v"+version+"\n", out)
}

func TestConfigSetAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := execute(t, "--config", path, "config", "set", "chat.mode", "with-agent")
	require.NoError(t, err)
	assert.Contains(t, out, "Set chat.mode")

	_, err = execute(t, "--config", path, "config", "set", "llm.api_key", "sk-abcdefghijkl")
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# "+path)
	assert.Contains(t, out, "chat.mode = with-agent")
	assert.Contains(t, out, "llm.api_key = sk-…ijkl")
	assert.NotContains(t, out, "sk-abcdefghijkl")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigSetRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := execute(t, "--config", path, "config", "set", "llm.temperature", "7")
	assert.Error(t, err)

	_, err = execute(t, "--config", path, "config", "set", "chat.nope", "1")
	assert.Error(t, err)

	_, err = execute(t, "--config", path, "config", "set", "mode", "chat")
	assert.Error(t, err)

	_, err = execute(t, "--config", path, "config", "set", "chat.mode")
	assert.Error(t, err)
}

func TestMissingAPIKey(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := execute(t, "--config", path, "chat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no OpenAI API key")
	assert.Contains(t, err.Error(), config.EnvAPIKey)
}

func TestRunRequiresJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	_, err := execute(t, "--config", path, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job file is required")

	_, err = execute(t, "--config", path, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewAppWiring(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, config.Initialize(path))
	require.NoError(t, config.Global().Set(config.SectionIDChat, "session", "work"))

	opts := &options{configPath: path, overrides: config.Overrides{APIKey: "sk-flag", Mode: "agent"}}
	a, err := newApp(opts, "https://example.com")
	require.NoError(t, err)
	defer a.close()

	assert.Equal(t, dir, a.dir)
	assert.Equal(t, filepath.Join(dir, "draft.txt"), a.path("draft.txt"))
	assert.Equal(t, "sk-flag", a.resolved.LLM.APIKey)
	assert.Equal(t, "with-agent", a.runtime.Settings().Mode.String())
	assert.Nil(t, a.runtime.Agent())
}

func TestPersistMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, config.Initialize(path))

	require.NoError(t, persistMode("with-agent"))
	assert.Equal(t, "with-agent", config.GetChat().Settings().Mode)

	require.NoError(t, config.Initialize(path))
	assert.Equal(t, "with-agent", config.GetChat().Settings().Mode)
}

func TestNewBrowserBackend(t *testing.T) {
	cdp := newBrowserBackend(config.BrowserSettings{Backend: config.BackendCDP, CDPURL: "http://127.0.0.1:9333"}, "")
	assert.IsType(t, &browser.CDPBrowser{}, cdp)

	pw := newBrowserBackend(config.BrowserSettings{Backend: config.BackendPlaywright}, "https://example.com")
	assert.IsType(t, &browser.PlaywrightBrowser{}, pw)
	assert.NoError(t, pw.Close())
}
