package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/entrhq/miru/pkg/agent"
	"github.com/entrhq/miru/pkg/agent/memory"
	"github.com/entrhq/miru/pkg/chain"
	"github.com/entrhq/miru/pkg/config"
	"github.com/entrhq/miru/pkg/logging"
	"github.com/entrhq/miru/pkg/tools/browser"
)

var mainLog *logging.Logger

func init() {
	var err error
	mainLog, err = logging.NewLogger("main")
	if err != nil {
		mainLog.Warnf("file logging unavailable: %v", err)
	}
}

// app is everything a front end needs for one run.
type app struct {
	dir      string
	resolved config.Resolved
	runtime  *chain.Runtime
	browser  browserBackend
}

type browserBackend interface {
	browser.TabQuerier
	Close() error
}

// newApp resolves the configuration and wires memory, the browser backend
// and the agent runtime. startURL, when set, replaces the configured start
// page for a launched browser.
func newApp(opts *options, startURL string) (*app, error) {
	resolved := config.ResolveGlobal(opts.overrides)
	settings, err := chain.SettingsFromConfig(resolved)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		if errors.Is(err, chain.ErrMissingAPIKey) {
			return nil, fmt.Errorf("no OpenAI API key: set %s, pass --api-key, or run \"miru config set llm.api_key <key>\"", config.EnvAPIKey)
		}
		return nil, err
	}

	dir, err := dataDir(opts.configPath)
	if err != nil {
		return nil, err
	}

	store, err := memory.NewFileStore(filepath.Join(dir, "history"))
	if err != nil {
		return nil, err
	}
	mem, err := memory.Open(store, resolved.Chat.Session)
	if err != nil {
		return nil, err
	}

	policy, err := browser.NewURLPolicy(resolved.Browser.AllowedURLs)
	if err != nil {
		return nil, err
	}
	backend := newBrowserBackend(resolved.Browser, startURL)
	gateway := browser.NewGateway(backend,
		browser.WithPolicy(policy),
		browser.WithActionTimeout(resolved.Browser.ActionTimeout),
	)

	factory := chain.NewFactory(chain.WithGateway(gateway), chain.WithMemory(mem))
	mainLog.Infof("Model %s, mode %s, session %q, browser %s", settings.Model, settings.Mode, resolved.Chat.Session, resolved.Browser.Backend)

	return &app{
		dir:      dir,
		resolved: resolved,
		runtime:  chain.NewRuntime(factory, settings),
		browser:  backend,
	}, nil
}

func newBrowserBackend(s config.BrowserSettings, startURL string) browserBackend {
	if s.Backend == config.BackendCDP {
		return browser.NewCDPBrowser(browser.CDPOptions{
			Endpoint:  s.CDPURL,
			SearchURL: s.SearchURL,
		})
	}
	if startURL == "" {
		startURL = s.StartURL
	}
	return browser.NewPlaywrightBrowser(browser.PlaywrightOptions{
		StartURL:  startURL,
		SearchURL: s.SearchURL,
		Timeout:   s.ActionTimeout,
		Headless:  s.Headless,
	})
}

// path returns name inside the data directory.
func (a *app) path(name string) string {
	return filepath.Join(a.dir, name)
}

func (a *app) close() {
	if err := a.browser.Close(); err != nil {
		mainLog.Warnf("Failed to close browser: %v", err)
	}
}

// dataDir is the directory holding the config file, history and drafts.
func dataDir(configPath string) (string, error) {
	if configPath != "" {
		return filepath.Dir(configPath), nil
	}
	return config.DefaultDir()
}

// persistMode stores the mode chosen in a session as the new default.
func persistMode(mode agent.Mode) error {
	return config.Global().Set(config.SectionIDChat, "mode", mode.String())
}
