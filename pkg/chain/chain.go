// Package chain builds the agent for the current settings and swaps it when
// those settings change.
//
// The mode is fixed per agent: switching between plain chat and agent mode
// builds a new agent over the same conversation history.
package chain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/miru/pkg/agent"
	"github.com/entrhq/miru/pkg/agent/memory"
	"github.com/entrhq/miru/pkg/agent/tools"
	"github.com/entrhq/miru/pkg/config"
	"github.com/entrhq/miru/pkg/llm"
	"github.com/entrhq/miru/pkg/llm/openai"
	"github.com/entrhq/miru/pkg/logging"
	"github.com/entrhq/miru/pkg/tools/browser"
)

var chainLog *logging.Logger

func init() {
	var err error
	chainLog, err = logging.NewLogger("chain")
	if err != nil {
		chainLog.Warnf("file logging unavailable: %v", err)
	}
}

var (
	// ErrMissingAPIKey is returned when no credential is configured.
	ErrMissingAPIKey = errors.New("no API key configured: run `miru config set llm.api_key <key>` or set OPENAI_API_KEY")

	// ErrNoBrowser is returned when agent mode is requested without a browser.
	ErrNoBrowser = errors.New("agent mode needs a browser, none is configured")
)

// Settings is everything an agent is built from.
type Settings struct {
	Mode                 agent.Mode
	APIKey               string
	Model                string
	BaseURL              string
	Temperature          float64
	MaxSteps             int
	MaxObservationTokens int
	SystemPrompt         string
}

// SettingsFromConfig converts resolved configuration into Settings.
func SettingsFromConfig(r config.Resolved) (Settings, error) {
	mode, err := agent.ParseMode(r.Chat.Mode)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Mode:                 mode,
		APIKey:               r.LLM.APIKey,
		Model:                r.LLM.Model,
		BaseURL:              r.LLM.BaseURL,
		Temperature:          r.LLM.Temperature,
		MaxSteps:             r.Chat.MaxSteps,
		MaxObservationTokens: r.Chat.MaxObservationTokens,
		SystemPrompt:         r.Chat.SystemPrompt,
	}, nil
}

// Validate reports settings an agent cannot be built from.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ProviderFunc creates the LLM provider for a set of settings.
type ProviderFunc func(Settings) (llm.Provider, error)

// OpenAIProvider is the default ProviderFunc.
func OpenAIProvider(s Settings) (llm.Provider, error) {
	opts := []openai.ProviderOption{openai.WithTemperature(s.Temperature)}
	if s.Model != "" {
		opts = append(opts, openai.WithModel(s.Model))
	}
	if s.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(s.BaseURL))
	}
	return openai.NewProvider(s.APIKey, opts...)
}

// Factory builds agents and caches the last one until its build key changes.
type Factory struct {
	provider ProviderFunc
	gateway  *browser.Gateway
	memory   *memory.ConversationMemory

	mu     sync.Mutex
	key    string
	cached *agent.DefaultAgent
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithProviderFunc replaces the OpenAI provider constructor.
func WithProviderFunc(fn ProviderFunc) FactoryOption {
	return func(f *Factory) {
		f.provider = fn
	}
}

// WithGateway sets the page-action gateway the agent mode tools use.
func WithGateway(g *browser.Gateway) FactoryOption {
	return func(f *Factory) {
		f.gateway = g
	}
}

// WithMemory sets the conversation history shared by every agent built.
func WithMemory(m *memory.ConversationMemory) FactoryOption {
	return func(f *Factory) {
		f.memory = m
	}
}

// NewFactory creates a factory. Without WithMemory the history lives only in
// memory for the life of the factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{provider: OpenAIProvider}
	for _, opt := range opts {
		opt(f)
	}
	if f.memory == nil {
		f.memory = memory.New()
	}
	return f
}

// Memory returns the history agents are built over.
func (f *Factory) Memory() *memory.ConversationMemory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memory
}

// SetMemory replaces the history. The next Build creates a new agent.
func (f *Factory) SetMemory(m *memory.ConversationMemory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memory = m
}

// Build returns an agent for s. The cached agent is returned, with rebuilt
// false, when nothing in its build key changed.
func (f *Factory) Build(s Settings) (a *agent.DefaultAgent, rebuilt bool, err error) {
	if err := s.Validate(); err != nil {
		return nil, false, err
	}
	if s.Mode == agent.ModeAgent && f.gateway == nil {
		return nil, false, ErrNoBrowser
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := f.buildKey(s)
	if f.cached != nil && key == f.key {
		return f.cached, false, nil
	}

	provider, err := f.provider(s)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create provider: %w", err)
	}

	opts := []agent.AgentOption{
		agent.WithMode(s.Mode),
		agent.WithMemory(f.memory),
		agent.WithSystemPrompt(s.SystemPrompt),
	}
	if s.MaxSteps > 0 {
		opts = append(opts, agent.WithMaxSteps(s.MaxSteps))
	}
	if s.MaxObservationTokens > 0 {
		opts = append(opts, agent.WithMaxObservationTokens(s.MaxObservationTokens))
	}
	if s.Mode == agent.ModeAgent {
		registry, err := tools.NewRegistry(browser.NewTools(f.gateway)...)
		if err != nil {
			return nil, false, fmt.Errorf("failed to register browser tools: %w", err)
		}
		opts = append(opts, agent.WithTools(registry))
	}

	f.cached = agent.NewDefaultAgent(provider, opts...)
	f.key = key
	chainLog.Infof("built %s agent (model=%s)", s.Mode, s.Model)
	return f.cached, true, nil
}

func (f *Factory) buildKey(s Settings) string {
	return fmt.Sprintf("%s|%s|%s|%s|%g|%d|%d|%s|%p",
		s.Mode, s.APIKey, s.Model, s.BaseURL, s.Temperature,
		s.MaxSteps, s.MaxObservationTokens, s.SystemPrompt, f.memory)
}
