package chain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/miru/pkg/agent"
	"github.com/entrhq/miru/pkg/agent/memory"
	"github.com/entrhq/miru/pkg/config"
	"github.com/entrhq/miru/pkg/llm"
	"github.com/entrhq/miru/pkg/llm/llmtest"
	"github.com/entrhq/miru/pkg/tools/browser"
	"github.com/entrhq/miru/pkg/types"
)

type noTabs struct{}

func (noTabs) ActiveTab(context.Context) (browser.Tab, error) { return nil, nil }

func echoProviders(calls *int) ProviderFunc {
	return func(Settings) (llm.Provider, error) {
		if calls != nil {
			*calls++
		}
		return llmtest.Echo(), nil
	}
}

func testSettings() Settings {
	return Settings{Mode: agent.ModeChat, APIKey: "sk-test", Model: "gpt-4o-mini", MaxSteps: 5}
}

func TestSettingsFromConfig(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvBaseURL, "")

	resolved := config.Resolve(nil, nil, nil, config.Overrides{APIKey: "sk-flag", Mode: "agent"})
	s, err := SettingsFromConfig(resolved)
	require.NoError(t, err)
	assert.Equal(t, agent.ModeAgent, s.Mode)
	assert.Equal(t, "sk-flag", s.APIKey)
	assert.Equal(t, config.DefaultModel, s.Model)
	assert.Equal(t, 10, s.MaxSteps)
	assert.Equal(t, 4000, s.MaxObservationTokens)

	resolved.Chat.Mode = "sideways"
	_, err = SettingsFromConfig(resolved)
	assert.Error(t, err)
}

func TestFactoryBuildValidation(t *testing.T) {
	f := NewFactory(WithProviderFunc(echoProviders(nil)))

	s := testSettings()
	s.APIKey = "  "
	_, _, err := f.Build(s)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	s = testSettings()
	s.Mode = agent.ModeAgent
	_, _, err = f.Build(s)
	assert.ErrorIs(t, err, ErrNoBrowser)
}

func TestFactoryCachesByBuildKey(t *testing.T) {
	var providers int
	f := NewFactory(WithProviderFunc(echoProviders(&providers)))
	s := testSettings()

	first, rebuilt, err := f.Build(s)
	require.NoError(t, err)
	assert.True(t, rebuilt)

	again, rebuilt, err := f.Build(s)
	require.NoError(t, err)
	assert.False(t, rebuilt)
	assert.Same(t, first, again)
	assert.Equal(t, 1, providers)

	s.Temperature = 0.5
	changed, rebuilt, err := f.Build(s)
	require.NoError(t, err)
	assert.True(t, rebuilt)
	assert.NotSame(t, first, changed)

	f.SetMemory(memory.New())
	afterMemory, rebuilt, err := f.Build(s)
	require.NoError(t, err)
	assert.True(t, rebuilt)
	assert.NotSame(t, changed, afterMemory)
	assert.Same(t, f.Memory(), afterMemory.Memory())
	assert.Equal(t, 3, providers)
}

func TestFactoryModes(t *testing.T) {
	f := NewFactory(
		WithProviderFunc(echoProviders(nil)),
		WithGateway(browser.NewGateway(noTabs{})),
	)

	chat, _, err := f.Build(testSettings())
	require.NoError(t, err)
	assert.Equal(t, agent.ModeChat, chat.Mode())
	assert.Nil(t, chat.Tools())

	s := testSettings()
	s.Mode = agent.ModeAgent
	ag, _, err := f.Build(s)
	require.NoError(t, err)
	assert.Equal(t, agent.ModeAgent, ag.Mode())
	require.NotNil(t, ag.Tools())
	assert.Equal(t, []string{"click_element", "read_page", "search", "type_text"}, ag.Tools().Names())
	assert.Same(t, chat.Memory(), ag.Memory())
}

func TestOpenAIProvider(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "")

	s := testSettings()
	s.Model = "gpt-4o"
	s.BaseURL = "http://localhost:8080/v1"
	p, err := OpenAIProvider(s)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.GetModel())
	assert.Equal(t, "http://localhost:8080/v1", p.GetBaseURL())
	assert.Equal(t, "sk-test", p.GetAPIKey())
}

func runTurn(t *testing.T, a *agent.DefaultAgent, text string) *types.TurnInfo {
	t.Helper()
	a.GetChannels().Input <- types.NewUserInput(text)
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-a.GetChannels().Event:
			require.True(t, ok, "event channel closed")
			if ev.IsTurnEnd() {
				return ev.Turn
			}
		case <-timeout:
			t.Fatal("timed out waiting for turn end")
		}
	}
}

func TestRuntimeSwapKeepsHistory(t *testing.T) {
	f := NewFactory(
		WithProviderFunc(echoProviders(nil)),
		WithGateway(browser.NewGateway(noTabs{})),
	)

	var swapped []*agent.DefaultAgent
	rt := NewRuntime(f, testSettings(), OnSwap(func(a *agent.DefaultAgent) {
		swapped = append(swapped, a)
	}))
	ctx := context.Background()
	require.NoError(t, rt.Start(ctx))
	t.Cleanup(func() { _ = rt.Shutdown(context.Background()) })
	require.Len(t, swapped, 1)

	first := rt.Agent()
	info := runTurn(t, first, "hello")
	assert.Equal(t, types.TurnCompleted, info.State)
	require.Len(t, first.History(), 2)

	require.NoError(t, rt.SetMode(ctx, agent.ModeAgent))
	require.Len(t, swapped, 2)
	second := rt.Agent()
	assert.NotSame(t, first, second)
	assert.Equal(t, agent.ModeAgent, second.Mode())
	assert.Equal(t, agent.ModeAgent, rt.Settings().Mode)
	assert.Len(t, second.History(), 2)

	select {
	case <-first.GetChannels().Done:
	case <-time.After(time.Second):
		t.Fatal("previous agent was not shut down")
	}

	// Same settings again keeps the running agent.
	require.NoError(t, rt.SetMode(ctx, agent.ModeAgent))
	assert.Len(t, swapped, 2)
	assert.Same(t, second, rt.Agent())
}

func TestRuntimeUpdateFailureKeepsAgent(t *testing.T) {
	f := NewFactory(WithProviderFunc(echoProviders(nil)))
	rt := NewRuntime(f, testSettings())

	ctx := context.Background()
	require.Error(t, rt.Update(ctx, func(*Settings) {}), "update before start")

	require.NoError(t, rt.Start(ctx))
	t.Cleanup(func() { _ = rt.Shutdown(context.Background()) })
	before := rt.Agent()

	err := rt.SetMode(ctx, agent.ModeAgent)
	assert.ErrorIs(t, err, ErrNoBrowser)
	assert.Same(t, before, rt.Agent())
	assert.Equal(t, agent.ModeChat, rt.Settings().Mode)

	assert.Error(t, rt.Start(ctx), "second start")
}

func TestRuntimeStartWithoutKey(t *testing.T) {
	s := testSettings()
	s.APIKey = ""
	rt := NewRuntime(NewFactory(WithProviderFunc(echoProviders(nil))), s)
	assert.ErrorIs(t, rt.Start(context.Background()), ErrMissingAPIKey)
	assert.Nil(t, rt.Agent())
	assert.NoError(t, rt.Shutdown(context.Background()))
}
