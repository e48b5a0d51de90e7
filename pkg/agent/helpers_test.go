package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/miru/pkg/llm"
	"github.com/entrhq/miru/pkg/llm/parser"
	"github.com/entrhq/miru/pkg/types"
)

// scriptedProvider replies with one scripted response per call. A response of
// blockUntilCancel streams nothing until the request context ends.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	calls     [][]*types.Message
	started   chan struct{}
	err       error
}

const blockUntilCancel = "\x00block"

func newScriptedProvider(responses ...string) *scriptedProvider {
	return &scriptedProvider{responses: responses, started: make(chan struct{}, 16)}
}

func (p *scriptedProvider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	p.mu.Lock()
	p.calls = append(p.calls, messages)
	if p.err != nil {
		p.mu.Unlock()
		return nil, p.err
	}
	if len(p.responses) == 0 {
		p.mu.Unlock()
		return nil, errors.New("script exhausted")
	}
	response := p.responses[0]
	p.responses = p.responses[1:]
	p.mu.Unlock()

	p.started <- struct{}{}
	ch := make(chan *llm.StreamChunk)
	go func() {
		defer close(ch)
		if response == blockUntilCancel {
			ch <- &llm.StreamChunk{Type: llm.ContentTypeMessage, Content: "partial "}
			<-ctx.Done()
			return
		}
		sp := parser.NewSegmentParser()
		chunks := append(sp.Parse(response), sp.Flush()...)
		for _, c := range chunks {
			select {
			case ch <- c:
			case <-ctx.Done():
				return
			}
		}
		select {
		case ch <- &llm.StreamChunk{Finished: true}:
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

func (p *scriptedProvider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	return types.NewAssistantMessage("unused"), nil
}

func (p *scriptedProvider) GetModelInfo() *types.ModelInfo { return &types.ModelInfo{Name: "scripted"} }
func (p *scriptedProvider) GetModel() string              { return "scripted" }
func (p *scriptedProvider) GetBaseURL() string            { return "" }
func (p *scriptedProvider) GetAPIKey() string             { return "test" }

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *scriptedProvider) lastCall() []*types.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[len(p.calls)-1]
}

func startAgent(t *testing.T, provider llm.Provider, opts ...AgentOption) *DefaultAgent {
	t.Helper()
	a := NewDefaultAgent(provider, opts...)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return a
}

// waitTurnEnd collects events until TurnEnd and returns them with the turn info.
func waitTurnEnd(t *testing.T, a *DefaultAgent) ([]*types.AgentEvent, *types.TurnInfo) {
	t.Helper()
	var events []*types.AgentEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-a.GetChannels().Event:
			require.True(t, ok, "event channel closed before turn end")
			events = append(events, ev)
			if ev.IsTurnEnd() {
				return events, ev.Turn
			}
		case <-timeout:
			t.Fatal("timed out waiting for turn end")
		}
	}
}

// waitEvent returns the first event of type typ.
func waitEvent(t *testing.T, a *DefaultAgent, typ types.AgentEventType) *types.AgentEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-a.GetChannels().Event:
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func eventsOfType(events []*types.AgentEvent, typ types.AgentEventType) []*types.AgentEvent {
	var out []*types.AgentEvent
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
