// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/entrhq/miru/pkg/llm"
	"github.com/entrhq/miru/pkg/llm/parser"
	"github.com/entrhq/miru/pkg/types"
)

// ErrExhausted is returned once every scripted response has been used.
var ErrExhausted = errors.New("llmtest: script exhausted")

// Hang is a scripted response that streams "partial " and then blocks until
// the request context is cancelled.
const Hang = "\x00hang"

// Provider replies to each StreamCompletion call with the next scripted
// response, split into typed chunks the way a real stream would be. When
// the script runs out it falls back to Fallback, or fails with ErrExhausted.
type Provider struct {
	mu        sync.Mutex
	responses []string
	calls     [][]*types.Message
	started   chan struct{}

	// Fallback, when set, answers every call after the script is used up.
	Fallback func(messages []*types.Message) string
}

// New returns a provider that plays responses in order.
func New(responses ...string) *Provider {
	return &Provider{responses: responses, started: make(chan struct{}, 16)}
}

// Echo returns a provider that answers every call with "echo: <last user message>".
func Echo() *Provider {
	return &Provider{started: make(chan struct{}, 16), Fallback: func(messages []*types.Message) string {
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == types.RoleUser {
				return "echo: " + messages[i].Content
			}
		}
		return "echo:"
	}}
}

// StreamCompletion implements llm.Provider.
func (p *Provider) StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *llm.StreamChunk, error) {
	p.mu.Lock()
	p.calls = append(p.calls, messages)
	var response string
	switch {
	case len(p.responses) > 0:
		response = p.responses[0]
		p.responses = p.responses[1:]
	case p.Fallback != nil:
		response = p.Fallback(messages)
	default:
		p.mu.Unlock()
		return nil, ErrExhausted
	}
	p.mu.Unlock()

	select {
	case p.started <- struct{}{}:
	default:
	}

	if response == Hang {
		ch := make(chan *llm.StreamChunk)
		go func() {
			defer close(ch)
			select {
			case ch <- &llm.StreamChunk{Type: llm.ContentTypeMessage, Content: "partial "}:
			case <-ctx.Done():
				return
			}
			<-ctx.Done()
		}()
		return ch, nil
	}

	sp := parser.NewSegmentParser()
	chunks := append(sp.Parse(response), sp.Flush()...)
	chunks = append(chunks, &llm.StreamChunk{Finished: true})

	ch := make(chan *llm.StreamChunk)
	go func() {
		defer close(ch)
		for _, c := range chunks {
			select {
			case ch <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Complete implements llm.Provider by draining StreamCompletion.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	stream, err := p.StreamCompletion(ctx, messages)
	if err != nil {
		return nil, err
	}
	var content string
	for chunk := range stream {
		if chunk.Type == llm.ContentTypeMessage {
			content += chunk.Content
		}
	}
	return types.NewAssistantMessage(content), nil
}

func (p *Provider) GetModelInfo() *types.ModelInfo { return &types.ModelInfo{Name: "scripted"} }
func (p *Provider) GetModel() string              { return "scripted" }
func (p *Provider) GetBaseURL() string            { return "" }
func (p *Provider) GetAPIKey() string             { return "test" }

// Started receives once per StreamCompletion call.
func (p *Provider) Started() <-chan struct{} {
	return p.started
}

// Calls returns the message lists the provider has been called with.
func (p *Provider) Calls() [][]*types.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]*types.Message, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount returns the number of StreamCompletion calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
