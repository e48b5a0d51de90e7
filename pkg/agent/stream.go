package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/miru/pkg/llm"
	"github.com/entrhq/miru/pkg/types"
)

// llmResponse is what one model call produced, split by segment type.
type llmResponse struct {
	content  string
	thinking string
	toolCall string
	usage    *llm.Usage
}

// answer is the text committed as the final answer.
func (r *llmResponse) answer() string {
	if answer := strings.TrimSpace(r.content); answer != "" {
		return answer
	}
	return strings.TrimSpace(r.raw())
}

// raw reassembles the visible response, including the tool block.
func (r *llmResponse) raw() string {
	if r.toolCall == "" {
		return r.content
	}
	return r.content + "<tool>" + r.toolCall + "</tool>"
}

// callLLM streams one completion, forwarding thinking and message text as
// events. A cancelled ctx is returned as ctx.Err().
func (a *DefaultAgent) callLLM(ctx context.Context, messages []*types.Message, step int) (*llmResponse, error) {
	promptTokens := a.tokenizer.CountMessagesTokens(messages)
	a.emitEvent(types.NewAPICallStartEvent("llm", step, a.stepLimit(), promptTokens))
	defer a.emitEvent(types.NewAPICallEndEvent("llm"))

	stream, err := a.provider.StreamCompletion(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to start completion: %w", err)
	}

	resp, err := a.consumeStream(ctx, stream)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	prompt, completion := promptTokens, a.tokenizer.CountTokens(resp.thinking+resp.raw())
	if resp.usage != nil {
		prompt, completion = resp.usage.PromptTokens, resp.usage.CompletionTokens
	}
	a.emitEvent(types.NewTokenUsageEvent(prompt, completion))
	return resp, nil
}

func (a *DefaultAgent) consumeStream(ctx context.Context, stream <-chan *llm.StreamChunk) (*llmResponse, error) {
	var content, thinking, toolCall strings.Builder
	var usage *llm.Usage
	inMessage, inThinking := false, false

	defer func() {
		if inThinking {
			a.emitEvent(types.NewThinkingEndEvent())
		}
		if inMessage {
			a.emitEvent(types.NewMessageEndEvent())
		}
	}()

	for chunk := range stream {
		if chunk == nil {
			continue
		}
		if chunk.IsError() {
			if isCancellation(chunk.Error) && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("completion stream failed: %w", chunk.Error)
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if chunk.Content == "" {
			continue
		}

		switch chunk.Type {
		case llm.ContentTypeThinking:
			if !inThinking {
				inThinking = true
				a.emitEvent(types.NewThinkingStartEvent())
			}
			thinking.WriteString(chunk.Content)
			a.emitEvent(types.NewThinkingContentEvent(chunk.Content))
		case llm.ContentTypeToolCall:
			if inThinking {
				inThinking = false
				a.emitEvent(types.NewThinkingEndEvent())
			}
			toolCall.WriteString(chunk.Content)
		default:
			if inThinking {
				inThinking = false
				a.emitEvent(types.NewThinkingEndEvent())
			}
			if !inMessage {
				inMessage = true
				a.emitEvent(types.NewMessageStartEvent())
			}
			content.WriteString(chunk.Content)
			a.emitEvent(types.NewMessageContentEvent(chunk.Content))
		}
	}

	return &llmResponse{
		content:  content.String(),
		thinking: thinking.String(),
		toolCall: toolCall.String(),
		usage:    usage,
	}, nil
}
