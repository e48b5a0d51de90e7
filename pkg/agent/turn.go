package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/entrhq/miru/pkg/agent/prompts"
	"github.com/entrhq/miru/pkg/agent/tools"
	"github.com/entrhq/miru/pkg/types"
)

// runTurn drives one turn to a terminal state. History is only touched on
// completion, when the input and the final answer are committed together.
func (a *DefaultAgent) runTurn(ctx context.Context, input string) *types.TurnInfo {
	info := &types.TurnInfo{ID: uuid.NewString(), Input: input}
	systemPrompt := a.buildSystemPrompt()
	history := a.memory.GetAll()

	var scratchpad []*types.Message
	for step := 1; step <= a.stepLimit(); step++ {
		if ctx.Err() != nil {
			return a.cancelled(info)
		}

		messages := prompts.BuildMessages(systemPrompt, history, input, scratchpad)
		resp, err := a.callLLM(ctx, messages, step)
		info.Steps = step
		if err != nil {
			if ctx.Err() != nil {
				return a.cancelled(info)
			}
			return a.failed(info, err)
		}

		if a.mode != ModeAgent || resp.toolCall == "" {
			return a.complete(info, resp.answer())
		}

		name, observation, err := a.executeTool(ctx, resp.toolCall)
		if ctx.Err() != nil {
			return a.cancelled(info)
		}
		if err != nil {
			return a.failed(info, err)
		}

		scratchpad = append(scratchpad,
			types.NewAssistantMessage(resp.raw()),
			types.NewUserMessage(prompts.Observation(name, observation)),
		)
	}

	return a.failed(info, fmt.Errorf("%w: no final answer after %d model calls", ErrStepLimitExceeded, a.maxSteps))
}

func (a *DefaultAgent) stepLimit() int {
	if a.mode != ModeAgent {
		return 1
	}
	return a.maxSteps
}

func (a *DefaultAgent) complete(info *types.TurnInfo, answer string) *types.TurnInfo {
	if err := a.memory.AddExchange(info.Input, answer); err != nil {
		agentDebugLog.Warnf("Failed to persist history: %v", err)
	}
	info.State = types.TurnCompleted
	info.Answer = answer
	agentDebugLog.Debugf("Turn %s completed in %d step(s)", info.ID, info.Steps)
	return info
}

func (a *DefaultAgent) cancelled(info *types.TurnInfo) *types.TurnInfo {
	info.State = types.TurnCancelled
	info.PendingInput = info.Input
	agentDebugLog.Debugf("Turn %s cancelled after %d step(s)", info.ID, info.Steps)
	return info
}

func (a *DefaultAgent) failed(info *types.TurnInfo, err error) *types.TurnInfo {
	info.State = types.TurnFailed
	info.Error = err
	agentDebugLog.Errorf("Turn %s failed after %d step(s): %v", info.ID, info.Steps, err)
	return info
}

// executeTool runs the tool named in a <tool> block and returns the tool name
// and observation. Malformed blocks and unknown tools are reported to the
// model as observations; only an error returned by the tool itself is
// returned as err.
func (a *DefaultAgent) executeTool(ctx context.Context, block string) (string, string, error) {
	call, err := tools.ParseToolBlock(block)
	if err != nil {
		a.emitEvent(types.NewToolResultErrorEvent("", err))
		return "tool call", fmt.Sprintf("Could not parse the tool call: %v. Use the documented <tool> format.", err), nil
	}

	tool, ok := a.tools.Get(call.ToolName)
	if !ok {
		err := fmt.Errorf("unknown tool: %s", call.ToolName)
		a.emitEvent(types.NewToolResultErrorEvent(call.ToolName, err))
		return call.ToolName, fmt.Sprintf("%s is not a valid tool. Available tools: %s.",
			call.ToolName, strings.Join(a.tools.Names(), ", ")), nil
	}

	a.emitEvent(types.NewToolCallEvent(call.ToolName, call.ToolInput))
	result, err := tool.Execute(ctx, call.ToolInput)
	if err != nil {
		if ctx.Err() != nil {
			return call.ToolName, "", ctx.Err()
		}
		a.emitEvent(types.NewToolResultErrorEvent(call.ToolName, err))
		return call.ToolName, "", fmt.Errorf("tool %s failed: %w", call.ToolName, err)
	}

	if truncated, cut := a.tokenizer.Truncate(result, a.maxObservationTokens); cut {
		agentDebugLog.Debugf("Observation from %s truncated to %d tokens", call.ToolName, a.maxObservationTokens)
		result = truncated + "\n[observation truncated]"
	}
	a.emitEvent(types.NewToolResultEvent(call.ToolName, result))
	return call.ToolName, result, nil
}

func (a *DefaultAgent) buildSystemPrompt() string {
	builder := prompts.NewPromptBuilder().WithCustomInstructions(a.systemPrompt)
	if a.mode == ModeAgent {
		builder.WithTools(a.tools)
	}
	return builder.Build()
}

// isCancellation reports whether err came from a cancelled or expired context.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
