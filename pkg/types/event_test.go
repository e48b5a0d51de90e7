package types

import (
	"errors"
	"testing"
)

func TestEventPredicates(t *testing.T) {
	tests := []struct {
		event    *AgentEvent
		name     string
		thinking bool
		message  bool
		tool     bool
		isError  bool
		turnEnd  bool
	}{
		{name: "thinking_start", event: NewThinkingStartEvent(), thinking: true},
		{name: "thinking_content", event: NewThinkingContentEvent("hmm"), thinking: true},
		{name: "thinking_end", event: NewThinkingEndEvent(), thinking: true},
		{name: "message_start", event: NewMessageStartEvent(), message: true},
		{name: "message_content", event: NewMessageContentEvent("hi"), message: true},
		{name: "message_end", event: NewMessageEndEvent(), message: true},
		{name: "tool_call", event: NewToolCallEvent("search", "cats"), tool: true},
		{name: "tool_result", event: NewToolResultEvent("search", "{}"), tool: true},
		{name: "tool_result_error", event: NewToolResultErrorEvent("nope", errors.New("unknown tool")), tool: true},
		{name: "error", event: NewErrorEvent(errors.New("boom")), isError: true},
		{name: "turn_end", event: NewTurnEndEvent(&TurnInfo{State: TurnCompleted}), turnEnd: true},
		{name: "update_busy", event: NewUpdateBusyEvent(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.event.Type) != tt.name {
				t.Errorf("Type = %q, want %q", tt.event.Type, tt.name)
			}
			if got := tt.event.IsThinkingEvent(); got != tt.thinking {
				t.Errorf("IsThinkingEvent() = %v, want %v", got, tt.thinking)
			}
			if got := tt.event.IsMessageEvent(); got != tt.message {
				t.Errorf("IsMessageEvent() = %v, want %v", got, tt.message)
			}
			if got := tt.event.IsToolEvent(); got != tt.tool {
				t.Errorf("IsToolEvent() = %v, want %v", got, tt.tool)
			}
			if got := tt.event.IsErrorEvent(); got != tt.isError {
				t.Errorf("IsErrorEvent() = %v, want %v", got, tt.isError)
			}
			if got := tt.event.IsTurnEnd(); got != tt.turnEnd {
				t.Errorf("IsTurnEnd() = %v, want %v", got, tt.turnEnd)
			}
		})
	}
}

func TestNewToolEvents(t *testing.T) {
	call := NewToolCallEvent("type_text", `{"selector":"#q","text":"go"}`)
	if call.ToolName != "type_text" || call.ToolInput != `{"selector":"#q","text":"go"}` {
		t.Errorf("unexpected tool call event: %+v", call)
	}

	result := NewToolResultEvent("type_text", `{"title":"x"}`)
	if result.ToolOutput != `{"title":"x"}` {
		t.Errorf("ToolOutput = %q", result.ToolOutput)
	}

	errEvent := NewToolResultErrorEvent("fly", errors.New("unknown tool"))
	if errEvent.Error == nil || errEvent.Error.Error() != "unknown tool" {
		t.Errorf("Error = %v", errEvent.Error)
	}
}

func TestNewTokenUsageEvent(t *testing.T) {
	event := NewTokenUsageEvent(120, 30)
	if event.TokenUsage == nil {
		t.Fatal("TokenUsage is nil")
	}
	if event.TokenUsage.TotalTokens != 150 {
		t.Errorf("TotalTokens = %d, want 150", event.TokenUsage.TotalTokens)
	}
}

func TestNewAPICallStartEvent(t *testing.T) {
	event := NewAPICallStartEvent("openai", 2, 10, 512)
	if event.APICallInfo == nil {
		t.Fatal("APICallInfo is nil")
	}
	if event.APICallInfo.Step != 2 || event.APICallInfo.MaxSteps != 10 || event.APICallInfo.ContextTokens != 512 {
		t.Errorf("unexpected APICallInfo: %+v", event.APICallInfo)
	}
	if event.Metadata["api_name"] != "openai" {
		t.Errorf("api_name = %v", event.Metadata["api_name"])
	}
}

func TestNewTurnEndEvent(t *testing.T) {
	info := &TurnInfo{State: TurnCancelled, Input: "hello", PendingInput: "hello", Steps: 1}
	event := NewTurnEndEvent(info)
	if event.Turn != info {
		t.Fatal("Turn not carried")
	}
	if event.Turn.PendingInput != "hello" {
		t.Errorf("PendingInput = %q", event.Turn.PendingInput)
	}
}

func TestInputConstructors(t *testing.T) {
	if !NewCancelInput().IsCancel() {
		t.Error("cancel input not recognised")
	}
	if in := NewUserInput("hi"); !in.IsUserInput() || in.Content != "hi" {
		t.Errorf("unexpected user input: %+v", in)
	}
	if !NewRegenerateInput().IsRegenerate() {
		t.Error("regenerate input not recognised")
	}
	if !NewClearInput().IsClear() {
		t.Error("clear input not recognised")
	}
}

func TestAgentChannelsCloseIsIdempotent(t *testing.T) {
	ch := NewAgentChannels(4)
	ch.Close()
	ch.Close()

	if _, ok := <-ch.Event; ok {
		t.Error("event channel should be closed")
	}
	if _, ok := <-ch.Done; ok {
		t.Error("done channel should be closed")
	}
}

func TestMessageRoles(t *testing.T) {
	if !NewUserMessage("a").IsHuman() {
		t.Error("user message should be human")
	}
	if !NewAssistantMessage("b").IsAssistant() {
		t.Error("assistant message should be assistant")
	}
	if NewSystemMessage("c").IsHuman() {
		t.Error("system message is not human")
	}
}
