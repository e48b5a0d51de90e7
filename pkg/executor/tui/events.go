package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/miru/pkg/types"
)

const maxObservationPreview = 240

// handleAgentEvent applies one agent event to the model.
//
//nolint:gocyclo
func (m *model) handleAgentEvent(event *types.AgentEvent) tea.Cmd {
	var cmd tea.Cmd

	switch event.Type {
	case types.EventTypeUpdateBusy:
		cmd = m.handleUpdateBusy(event.IsBusy)

	case types.EventTypeAPICallStart:
		if info := event.APICallInfo; info != nil {
			m.step, m.maxSteps = info.Step, info.MaxSteps
		}

	case types.EventTypeTokenUsage:
		if usage := event.TokenUsage; usage != nil {
			m.totalTokens += usage.TotalTokens
		}

	case types.EventTypeThinkingStart:
		m.isThinking = true
		m.thinkingBuffer.Reset()

	case types.EventTypeThinkingContent:
		m.thinkingBuffer.WriteString(event.Content)

	case types.EventTypeThinkingEnd:
		m.isThinking = false
		m.thinkingBuffer.Reset()

	case types.EventTypeMessageStart:
		m.messageBuffer.Reset()

	case types.EventTypeMessageContent:
		m.messageBuffer.WriteString(event.Content)

	case types.EventTypeMessageEnd:
		m.messageBuffer.Reset()

	case types.EventTypeToolCall:
		m.activity = append(m.activity, toolStyle.Render(fmt.Sprintf("🔧 %s(%s)", event.ToolName, event.ToolInput)))

	case types.EventTypeToolResult:
		m.activity = append(m.activity, "   ↳ "+highlightObservation(event.ToolOutput, maxObservationPreview))

	case types.EventTypeToolResultError:
		name := event.ToolName
		if name == "" {
			name = "tool call"
		}
		m.activity = append(m.activity, errorStyle.Render(fmt.Sprintf("⚠ %s: %v", name, event.Error)))

	case types.EventTypeHistoryUpdate:
		m.history = event.History

	case types.EventTypeError:
		tuiLog.Warnf("agent error: %v", event.Error)
		m.turnError = event.Error.Error()

	case types.EventTypeTurnEnd:
		m.handleTurnEnd(event.Turn)
	}

	m.refresh()
	return cmd
}

func (m *model) handleUpdateBusy(busy bool) tea.Cmd {
	m.agentBusy = busy
	m.recalculateLayout()
	if !busy {
		return nil
	}
	m.currentLoadingMessage = getRandomLoadingMessage()
	return m.spinner.Tick
}

func (m *model) handleTurnEnd(info *types.TurnInfo) {
	m.agentBusy = false
	m.pendingInput = ""
	m.activity = nil
	m.messageBuffer.Reset()
	m.thinkingBuffer.Reset()
	m.isThinking = false
	m.step = 0

	if info != nil && info.State == types.TurnCancelled {
		m.notice = "Stopped. The message was not saved."
		if m.textarea.Value() == "" {
			m.textarea.SetValue(info.PendingInput)
			m.textarea.CursorEnd()
		}
	}
	m.recalculateLayout()
}
