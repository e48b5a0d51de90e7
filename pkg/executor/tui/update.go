package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/miru/pkg/types"
)

// Init starts the cursor blinking.
func (m *model) Init() tea.Cmd {
	return m.textarea.Focus()
}

// Update handles all state updates for the TUI model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case *types.AgentEvent:
		return m, m.handleAgentEvent(msg)

	case spinner.TickMsg:
		if !m.agentBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case draftTickMsg:
		if msg.seq == m.draftSeq {
			m.saveDraft()
		}
		return m, nil

	case modeSwitchedMsg:
		return m.handleModeSwitched(msg)

	case noticeMsg:
		m.notice = msg.text
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

//nolint:gocyclo
func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.saveDraft()
		return m, tea.Quit

	case "esc":
		if m.agentBusy {
			return m, m.send(types.NewCancelInput())
		}
		return m, nil

	case "ctrl+r":
		if m.agentBusy {
			return m, nil
		}
		question := m.lastQuestion()
		if question == "" {
			m.notice = "Nothing to regenerate."
			return m, nil
		}
		m.beginTurn(question)
		return m, m.send(types.NewRegenerateInput())

	case "ctrl+l":
		if m.agentBusy {
			return m, nil
		}
		m.turnError, m.notice = "", "History cleared."
		return m, m.send(types.NewClearInput())

	case "ctrl+t":
		if m.agentBusy {
			return m, nil
		}
		return m, m.toggleMode()

	case "ctrl+y":
		answer := m.lastAnswer()
		if answer == "" {
			m.notice = "No answer to copy."
			return m, nil
		}
		if err := m.copy(answer); err != nil {
			m.notice = "Copy failed: " + err.Error()
		} else {
			m.notice = "Copied the last answer."
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		return m.submit()
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.updateTextAreaHeight()
	m.draftSeq++
	seq := m.draftSeq
	return m, tea.Batch(cmd, tea.Tick(draftDebounce, func(time.Time) tea.Msg {
		return draftTickMsg{seq: seq}
	}))
}

func (m *model) submit() (tea.Model, tea.Cmd) {
	if m.agentBusy {
		return m, nil
	}
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return m, nil
	}

	m.textarea.Reset()
	m.updateTextAreaHeight()
	m.draftSeq++
	if m.drafts != nil {
		if err := m.drafts.Clear(); err != nil {
			tuiLog.Warnf("failed to clear draft: %v", err)
		}
	}

	m.beginTurn(text)
	return m, m.send(types.NewUserInput(text))
}

// beginTurn shows text as the pending human message.
func (m *model) beginTurn(text string) {
	m.pendingInput = text
	m.turnError = ""
	m.notice = ""
	m.activity = nil
	m.refresh()
}

// send delivers input to the current agent off the update loop.
func (m *model) send(input *types.Input) tea.Cmd {
	channels := m.channels
	if channels == nil {
		return nil
	}
	return func() tea.Msg {
		channels.Input <- input
		return nil
	}
}

func (m *model) toggleMode() tea.Cmd {
	rt, next, onSwap := m.runtime, m.mode.Toggle(), m.onSwap
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.SetMode(ctx, next); err != nil {
			return modeSwitchedMsg{mode: next, err: err}
		}
		if onSwap != nil {
			onSwap(rt.Agent())
		}
		return modeSwitchedMsg{mode: next}
	}
}

func (m *model) handleModeSwitched(msg modeSwitchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.notice = "Could not switch mode: " + msg.err.Error()
		return m, nil
	}
	m.attach(m.runtime.Agent())
	m.notice = "Switched to " + msg.mode.Label()
	if m.onMode != nil {
		if err := m.onMode(msg.mode); err != nil {
			tuiLog.Warnf("failed to persist mode: %v", err)
		}
	}
	return m, nil
}

func (m *model) saveDraft() {
	if m.drafts == nil {
		return
	}
	if err := m.drafts.Save(m.textarea.Value()); err != nil {
		tuiLog.Warnf("failed to save draft: %v", err)
	}
}

func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.viewport.Width = msg.Width
	m.textarea.SetWidth(max(msg.Width-8, 10))
	m.ready = true
	m.recalculateLayout()
	return m, nil
}

// calculateViewportHeight computes the viewport height from the current
// layout: header and tips, loading line, input box and status bar.
func (m *model) calculateViewportHeight() int {
	headerHeight := 3
	inputHeight := m.textarea.Height() + 2
	statusBarHeight := 1
	loadingHeight := 0
	if m.agentBusy {
		loadingHeight = 1
	}
	return max(m.height-headerHeight-inputHeight-statusBarHeight-loadingHeight, 5)
}

func (m *model) recalculateLayout() {
	m.viewport.Height = m.calculateViewportHeight()
	m.refresh()
}

// refresh re-renders the transcript into the viewport.
func (m *model) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}
