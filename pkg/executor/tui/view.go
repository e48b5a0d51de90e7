package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/miru/pkg/agent"
)

// View renders the popup.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sections := []string{m.buildHeader(), m.buildTips(), m.viewport.View()}
	if indicator := m.buildLoadingIndicator(); indicator != "" {
		sections = append(sections, indicator)
	}
	sections = append(sections, m.buildInputBox(), m.buildBottomBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *model) buildHeader() string {
	badge := chatModeStyle
	if m.mode == agent.ModeAgent {
		badge = agentModeStyle
	}
	return headerStyle.Render(" ✿ Miru ") + badge.Render(m.mode.Label())
}

func (m *model) buildTips() string {
	return tipsStyle.Render("  Enter send • Esc stop • Ctrl+R regenerate • Ctrl+L clear • Ctrl+T switch mode • Ctrl+Y copy • Ctrl+C quit")
}

func (m *model) buildLoadingIndicator() string {
	if !m.agentBusy {
		return ""
	}
	msg := fmt.Sprintf("%s %s", m.spinner.View(), m.currentLoadingMessage)
	if m.maxSteps > 1 && m.step > 0 {
		msg += fmt.Sprintf(" (step %d/%d)", m.step, m.maxSteps)
	}
	return lipgloss.NewStyle().
		Foreground(salmonPink).
		Padding(0, 2).
		Render(msg)
}

func (m *model) buildInputBox() string {
	return inputBoxStyle.Width(max(m.width-4, 10)).Render(m.textarea.View())
}

func (m *model) buildBottomBar() string {
	left := m.notice
	right := "Miru"
	if m.totalTokens > 0 {
		right = formatTokenCount(m.totalTokens) + " tokens"
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return statusBarStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// transcript renders the committed history followed by the running turn:
// the pending human message, tool activity, thinking and streamed text,
// and the last error.
func (m *model) transcript() string {
	width := max(m.width-4, 20)
	var b strings.Builder

	if len(m.history) == 0 && m.pendingInput == "" && m.turnError == "" {
		b.WriteString(tipsStyle.Render("  Ask about the page you're on, or anything else."))
		b.WriteString("\n")
	}

	for _, msg := range m.history {
		if msg.IsHuman() {
			b.WriteString(userStyle.Render("You:"))
			b.WriteString("\n")
			b.WriteString(wordWrap(msg.Content, width))
		} else {
			b.WriteString(assistantStyle.Render("Miru:"))
			b.WriteString("\n")
			b.WriteString(m.renderer.Markdown(msg.Content, width))
		}
		b.WriteString("\n\n")
	}

	if m.pendingInput != "" {
		b.WriteString(userStyle.Render("You:"))
		b.WriteString("\n")
		b.WriteString(formatEntry("", m.pendingInput, pendingStyle, width+4))
		b.WriteString("\n\n")
	}

	for _, line := range m.activity {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.isThinking && m.thinkingBuffer.Len() > 0 {
		b.WriteString(formatEntry("💭 ", m.thinkingBuffer.String(), thinkingStyle, width+4))
		b.WriteString("\n")
	}

	if m.messageBuffer.Len() > 0 {
		b.WriteString(assistantStyle.Render("Miru:"))
		b.WriteString("\n")
		b.WriteString(wordWrap(m.messageBuffer.String(), width))
		b.WriteString("\n")
	}

	if m.turnError != "" {
		b.WriteString(formatEntry("❌ ", m.turnError, errorStyle, width+4))
		b.WriteString("\n")
	}

	return b.String()
}
