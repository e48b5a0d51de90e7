package tui

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// getRandomLoadingMessage returns a random loading message to display while agent is thinking
func getRandomLoadingMessage() string {
	messages := []string{
		"Thinking...",
		"Reading the page...",
		"Looking around...",
		"Working on it...",
		"Formulating response...",
		"Connecting the dots...",
		"Organizing thoughts...",
		"Brewing response...",
		"Consulting the digital crystal ball...",
		"Asking the rubber duck for advice...",
		"Herding cats in binary...",
		"Whispering sweet nothings to the CPU...",
	}
	return messages[rand.Intn(len(messages))] //nolint:gosec
}

// formatTokenCount formats a token count with K/M suffixes for readability
func formatTokenCount(count int) string {
	if count >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(count)/1000000)
	}
	if count >= 1000 {
		return fmt.Sprintf("%.1fK", float64(count)/1000)
	}
	return fmt.Sprintf("%d", count)
}

// formatEntry formats a content entry with an icon and optional styling
func formatEntry(icon string, text string, style lipgloss.Style, width int) string {
	wrapWidth := width - 4
	if wrapWidth <= 0 {
		wrapWidth = 80
	}
	return style.Render(wordWrap(icon+text, wrapWidth))
}

// wordWrap wraps text to fit within the specified width while preserving paragraph breaks
//
//nolint:gocyclo
func wordWrap(text string, width int) string {
	if width <= 0 {
		width = 80
	}

	var result strings.Builder
	paragraphs := strings.Split(text, "\n")

	firstPara := true
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if !firstPara {
			result.WriteString("\n")
		}
		firstPara = false

		words := strings.Fields(para)
		currentLine := ""

		for _, word := range words {
			// Break words longer than a line.
			if len(word) > width {
				if currentLine != "" {
					result.WriteString(currentLine)
					result.WriteString("\n")
					currentLine = ""
				}
				for len(word) > width {
					result.WriteString(word[:width])
					result.WriteString("\n")
					word = word[width:]
				}
				currentLine = word
				continue
			}

			switch {
			case currentLine == "":
				currentLine = word
			case len(currentLine)+1+len(word) > width:
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			default:
				currentLine += " " + word
			}
		}

		if currentLine != "" {
			result.WriteString(currentLine)
		}
	}

	return result.String()
}

// updateTextAreaHeight grows the input box with its content, up to MaxHeight.
func (m *model) updateTextAreaHeight() {
	value := m.textarea.Value()
	width := m.textarea.Width() - 2 // prompt
	if width <= 0 {
		width = 78
	}

	visualLines := 0
	for _, line := range strings.Split(value, "\n") {
		wrapped := (len(line) + width - 1) / width
		visualLines += max(wrapped, 1)
	}
	visualLines = min(max(visualLines, 1), m.textarea.MaxHeight)

	if visualLines != m.textarea.Height() {
		m.textarea.SetHeight(visualLines)
		m.recalculateLayout()
	}
}

// lastAnswer returns the most recent assistant message in the transcript.
func (m *model) lastAnswer() string {
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].IsAssistant() {
			return m.history[i].Content
		}
	}
	return ""
}

// lastQuestion returns the most recent human message in the transcript.
func (m *model) lastQuestion() string {
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].IsHuman() {
			return m.history[i].Content
		}
	}
	return ""
}
