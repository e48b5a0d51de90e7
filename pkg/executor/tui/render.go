package tui

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
)

// renderer turns answers into terminal markdown. It is rebuilt when the
// wrap width changes.
type renderer struct {
	style string
	width int
	term  *glamour.TermRenderer
}

func newRenderer() *renderer {
	return &renderer{style: "dark"}
}

// Markdown renders md at width, falling back to plain wrapped text if
// glamour fails.
func (r *renderer) Markdown(md string, width int) string {
	if width <= 0 {
		width = 80
	}
	if r.term == nil || r.width != width {
		term, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			tuiLog.Warnf("markdown renderer unavailable: %v", err)
			return wordWrap(md, width)
		}
		r.term, r.width = term, width
	}

	out, err := r.term.Render(md)
	if err != nil {
		tuiLog.Warnf("failed to render markdown: %v", err)
		return wordWrap(md, width)
	}
	return strings.Trim(out, "\n")
}

// highlightObservation colours a tool observation when it is JSON. Other
// observations are returned unchanged.
func highlightObservation(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(empty result)"
	}

	var v any
	if json.Unmarshal([]byte(s), &v) != nil {
		return truncateRunes(s, maxLen)
	}
	compact, err := json.Marshal(v)
	if err != nil {
		return truncateRunes(s, maxLen)
	}
	text := truncateRunes(string(compact), maxLen)

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, text, "json", "terminal256", "monokai"); err != nil {
		return text
	}
	return buf.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "…"
	}
	return s
}

func copyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}
