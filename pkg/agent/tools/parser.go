package tools

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxXMLSize = 1024 * 1024

// ErrNoToolCall is returned when the text holds no <tool> block.
var ErrNoToolCall = errors.New("no tool call found in text")

var (
	toolRegex      = regexp.MustCompile(`(?s)<tool>.*?</tool>`)
	toolNameRegex  = regexp.MustCompile(`(?s)<tool_name>(.*?)</tool_name>`)
	toolInputRegex = regexp.MustCompile(`(?s)<tool_input>(.*?)</tool_input>`)

	// ampersandEntityRegex matches ampersands that already start an XML entity.
	ampersandEntityRegex = regexp.MustCompile(`&(?:amp|lt|gt|quot|apos|#\d+|#x[0-9a-fA-F]+);`)
)

// ParseToolCall extracts the first tool call from a model response.
//
// Expected format:
//
//	<tool>
//	<tool_name>type_text</tool_name>
//	<tool_input>{"selector": "#q", "text": "cats"}</tool_input>
//	</tool>
//
// tool_input may be wrapped in CDATA. Bare ampersands are tolerated, and if the
// block is not well-formed XML the name and input are recovered verbatim.
// Returns the call and the response text with the block removed.
func ParseToolCall(text string) (*ToolCall, string, error) {
	if len(text) > maxXMLSize {
		return nil, text, fmt.Errorf("tool call exceeds maximum size of %d bytes", maxXMLSize)
	}

	toolXML := toolRegex.FindString(text)
	if toolXML == "" {
		return nil, text, ErrNoToolCall
	}

	var call ToolCall
	if err := UnmarshalXMLWithFallback([]byte(toolXML), &call); err != nil {
		raw, ok := extractRaw(toolXML)
		if !ok {
			snippet := toolXML
			if len(snippet) > 200 {
				snippet = snippet[:200] + "..."
			}
			return nil, text, fmt.Errorf("failed to parse tool call: %w\nXML snippet: %s", err, snippet)
		}
		call = *raw
	}

	call.ToolName = strings.TrimSpace(call.ToolName)
	call.ToolInput = strings.TrimSpace(call.ToolInput)
	if call.ToolName == "" {
		return nil, text, errors.New("tool_name is required in tool call")
	}

	remaining := strings.TrimSpace(toolRegex.ReplaceAllString(text, ""))
	return &call, remaining, nil
}

// ParseToolBlock parses the inside of a <tool> block, as produced by the
// stream segment parser, which strips the outer tags.
func ParseToolBlock(inner string) (*ToolCall, error) {
	call, _, err := ParseToolCall("<tool>" + inner + "</tool>")
	return call, err
}

// extractRaw pulls tool_name and tool_input out without XML decoding.
func extractRaw(toolXML string) (*ToolCall, bool) {
	name := toolNameRegex.FindStringSubmatch(toolXML)
	if name == nil {
		return nil, false
	}
	call := &ToolCall{ToolName: name[1]}
	if input := toolInputRegex.FindStringSubmatch(toolXML); input != nil {
		call.ToolInput = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(input[1]), "<![CDATA["), "]]>")
	}
	return call, true
}

// UnmarshalXMLWithFallback attempts to unmarshal XML, retrying with bare
// ampersands escaped if the first parse fails.
func UnmarshalXMLWithFallback(data []byte, v interface{}) error {
	if err := xml.Unmarshal(data, v); err == nil {
		return nil
	}
	return xml.Unmarshal(escapeUnescapedAmpersands(data), v)
}

// escapeUnescapedAmpersands replaces bare & with &amp; and leaves existing entities alone.
func escapeUnescapedAmpersands(data []byte) []byte {
	text := string(data)

	entityPositions := make(map[int]bool)
	for _, match := range ampersandEntityRegex.FindAllStringIndex(text, -1) {
		entityPositions[match[0]] = true
	}

	var result strings.Builder
	result.Grow(len(text) + 20)
	for i := 0; i < len(text); i++ {
		if text[i] == '&' && !entityPositions[i] {
			result.WriteString("&amp;")
		} else {
			result.WriteByte(text[i])
		}
	}
	return []byte(result.String())
}
