package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ToolTypeText is the name of the typing tool.
const ToolTypeText = "type_text"

// TypeTextInput is the JSON object type_text expects.
type TypeTextInput struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

// TypeTextTool types text into an input element on the active webpage.
type TypeTextTool struct {
	gateway *Gateway
}

// NewTypeTextTool creates a type_text tool backed by gateway.
func NewTypeTextTool(gateway *Gateway) *TypeTextTool {
	return &TypeTextTool{gateway: gateway}
}

func (t *TypeTextTool) Name() string {
	return ToolTypeText
}

func (t *TypeTextTool) Description() string {
	return `Type text into an input element of the active webpage. Input should be a JSON object with the CSS selector of that element as "selector" and the text to insert as "text", e.g. {"selector": "#q", "text": "hello"}. Returns the page content after typing.`
}

// Execute decodes the {selector, text} object. Malformed input is reported
// back to the model as an invalid_input observation.
func (t *TypeTextTool) Execute(ctx context.Context, input string) (string, error) {
	var args TypeTextInput
	if err := json.Unmarshal([]byte(strings.TrimSpace(input)), &args); err != nil {
		return failure(KindInvalidInput, ToolTypeText, fmt.Errorf("expected {\"selector\", \"text\"} object: %w", err)).String(), nil
	}
	if strings.TrimSpace(args.Selector) == "" {
		return failure(KindInvalidInput, ToolTypeText, errors.New("selector is required")).String(), nil
	}
	return t.gateway.Type(ctx, args.Selector, args.Text).String(), nil
}
