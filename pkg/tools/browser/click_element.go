package browser

import (
	"context"
	"errors"
	"strings"
)

// ToolClickElement is the name of the click tool.
const ToolClickElement = "click_element"

// ClickElementTool clicks an element on the active webpage.
type ClickElementTool struct {
	gateway *Gateway
}

// NewClickElementTool creates a click_element tool backed by gateway.
func NewClickElementTool(gateway *Gateway) *ClickElementTool {
	return &ClickElementTool{gateway: gateway}
}

func (t *ClickElementTool) Name() string {
	return ToolClickElement
}

func (t *ClickElementTool) Description() string {
	return "Click an element of the active webpage. Input should be the CSS selector of that element as a plain string. Returns the page content after the click."
}

func (t *ClickElementTool) Execute(ctx context.Context, input string) (string, error) {
	selector := strings.TrimSpace(input)
	if selector == "" {
		return failure(KindInvalidInput, ToolClickElement, errors.New("selector is required")).String(), nil
	}
	return t.gateway.Click(ctx, selector).String(), nil
}
