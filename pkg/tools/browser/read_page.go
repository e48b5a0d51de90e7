package browser

import "context"

// ToolReadPage is the name of the page-reading tool.
const ToolReadPage = "read_page"

// ReadPageTool returns the active tab's content snapshot.
type ReadPageTool struct {
	gateway *Gateway
}

// NewReadPageTool creates a read_page tool backed by gateway.
func NewReadPageTool(gateway *Gateway) *ReadPageTool {
	return &ReadPageTool{gateway: gateway}
}

func (t *ReadPageTool) Name() string {
	return ToolReadPage
}

func (t *ReadPageTool) Description() string {
	return "Get the content of the active webpage: title, text, links, input fields and buttons with their CSS selectors. Input should be empty."
}

// Execute ignores its input.
func (t *ReadPageTool) Execute(ctx context.Context, _ string) (string, error) {
	return t.gateway.ReadPage(ctx).String(), nil
}
