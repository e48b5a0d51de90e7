package browser

import (
	"context"
	"errors"
	"strings"
)

// ToolSearch is the name of the search tool.
const ToolSearch = "search"

// SearchTool searches the web with the configured provider in the active tab.
type SearchTool struct {
	gateway *Gateway
}

// NewSearchTool creates a search tool backed by gateway.
func NewSearchTool(gateway *Gateway) *SearchTool {
	return &SearchTool{gateway: gateway}
}

func (t *SearchTool) Name() string {
	return ToolSearch
}

func (t *SearchTool) Description() string {
	return "Search the web via the default search provider in the active tab. Input should be the search query. Returns the results page content."
}

func (t *SearchTool) Execute(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return failure(KindInvalidInput, ToolSearch, errors.New("query is required")).String(), nil
	}
	return t.gateway.Search(ctx, query).String(), nil
}
