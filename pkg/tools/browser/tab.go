package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ActionGetPageContent asks the page for its content snapshot.
const ActionGetPageContent = "getPageContent"

// DefaultSearchURL is the search provider used when none is configured.
const DefaultSearchURL = "https://www.google.com/search?q=%s"

// ErrUnknownAction is returned by a tab asked to handle an unsupported request.
var ErrUnknownAction = errors.New("unknown page action")

// Request is a message sent to the page-scoped handler.
type Request struct {
	Action string `json:"action"`
}

// Tab is a browser tab the agent can address.
type Tab interface {
	// ID returns the tab's addressable identifier.
	ID() string

	// URL returns the tab's current location.
	URL() string

	// SendMessage delivers req to the page-scoped handler and returns its JSON
	// reply. A delivery failure is returned as an error.
	SendMessage(ctx context.Context, req Request) (json.RawMessage, error)

	// ExecuteScript runs fn once in the page with args as its single array
	// parameter. Any return value is ignored.
	ExecuteScript(ctx context.Context, fn string, args ...any) error

	// Search runs the browser's search capability for query in this tab.
	Search(ctx context.Context, query string) error
}

// TabQuerier resolves the active tab of the current window.
type TabQuerier interface {
	// ActiveTab returns the active tab, or nil when there is none with an
	// addressable id. An error means the query itself failed.
	ActiveTab(ctx context.Context) (Tab, error)
}

// PageContent is the snapshot a tab returns for ActionGetPageContent.
type PageContent struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	Text        string   `json:"text"`
	Links       []Link   `json:"links,omitempty"`
	Inputs      []Field  `json:"inputs,omitempty"`
	Buttons     []Field  `json:"buttons,omitempty"`
	Truncated   bool     `json:"truncated,omitempty"`
}

// Link is an anchor on the page.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Field is an interactive element: an input, textarea, select or button.
type Field struct {
	Selector    string `json:"selector,omitempty"`
	Tag         string `json:"tag"`
	Type        string `json:"type,omitempty"`
	Name        string `json:"name,omitempty"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
}

// handleRequest answers a page request from raw HTML. Backends share it so the
// snapshot format does not depend on how the page was reached.
func handleRequest(req Request, rawHTML, pageURL string, opts ExtractOptions) (json.RawMessage, error) {
	if req.Action != ActionGetPageContent {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	content, err := ExtractPageContent(rawHTML, pageURL, opts)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode page content: %w", err)
	}
	return data, nil
}

// SearchURL fills a search URL template containing %s with the escaped query.
func SearchURL(template, query string) string {
	if template == "" {
		template = DefaultSearchURL
	}
	escaped := url.QueryEscape(query)
	if !strings.Contains(template, "%s") {
		return template + escaped
	}
	return strings.Replace(template, "%s", escaped, 1)
}

// scriptCall renders fn applied to args as a single JavaScript expression.
func scriptCall(fn string, args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode script arguments: %w", err)
	}
	return fmt.Sprintf("(%s)(%s)", fn, encoded), nil
}
