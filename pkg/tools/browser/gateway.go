package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/miru/pkg/logging"
)

var browserLog *logging.Logger

func init() {
	var err error
	browserLog, err = logging.NewLogger("browser")
	if err != nil {
		browserLog.Warnf("Failed to initialize browser logger, using stderr fallback: %v", err)
	}
}

// DefaultActionTimeout bounds a single gateway action.
const DefaultActionTimeout = 30 * time.Second

// Gateway performs page actions on the active tab. Each method makes at most
// one scripting or messaging call for the action itself plus one snapshot
// request, and reports the result as an Outcome.
type Gateway struct {
	tabs    TabQuerier
	policy  *URLPolicy
	timeout time.Duration
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithPolicy restricts the pages the gateway may act on.
func WithPolicy(policy *URLPolicy) GatewayOption {
	return func(g *Gateway) {
		g.policy = policy
	}
}

// WithActionTimeout bounds each action. Zero or negative disables the bound.
func WithActionTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// NewGateway creates a gateway over tabs.
func NewGateway(tabs TabQuerier, opts ...GatewayOption) *Gateway {
	g := &Gateway{tabs: tabs, timeout: DefaultActionTimeout}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ReadPage returns the active tab's content snapshot.
func (g *Gateway) ReadPage(ctx context.Context) Outcome {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	tab, out, ok := g.activeTab(ctx, ToolReadPage)
	if !ok {
		return out
	}
	return g.snapshot(ctx, tab, ToolReadPage)
}

// Click clicks the first element matching selector and returns the new snapshot.
func (g *Gateway) Click(ctx context.Context, selector string) Outcome {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	tab, out, ok := g.activeTab(ctx, ToolClickElement)
	if !ok {
		return out
	}
	if err := tab.ExecuteScript(ctx, clickScript, selector); err != nil {
		browserLog.Warnf("click %q on tab %s failed: %v", selector, tab.ID(), err)
		return failure(KindInjection, ToolClickElement, err)
	}
	return g.snapshot(ctx, tab, ToolClickElement)
}

// Type types text into the element matching selector and returns the new
// snapshot. Backslashes are removed from the selector first, since models
// tend to over-escape them.
func (g *Gateway) Type(ctx context.Context, selector, text string) Outcome {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	tab, out, ok := g.activeTab(ctx, ToolTypeText)
	if !ok {
		return out
	}
	selector = SanitizeSelector(selector)
	if err := tab.ExecuteScript(ctx, typeScript, selector, text); err != nil {
		browserLog.Warnf("type into %q on tab %s failed: %v", selector, tab.ID(), err)
		return failure(KindInjection, ToolTypeText, err)
	}
	return g.snapshot(ctx, tab, ToolTypeText)
}

// Search runs a search for query in the active tab and returns the results page.
func (g *Gateway) Search(ctx context.Context, query string) Outcome {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	tab, out, ok := g.activeTab(ctx, ToolSearch)
	if !ok {
		return out
	}
	if err := tab.Search(ctx, query); err != nil {
		browserLog.Warnf("search %q on tab %s failed: %v", query, tab.ID(), err)
		return failure(KindSearch, ToolSearch, err)
	}
	return g.snapshot(ctx, tab, ToolSearch)
}

// SanitizeSelector removes every backslash from a CSS selector.
func SanitizeSelector(selector string) string {
	return strings.ReplaceAll(selector, `\`, "")
}

func (g *Gateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// activeTab resolves the tab to act on. When ok is false, out is the Outcome
// to return: empty for "no tab", an error otherwise.
func (g *Gateway) activeTab(ctx context.Context, op string) (Tab, Outcome, bool) {
	if g.tabs == nil {
		return nil, Outcome{}, false
	}
	tab, err := g.tabs.ActiveTab(ctx)
	if err != nil {
		browserLog.Warnf("%s: active tab query failed: %v", op, err)
		return nil, failure(KindTabQuery, op, err), false
	}
	if tab == nil || tab.ID() == "" {
		browserLog.Debugf("%s: no active tab", op)
		return nil, Outcome{}, false
	}
	if !g.policy.Allows(tab.URL()) {
		return nil, failure(KindPolicy, op, fmt.Errorf("%s does not match any allowed URL pattern", tab.URL())), false
	}
	return tab, Outcome{}, true
}

func (g *Gateway) snapshot(ctx context.Context, tab Tab, op string) Outcome {
	raw, err := tab.SendMessage(ctx, Request{Action: ActionGetPageContent})
	if err != nil {
		browserLog.Warnf("%s: page content request to tab %s failed: %v", op, tab.ID(), err)
		return failure(KindPageContent, op, err)
	}
	return Outcome{Page: raw}
}
