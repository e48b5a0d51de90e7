package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// DefaultCDPEndpoint is where Chrome listens when started with
// --remote-debugging-port=9222.
const DefaultCDPEndpoint = "http://127.0.0.1:9222"

const loadPollInterval = 100 * time.Millisecond

// CDPOptions configures a CDPBrowser.
type CDPOptions struct {
	// HTTPClient is used for target discovery. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Endpoint is the DevTools HTTP endpoint of a running Chrome.
	Endpoint string

	// SearchURL is the search template, see SearchURL.
	SearchURL string

	// Extract bounds the page snapshots.
	Extract ExtractOptions
}

// CDPBrowser attaches to a Chrome the user is already running. The most
// recently focused page target is the active tab, matching the order Chrome
// reports in /json/list.
//
// Each tab is driven over its own page websocket. Closing the backend, or a
// tab disappearing from the target list, drops that connection only: the
// user's tabs are never closed.
type CDPBrowser struct {
	opts CDPOptions
	tabs map[string]*cdpTab
	mu   sync.Mutex
}

// NewCDPBrowser creates a backend for the DevTools endpoint in opts.
func NewCDPBrowser(opts CDPOptions) *CDPBrowser {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultCDPEndpoint
	}
	opts.Endpoint = strings.TrimRight(opts.Endpoint, "/")
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &CDPBrowser{opts: opts, tabs: make(map[string]*cdpTab)}
}

type cdpTarget struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	WSURL string `json:"webSocketDebuggerUrl"`
}

// ActiveTab implements TabQuerier.
func (b *CDPBrowser) ActiveTab(ctx context.Context) (Tab, error) {
	targets, err := b.listTargets(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked(targets)
	for _, t := range targets {
		if t.Type != "page" || t.ID == "" || strings.HasPrefix(t.URL, "devtools://") {
			continue
		}
		tab, ok := b.tabs[t.ID]
		if !ok {
			tab = &cdpTab{id: t.ID, wsURL: b.pageSocketURL(t), opts: b.opts}
			b.tabs[t.ID] = tab
		}
		tab.setURL(t.URL)
		return tab, nil
	}
	return nil, nil
}

// pruneLocked drops connections to tabs that are no longer listed.
func (b *CDPBrowser) pruneLocked(targets []cdpTarget) {
	live := make(map[string]bool, len(targets))
	for _, t := range targets {
		live[t.ID] = true
	}
	for id, tab := range b.tabs {
		if !live[id] {
			tab.disconnect()
			delete(b.tabs, id)
		}
	}
}

// pageSocketURL returns the page websocket for t. Chrome reports its own
// host, which is rewritten to the configured endpoint's host so that
// forwarded ports keep working.
func (b *CDPBrowser) pageSocketURL(t cdpTarget) string {
	endpoint, err := url.Parse(b.opts.Endpoint)
	if err != nil {
		return t.WSURL
	}
	scheme := "ws"
	if endpoint.Scheme == "https" {
		scheme = "wss"
	}
	if t.WSURL == "" {
		return fmt.Sprintf("%s://%s/devtools/page/%s", scheme, endpoint.Host, t.ID)
	}
	ws, err := url.Parse(t.WSURL)
	if err != nil {
		return t.WSURL
	}
	ws.Host = endpoint.Host
	return ws.String()
}

func (b *CDPBrowser) listTargets(ctx context.Context) ([]cdpTarget, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.opts.Endpoint+"/json/list", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create target list request: %w", err)
	}
	resp, err := b.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach DevTools endpoint %s: %w", b.opts.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DevTools endpoint returned status %d", resp.StatusCode)
	}

	var targets []cdpTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("failed to decode target list: %w", err)
	}
	return targets, nil
}

// Close disconnects from every tab. The tabs stay open.
func (b *CDPBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, tab := range b.tabs {
		tab.disconnect()
		delete(b.tabs, id)
	}
	return nil
}

type cdpTab struct {
	id    string
	wsURL string
	opts  CDPOptions

	mu     sync.Mutex
	url    string
	conn   *chromedp.Browser
	cancel context.CancelFunc
}

func (t *cdpTab) ID() string { return t.id }

func (t *cdpTab) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

func (t *cdpTab) setURL(u string) {
	t.mu.Lock()
	t.url = u
	t.mu.Unlock()
}

// executor returns a context that sends commands to the tab, dialing the
// page websocket on first use or after the connection was lost.
func (t *cdpTab) executor(ctx context.Context) (context.Context, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		select {
		case <-t.conn.LostConnection:
			t.disconnectLocked()
		default:
		}
	}
	if t.conn == nil {
		connCtx, cancel := context.WithCancel(context.Background())
		conn, err := chromedp.NewBrowser(connCtx, t.wsURL,
			chromedp.WithBrowserLogf(browserLog.Debugf),
			chromedp.WithBrowserErrorf(browserLog.Warnf),
		)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to attach to tab %s: %w", t.id, err)
		}
		t.conn, t.cancel = conn, cancel
		browserLog.Debugf("attached to tab %s", t.id)
	}
	return cdp.WithExecutor(ctx, t.conn), nil
}

func (t *cdpTab) disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnectLocked()
}

func (t *cdpTab) disconnectLocked() {
	if t.cancel != nil {
		t.cancel()
	}
	t.conn, t.cancel = nil, nil
}

// evaluate runs expr in the page and decodes its JSON value into out.
func (t *cdpTab) evaluate(ctx context.Context, expr string, out any) error {
	execCtx, err := t.executor(ctx)
	if err != nil {
		return err
	}
	res, exception, err := runtime.Evaluate(expr).
		WithAwaitPromise(true).
		WithReturnByValue(out != nil).
		Do(execCtx)
	if err != nil {
		return err
	}
	if exception != nil {
		return exception
	}
	if out == nil || res == nil || len(res.Value) == 0 {
		return nil
	}
	return json.Unmarshal(res.Value, out)
}

type cdpDocument struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

func (t *cdpTab) SendMessage(ctx context.Context, req Request) (json.RawMessage, error) {
	var doc cdpDocument
	err := t.evaluate(ctx, `({url: location.href, html: document.documentElement.outerHTML})`, &doc)
	if err != nil {
		return nil, err
	}
	t.setURL(doc.URL)
	return handleRequest(req, doc.HTML, doc.URL, t.opts.Extract)
}

func (t *cdpTab) ExecuteScript(ctx context.Context, fn string, args ...any) error {
	expr, err := scriptCall(fn, args)
	if err != nil {
		return err
	}
	return t.evaluate(ctx, expr, nil)
}

type loadState struct {
	Origin float64 `json:"origin"`
	Ready  string  `json:"ready"`
}

const loadStateExpr = `({origin: performance.timeOrigin, ready: document.readyState})`

// Search navigates the tab to the search results and waits for the new
// document to become interactive.
func (t *cdpTab) Search(ctx context.Context, query string) error {
	var before loadState
	if err := t.evaluate(ctx, loadStateExpr, &before); err != nil {
		return err
	}

	execCtx, err := t.executor(ctx)
	if err != nil {
		return err
	}
	_, loaderID, errorText, _, err := page.Navigate(SearchURL(t.opts.SearchURL, query)).Do(execCtx)
	if err != nil {
		return err
	}
	if errorText != "" {
		return errors.New(errorText)
	}
	if loaderID == "" {
		return nil
	}

	ticker := time.NewTicker(loadPollInterval)
	defer ticker.Stop()
	for {
		var now loadState
		if err := t.evaluate(ctx, loadStateExpr, &now); err == nil &&
			now.Origin != before.Origin && now.Ready != "loading" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
