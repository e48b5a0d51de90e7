package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Defaults for the Playwright backend.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
	DefaultPageTimeout    = 30 * time.Second
)

// PlaywrightOptions configures a PlaywrightBrowser.
type PlaywrightOptions struct {
	// StartURL is opened in the first tab. Empty leaves about:blank.
	StartURL string

	// SearchURL is the search template, see SearchURL.
	SearchURL string

	// Extract bounds the page snapshots.
	Extract ExtractOptions

	// Timeout is Playwright's default per-operation timeout.
	Timeout time.Duration

	// Headless runs Chromium without a window.
	Headless bool

	// SkipInstall assumes the driver and browsers are already installed.
	SkipInstall bool
}

// PlaywrightBrowser owns a Chromium instance driven through Playwright. The
// newest open page in its context is the active tab.
type PlaywrightBrowser struct {
	opts    PlaywrightOptions
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	ids     map[playwright.Page]string
	nextID  int
	mu      sync.Mutex
	started bool
}

// NewPlaywrightBrowser creates a backend. Chromium is launched by Start, or on
// first use.
func NewPlaywrightBrowser(opts PlaywrightOptions) *PlaywrightBrowser {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPageTimeout
	}
	return &PlaywrightBrowser{
		opts: opts,
		ids:  make(map[playwright.Page]string),
	}
}

// Start installs the Playwright driver if needed, launches Chromium and opens
// the start page. Calling Start again is a no-op.
func (b *PlaywrightBrowser) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startLocked()
}

func (b *PlaywrightBrowser) startLocked() error {
	if b.started {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if !b.opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	headless := b.opts.Headless
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: &headless})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
	})
	if err != nil {
		browser.Close()
		_ = pw.Stop()
		return fmt.Errorf("failed to create context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(b.opts.Timeout.Milliseconds()))

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		_ = pw.Stop()
		return fmt.Errorf("failed to create page: %w", err)
	}

	if b.opts.StartURL != "" && b.opts.StartURL != "about:blank" {
		if _, err := page.Goto(b.opts.StartURL); err != nil {
			browserLog.Warnf("failed to open start page %s: %v", b.opts.StartURL, err)
		}
	}

	b.pw = pw
	b.browser = browser
	b.context = bctx
	b.started = true
	browserLog.Infof("playwright browser started (headless=%v)", headless)
	return nil
}

// ActiveTab implements TabQuerier.
func (b *PlaywrightBrowser) ActiveTab(ctx context.Context) (Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.startLocked(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := b.context.Pages()
	for i := len(pages) - 1; i >= 0; i-- {
		page := pages[i]
		if page.IsClosed() {
			delete(b.ids, page)
			continue
		}
		id, ok := b.ids[page]
		if !ok {
			b.nextID++
			id = fmt.Sprintf("page-%d", b.nextID)
			b.ids[page] = id
		}
		return &playwrightTab{id: id, page: page, opts: b.opts}, nil
	}
	return nil, nil
}

// Close shuts Chromium and the Playwright driver down.
func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}
	b.started = false
	b.ids = make(map[playwright.Page]string)

	var errs []error
	if err := b.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

type playwrightTab struct {
	page playwright.Page
	id   string
	opts PlaywrightOptions
}

func (t *playwrightTab) ID() string  { return t.id }
func (t *playwrightTab) URL() string { return t.page.URL() }

func (t *playwrightTab) SendMessage(ctx context.Context, req Request) (json.RawMessage, error) {
	var rawHTML string
	err := runWithContext(ctx, func() error {
		var err error
		rawHTML, err = t.page.Content()
		return err
	})
	if err != nil {
		return nil, err
	}
	return handleRequest(req, rawHTML, t.page.URL(), t.opts.Extract)
}

func (t *playwrightTab) ExecuteScript(ctx context.Context, fn string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	return runWithContext(ctx, func() error {
		_, err := t.page.Evaluate(fn, args)
		return err
	})
}

func (t *playwrightTab) Search(ctx context.Context, query string) error {
	target := SearchURL(t.opts.SearchURL, query)
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	return runWithContext(ctx, func() error {
		_, err := t.page.Goto(target, playwright.PageGotoOptions{WaitUntil: &waitUntil})
		return err
	})
}

// runWithContext runs a blocking Playwright call, returning early if ctx ends.
// The call itself is still bounded by Playwright's own timeout.
func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
