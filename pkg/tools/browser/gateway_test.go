package browser

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_NoActiveTabIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		querier TabQuerier
	}{
		{"nil querier", nil},
		{"nil tab", &fakeQuerier{}},
		{"tab without id", &fakeQuerier{tab: &fakeTab{url: "https://example.com"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(tt.querier)
			ctx := context.Background()

			for _, out := range []Outcome{
				g.ReadPage(ctx),
				g.Click(ctx, "#go"),
				g.Type(ctx, "#q", "hi"),
				g.Search(ctx, "cats"),
			} {
				assert.True(t, out.Empty())
				assert.Equal(t, "", out.String())
			}
		})
	}
}

func TestGateway_ReadPage(t *testing.T) {
	tab := &fakeTab{id: "1", url: "https://example.com/", html: samplePage}
	g := NewGateway(&fakeQuerier{tab: tab})

	out := g.ReadPage(context.Background())
	require.True(t, out.OK())

	content, err := out.Content()
	require.NoError(t, err)
	assert.Equal(t, "Sample", content.Title)
	assert.Equal(t, []string{"Welcome"}, content.Headings)
	require.Len(t, content.Inputs, 1)
	assert.Equal(t, "#q", content.Inputs[0].Selector)
	assert.Equal(t, 1, tab.messages)
	assert.Empty(t, tab.scripts)
}

func TestGateway_ClickRunsOneScriptThenSnapshots(t *testing.T) {
	tab := &fakeTab{
		id:         "1",
		url:        "https://example.com/",
		html:       samplePage,
		afterClick: `<html><head><title>Clicked</title></head><body></body></html>`,
	}
	g := NewGateway(&fakeQuerier{tab: tab})

	out := g.Click(context.Background(), "#go")
	require.True(t, out.OK())

	require.Len(t, tab.scripts, 1)
	assert.Equal(t, clickScript, tab.scripts[0].fn)
	assert.Equal(t, []any{"#go"}, tab.scripts[0].args)

	content, err := out.Content()
	require.NoError(t, err)
	assert.Equal(t, "Clicked", content.Title)
}

func TestGateway_TypeStripsBackslashes(t *testing.T) {
	tab := &fakeTab{id: "1", url: "https://example.com/", html: samplePage}
	g := NewGateway(&fakeQuerier{tab: tab})

	out := g.Type(context.Background(), `input\[name=\"q\"\]`, "hello")
	require.True(t, out.OK())

	require.Len(t, tab.scripts, 1)
	assert.Equal(t, typeScript, tab.scripts[0].fn)
	assert.Equal(t, []any{`input[name="q"]`, "hello"}, tab.scripts[0].args)
}

func TestGateway_TypeMissingElementReturnsSnapshot(t *testing.T) {
	// The page script is a no-op for unknown selectors, so the tab reports success.
	tab := &fakeTab{id: "1", url: "https://example.com/", html: samplePage}
	g := NewGateway(&fakeQuerier{tab: tab})

	out := g.Type(context.Background(), "#missing", "text")
	require.True(t, out.OK())
	content, err := out.Content()
	require.NoError(t, err)
	assert.Equal(t, "Sample", content.Title)
}

func TestGateway_Search(t *testing.T) {
	tab := &fakeTab{id: "1", url: "https://example.com/", html: samplePage}
	g := NewGateway(&fakeQuerier{tab: tab})

	out := g.Search(context.Background(), "cats")
	require.True(t, out.OK())
	assert.Equal(t, []string{"cats"}, tab.searches)

	content, err := out.Content()
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/search?q=cats", content.URL)
}

func TestGateway_Failures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		querier TabQuerier
		action  func(g *Gateway) Outcome
		kind    ErrorKind
		op      string
	}{
		{
			name:    "tab query",
			querier: &fakeQuerier{err: boom},
			action:  func(g *Gateway) Outcome { return g.ReadPage(context.Background()) },
			kind:    KindTabQuery,
			op:      ToolReadPage,
		},
		{
			name:    "page content",
			querier: &fakeQuerier{tab: &fakeTab{id: "1", sendErr: boom}},
			action:  func(g *Gateway) Outcome { return g.ReadPage(context.Background()) },
			kind:    KindPageContent,
			op:      ToolReadPage,
		},
		{
			name:    "click injection",
			querier: &fakeQuerier{tab: &fakeTab{id: "1", scriptErr: boom}},
			action:  func(g *Gateway) Outcome { return g.Click(context.Background(), "#x") },
			kind:    KindInjection,
			op:      ToolClickElement,
		},
		{
			name:    "type injection",
			querier: &fakeQuerier{tab: &fakeTab{id: "1", scriptErr: boom}},
			action:  func(g *Gateway) Outcome { return g.Type(context.Background(), "#x", "y") },
			kind:    KindInjection,
			op:      ToolTypeText,
		},
		{
			name:    "search",
			querier: &fakeQuerier{tab: &fakeTab{id: "1", searchErr: boom}},
			action:  func(g *Gateway) Outcome { return g.Search(context.Background(), "q") },
			kind:    KindSearch,
			op:      ToolSearch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.action(NewGateway(tt.querier))
			require.NotNil(t, out.Err)
			assert.Equal(t, tt.kind, out.Err.Kind)
			assert.Equal(t, tt.op, out.Err.Op)
			assert.ErrorIs(t, out.Err, boom)

			var payload map[string]map[string]string
			require.NoError(t, json.Unmarshal([]byte(out.String()), &payload))
			assert.Equal(t, string(tt.kind), payload["error"]["kind"])
			assert.Contains(t, payload["error"]["message"], "boom")
		})
	}
}

func TestGateway_PageContentErrorMessage(t *testing.T) {
	g := NewGateway(&fakeQuerier{tab: &fakeTab{id: "1", sendErr: errors.New("port closed")}})
	out := g.ReadPage(context.Background())
	require.NotNil(t, out.Err)
	assert.Equal(t, "unable to get page content: port closed", out.Err.Error())
}

func TestGateway_PolicyBlocksPage(t *testing.T) {
	policy, err := NewURLPolicy([]string{"https://*.example.com/**"})
	require.NoError(t, err)

	tab := &fakeTab{id: "1", url: "https://evil.test/", html: samplePage}
	g := NewGateway(&fakeQuerier{tab: tab}, WithPolicy(policy))

	out := g.Click(context.Background(), "#go")
	require.NotNil(t, out.Err)
	assert.Equal(t, KindPolicy, out.Err.Kind)
	assert.Empty(t, tab.scripts)
}

type slowQuerier struct{}

func (slowQuerier) ActiveTab(ctx context.Context) (Tab, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGateway_ActionTimeout(t *testing.T) {
	g := NewGateway(slowQuerier{}, WithActionTimeout(20*time.Millisecond))

	out := g.ReadPage(context.Background())
	require.NotNil(t, out.Err)
	assert.Equal(t, KindTabQuery, out.Err.Kind)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
}

func TestSanitizeSelector(t *testing.T) {
	assert.Equal(t, `#a:b`, SanitizeSelector(`#a\:b`))
	assert.Equal(t, `input[name="q"]`, SanitizeSelector(`input[name=\"q\"]`))
	assert.Equal(t, `.plain`, SanitizeSelector(`.plain`))
}
