package browser

import (
	"context"
	"encoding/json"
	"sync"
)

type scriptCallRecord struct {
	fn   string
	args []any
}

type fakeTab struct {
	id         string
	url        string
	html       string
	sendErr    error
	scriptErr  error
	searchErr  error
	mu         sync.Mutex
	scripts    []scriptCallRecord
	searches   []string
	messages   int
	afterClick string
}

func (t *fakeTab) ID() string  { return t.id }
func (t *fakeTab) URL() string { return t.url }

func (t *fakeTab) SendMessage(ctx context.Context, req Request) (json.RawMessage, error) {
	t.mu.Lock()
	t.messages++
	t.mu.Unlock()
	if t.sendErr != nil {
		return nil, t.sendErr
	}
	return handleRequest(req, t.html, t.url, ExtractOptions{})
}

func (t *fakeTab) ExecuteScript(ctx context.Context, fn string, args ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scripts = append(t.scripts, scriptCallRecord{fn: fn, args: args})
	if t.scriptErr != nil {
		return t.scriptErr
	}
	if t.afterClick != "" {
		t.html = t.afterClick
	}
	return nil
}

func (t *fakeTab) Search(ctx context.Context, query string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.searches = append(t.searches, query)
	if t.searchErr != nil {
		return t.searchErr
	}
	t.url = SearchURL("", query)
	return nil
}

type fakeQuerier struct {
	tab Tab
	err error
}

func (q *fakeQuerier) ActiveTab(ctx context.Context) (Tab, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.tab, nil
}

const samplePage = `<html><head><title>Sample</title></head>
<body><h1>Welcome</h1><p>Hello world</p>
<form><input id="q" name="q" placeholder="Search"><button id="go">Go</button></form>
</body></html>`
