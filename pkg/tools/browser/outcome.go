package browser

import (
	"encoding/json"
	"errors"
)

// ErrorKind classifies a failed page action.
type ErrorKind string

const (
	KindTabQuery     ErrorKind = "tab_query"     // the active tab could not be resolved
	KindPageContent  ErrorKind = "page_content"  // the page handler could not be reached
	KindInjection    ErrorKind = "injection"     // the page script could not be run
	KindSearch       ErrorKind = "search"        // the search could not be started
	KindPolicy       ErrorKind = "policy"        // the page is outside the allowed URLs
	KindInvalidInput ErrorKind = "invalid_input" // the tool input could not be decoded
)

var kindMessages = map[ErrorKind]string{
	KindTabQuery:     "unable to query active tab",
	KindPageContent:  "unable to get page content",
	KindInjection:    "unable to run page script",
	KindSearch:       "unable to search",
	KindPolicy:       "page not allowed",
	KindInvalidInput: "invalid tool input",
}

// ActionError describes why a page action failed.
type ActionError struct {
	Err  error
	Kind ErrorKind
	Op   string
}

func (e *ActionError) Error() string {
	msg := kindMessages[e.Kind]
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Outcome is the result of a gateway action: empty, a page snapshot, or an error.
type Outcome struct {
	// Page is the snapshot returned by the page handler, passed through unchanged.
	Page json.RawMessage

	// Err is set when the action failed.
	Err *ActionError
}

func failure(kind ErrorKind, op string, err error) Outcome {
	return Outcome{Err: &ActionError{Kind: kind, Op: op, Err: err}}
}

// Empty reports whether there was nothing to act on.
func (o Outcome) Empty() bool {
	return o.Err == nil && len(o.Page) == 0
}

// OK reports whether the action produced a snapshot.
func (o Outcome) OK() bool {
	return o.Err == nil && len(o.Page) > 0
}

// Content decodes the snapshot, if any.
func (o Outcome) Content() (*PageContent, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	if len(o.Page) == 0 {
		return nil, errors.New("no page content")
	}
	var content PageContent
	if err := json.Unmarshal(o.Page, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

type errorPayload struct {
	Error struct {
		Kind    ErrorKind `json:"kind"`
		Op      string    `json:"op,omitempty"`
		Message string    `json:"message"`
	} `json:"error"`
}

// String is the observation handed to the model: "" when empty, the snapshot
// JSON on success, or an {"error": {...}} object on failure.
func (o Outcome) String() string {
	if o.Err != nil {
		var p errorPayload
		p.Error.Kind = o.Err.Kind
		p.Error.Op = o.Err.Op
		p.Error.Message = o.Err.Error()
		data, err := json.Marshal(p)
		if err != nil {
			return `{"error":{"kind":"` + string(o.Err.Kind) + `"}}`
		}
		return string(data)
	}
	return string(o.Page)
}
