// Package tools defines the single-string tool contract the agent dispatches to,
// the XML tool-call format the model uses to request them, and a registry.
package tools

import (
	"context"
	"encoding/xml"
)

// Tool is a capability the model can invoke during an agent turn.
//
// Every tool takes exactly one string and returns one string. Tools that need
// structured input decode it from the string themselves (type_text takes a
// JSON object, for example).
//
// Example tool call from the model:
//
//	<tool>
//	<tool_name>click_element</tool_name>
//	<tool_input>#submit</tool_input>
//	</tool>
type Tool interface {
	// Name returns the unique identifier the model uses to call the tool.
	Name() string

	// Description tells the model what the tool does and what its input means.
	Description() string

	// Execute runs the tool. The returned string is fed back to the model as the
	// observation. A non-nil error is unexpected and fails the turn; recoverable
	// problems should be reported in the observation instead.
	Execute(ctx context.Context, input string) (string, error)
}

// ToolCall is a parsed tool invocation from the model's response.
type ToolCall struct {
	XMLName   xml.Name `xml:"tool"`
	ToolName  string   `xml:"tool_name"`
	ToolInput string   `xml:"tool_input"`
}

// NewFunc adapts a plain function to the Tool interface.
func NewFunc(name, description string, fn func(ctx context.Context, input string) (string, error)) Tool {
	return &funcTool{name: name, description: description, fn: fn}
}

type funcTool struct {
	fn          func(ctx context.Context, input string) (string, error)
	name        string
	description string
}

func (f *funcTool) Name() string        { return f.name }
func (f *funcTool) Description() string { return f.description }

func (f *funcTool) Execute(ctx context.Context, input string) (string, error) {
	return f.fn(ctx, input)
}
