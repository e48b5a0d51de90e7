// Package prompts assembles the system prompt and the message list sent to the
// model for each step of a turn.
package prompts

import (
	"strings"

	"github.com/entrhq/miru/pkg/agent/tools"
	"github.com/entrhq/miru/pkg/types"
)

// PromptBuilder constructs the system prompt for a mode.
type PromptBuilder struct {
	tools              *tools.Registry
	customInstructions string
	agentMode          bool
}

// NewPromptBuilder creates a builder for plain chat.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// WithTools switches the prompt to agent mode and lists the registry's tools.
func (pb *PromptBuilder) WithTools(registry *tools.Registry) *PromptBuilder {
	pb.tools = registry
	pb.agentMode = true
	return pb
}

// WithCustomInstructions adds user-provided instructions.
func (pb *PromptBuilder) WithCustomInstructions(instructions string) *PromptBuilder {
	pb.customInstructions = strings.TrimSpace(instructions)
	return pb
}

// Build renders the system prompt.
func (pb *PromptBuilder) Build() string {
	var b strings.Builder

	b.WriteString(IdentityPrompt)
	b.WriteString("\n\n")

	if pb.customInstructions != "" {
		b.WriteString("<custom_instructions>\n")
		b.WriteString(pb.customInstructions)
		b.WriteString("\n</custom_instructions>\n\n")
	}

	b.WriteString(ChainOfThoughtPrompt)
	b.WriteString("\n\n")

	if !pb.agentMode {
		b.WriteString(ChatPrompt)
		return b.String()
	}

	b.WriteString(AgentLoopPrompt)
	b.WriteString("\n\n")
	b.WriteString(ToolCallingPrompt)
	b.WriteString("\n\n")

	b.WriteString("<available_tools>\n")
	if catalog := pb.tools.Catalog(); catalog != "" {
		b.WriteString(catalog)
		b.WriteString("\n")
	}
	b.WriteString("</available_tools>")

	return b.String()
}

// BuildMessages creates the request for one model call: the system prompt, the
// committed history, the new human input and the turn's scratchpad of tool
// requests and observations. The scratchpad is never stored in history.
func BuildMessages(systemPrompt string, history []*types.Message, input string, scratchpad []*types.Message) []*types.Message {
	messages := make([]*types.Message, 0, len(history)+len(scratchpad)+2)
	messages = append(messages, types.NewSystemMessage(systemPrompt))

	for _, msg := range history {
		if msg.Role != types.RoleSystem {
			messages = append(messages, msg)
		}
	}

	if input != "" {
		messages = append(messages, types.NewUserMessage(input))
	}

	return append(messages, scratchpad...)
}

// Observation formats a tool result as the message fed back to the model.
func Observation(toolName, result string) string {
	if result == "" {
		result = "(empty result)"
	}
	return "Observation from " + toolName + ":\n" + result
}
