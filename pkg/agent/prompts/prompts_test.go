package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/entrhq/miru/pkg/agent/tools"
	"github.com/entrhq/miru/pkg/types"
)

func echoTool(name, description string) tools.Tool {
	return tools.NewFunc(name, description, func(_ context.Context, input string) (string, error) {
		return input, nil
	})
}

func TestPromptBuilder_ChatMode(t *testing.T) {
	prompt := NewPromptBuilder().Build()

	if !strings.Contains(prompt, "<chat_mode>") {
		t.Error("chat prompt should contain chat mode section")
	}
	if strings.Contains(prompt, "<available_tools>") {
		t.Error("chat prompt should not list tools")
	}
	if strings.Contains(prompt, "<tool_calling>") {
		t.Error("chat prompt should not describe tool calls")
	}
}

func TestPromptBuilder_AgentMode(t *testing.T) {
	registry, err := tools.NewRegistry(
		echoTool("read_page", "Get the page."),
		echoTool("search", "Search the web."),
	)
	if err != nil {
		t.Fatal(err)
	}

	prompt := NewPromptBuilder().
		WithTools(registry).
		WithCustomInstructions("  Answer in French.  ").
		Build()

	for _, want := range []string{
		"<agent_loop>",
		"<tool_calling>",
		"- read_page: Get the page.",
		"- search: Search the web.",
		"<custom_instructions>\nAnswer in French.\n</custom_instructions>",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "<chat_mode>") {
		t.Error("agent prompt should not contain chat mode section")
	}
}

func TestPromptBuilder_AgentModeWithoutTools(t *testing.T) {
	prompt := NewPromptBuilder().WithTools(nil).Build()
	if !strings.Contains(prompt, "<available_tools>\n</available_tools>") {
		t.Errorf("expected empty tool list, got:\n%s", prompt)
	}
}

func TestBuildMessages(t *testing.T) {
	history := []*types.Message{
		types.NewSystemMessage("stale system"),
		types.NewUserMessage("hi"),
		types.NewAssistantMessage("hello"),
	}
	scratchpad := []*types.Message{
		types.NewAssistantMessage("<tool>...</tool>"),
		types.NewUserMessage(Observation("read_page", "{}")),
	}

	messages := BuildMessages("system", history, "what is on this page?", scratchpad)

	wantRoles := []types.MessageRole{
		types.RoleSystem,
		types.RoleUser,
		types.RoleAssistant,
		types.RoleUser,
		types.RoleAssistant,
		types.RoleUser,
	}
	if len(messages) != len(wantRoles) {
		t.Fatalf("got %d messages, want %d", len(messages), len(wantRoles))
	}
	for i, role := range wantRoles {
		if messages[i].Role != role {
			t.Errorf("message %d role = %s, want %s", i, messages[i].Role, role)
		}
	}
	if messages[0].Content != "system" {
		t.Errorf("system prompt = %q", messages[0].Content)
	}
	if messages[3].Content != "what is on this page?" {
		t.Errorf("input = %q", messages[3].Content)
	}
}

func TestObservation(t *testing.T) {
	if got := Observation("search", `{"title":"x"}`); got != "Observation from search:\n{\"title\":\"x\"}" {
		t.Errorf("Observation() = %q", got)
	}
	if got := Observation("read_page", ""); got != "Observation from read_page:\n(empty result)" {
		t.Errorf("Observation() = %q", got)
	}
}
