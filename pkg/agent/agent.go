// Package agent runs conversation turns against an LLM provider.
//
// A DefaultAgent is event driven: executors send *types.Input values on the
// agent's input channel and render the *types.AgentEvent values it emits.
//
//	ag := agent.NewDefaultAgent(provider,
//		agent.WithMode(agent.ModeAgent),
//		agent.WithTools(registry),
//	)
//	_ = ag.Start(ctx)
//	ag.GetChannels().Input <- types.NewUserInput("search for cats")
//
// In ModeChat every turn is a single model call. In ModeAgent the model may
// request tools, one per step, and each result is fed back as an observation
// until it produces a final answer. Only the human input and that final
// answer are committed to history.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrhq/miru/pkg/types"
)

var (
	// ErrTurnInProgress is reported when input arrives while a turn is running.
	ErrTurnInProgress = errors.New("a turn is already in progress")

	// ErrStepLimitExceeded fails a turn that made MaxSteps model calls without
	// reaching a final answer.
	ErrStepLimitExceeded = errors.New("step limit exceeded")

	// ErrEmptyInput is reported for blank user input.
	ErrEmptyInput = errors.New("input is empty")

	// ErrNothingToRegenerate is reported by regenerate when history holds no
	// human message.
	ErrNothingToRegenerate = errors.New("no message to regenerate")
)

// TurnState is the terminal state of a turn.
type TurnState = types.TurnState

// Mode selects how the agent answers.
type Mode string

const (
	// ModeChat answers with a single model call and no tools.
	ModeChat Mode = "with-llm"

	// ModeAgent lets the model call browser tools before answering.
	ModeAgent Mode = "with-agent"
)

// ParseMode converts a stored mode flag to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeChat, "":
		return ModeChat, nil
	case ModeAgent:
		return ModeAgent, nil
	case "chat", "llm":
		return ModeChat, nil
	case "agent":
		return ModeAgent, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeChat, ModeAgent)
}

// String returns the stored form of the mode.
func (m Mode) String() string {
	return string(m)
}

// Label is the name shown to users for the mode.
func (m Mode) Label() string {
	if m == ModeAgent {
		return "Chat with Miru"
	}
	return "Chat with GPT"
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeAgent {
		return ModeChat
	}
	return ModeAgent
}

// Agent is an asynchronous conversation engine driven through channels.
type Agent interface {
	// Start begins the event loop in a goroutine. It returns an error if the
	// agent is already running.
	Start(ctx context.Context) error

	// Shutdown stops the event loop, cancelling any turn in flight, and waits
	// until the agent has stopped or ctx ends.
	Shutdown(ctx context.Context) error

	// GetChannels returns the channels executors use to talk to the agent.
	GetChannels() *types.AgentChannels

	// Mode returns the mode fixed at construction.
	Mode() Mode

	// History returns a snapshot of the committed session history.
	History() []*types.Message

	// Busy reports whether a turn is in flight.
	Busy() bool
}
