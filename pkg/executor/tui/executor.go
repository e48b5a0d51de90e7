// Package tui is the interactive popup: a chat transcript with markdown
// rendering, a live view of the agent's tool use, and an input box whose
// unsent text survives restarts.
//
// The code is split by concern:
// - executor.go: program lifecycle and event forwarding
// - model.go: model state
// - update.go: key handling and layout
// - events.go: agent events
// - view.go: rendering
// - render.go: markdown, highlighting and clipboard
// - draft.go: draft persistence
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/miru/pkg/agent"
	"github.com/entrhq/miru/pkg/chain"
	"github.com/entrhq/miru/pkg/logging"
)

var tuiLog *logging.Logger

func init() {
	var err error
	tuiLog, err = logging.NewLogger("tui")
	if err != nil {
		tuiLog.Warnf("file logging unavailable: %v", err)
	}
}

// Executor runs the popup over a chain runtime.
type Executor struct {
	runtime     *chain.Runtime
	drafts      *DraftStore
	onMode      func(agent.Mode) error
	programOpts []tea.ProgramOption
	program     *tea.Program
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithDraftStore persists the unsent input.
func WithDraftStore(s *DraftStore) ExecutorOption {
	return func(e *Executor) {
		e.drafts = s
	}
}

// WithModeChanged registers fn to persist a mode switched with Ctrl+T.
func WithModeChanged(fn func(agent.Mode) error) ExecutorOption {
	return func(e *Executor) {
		e.onMode = fn
	}
}

// WithProgramOptions passes extra options to the Bubble Tea program.
func WithProgramOptions(opts ...tea.ProgramOption) ExecutorOption {
	return func(e *Executor) {
		e.programOpts = append(e.programOpts, opts...)
	}
}

// NewExecutor creates a TUI executor.
func NewExecutor(rt *chain.Runtime, opts ...ExecutorOption) *Executor {
	e := &Executor{runtime: rt}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run starts the agent and blocks until the user quits.
func (e *Executor) Run(ctx context.Context) error {
	if e.runtime.Agent() == nil {
		if err := e.runtime.Start(ctx); err != nil {
			return fmt.Errorf("failed to start agent: %w", err)
		}
	}
	tuiLog.Infof("TUI starting in %s mode", e.runtime.Agent().Mode())

	m := newModel(e.runtime, e.drafts)
	m.onMode = e.onMode
	m.onSwap = e.forward

	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, e.programOpts...)
	e.program = tea.NewProgram(m, opts...)
	e.forward(e.runtime.Agent())

	_, runErr := e.program.Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.runtime.Shutdown(shutdownCtx); err != nil {
		tuiLog.Warnf("agent shutdown: %v", err)
	}

	if runErr != nil {
		return fmt.Errorf("failed to run TUI program: %w", runErr)
	}
	return nil
}

// forward relays a's events to the program until a shuts down.
func (e *Executor) forward(a *agent.DefaultAgent) {
	go func() {
		for event := range a.GetChannels().Event {
			e.program.Send(event)
		}
	}()
}
