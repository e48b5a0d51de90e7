// Package cli provides a line-mode chat front end.
//
// Example usage:
//
//	factory := chain.NewFactory(chain.WithGateway(gateway))
//	rt := chain.NewRuntime(factory, settings)
//	if err := cli.NewExecutor(rt).Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Lines are sent to the agent as chat input. /regenerate, /clear, /mode,
// /history and /help are commands, and Ctrl-C stops a running turn.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/miru/pkg/agent"
	"github.com/entrhq/miru/pkg/chain"
	"github.com/entrhq/miru/pkg/logging"
	"github.com/entrhq/miru/pkg/types"
)

var cliLog *logging.Logger

func init() {
	var err error
	cliLog, err = logging.NewLogger("cli")
	if err != nil {
		cliLog.Warnf("file logging unavailable: %v", err)
	}
}

const (
	shutdownTimeout  = 5 * time.Second
	maxResultPreview = 200
)

// Executor runs a turn-by-turn conversation over a reader and writer.
type Executor struct {
	runtime   *chain.Runtime
	reader    io.Reader
	writer    io.Writer
	interrupt <-chan struct{}

	showThinking bool
	onMode       func(agent.Mode) error

	mu                  sync.Mutex
	messageStartPrinted bool
	turnRunning         bool
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithShowThinking enables/disables displaying the model's thinking blocks.
func WithShowThinking(show bool) ExecutorOption {
	return func(e *Executor) {
		e.showThinking = show
	}
}

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// WithReader sets a custom input reader (default is os.Stdin).
func WithReader(r io.Reader) ExecutorOption {
	return func(e *Executor) {
		e.reader = r
	}
}

// WithInterrupt replaces the Ctrl-C handler. Each receive stops the running
// turn, or ends the session when idle.
func WithInterrupt(ch <-chan struct{}) ExecutorOption {
	return func(e *Executor) {
		e.interrupt = ch
	}
}

// WithModeChanged registers fn to persist a mode switched with /mode.
func WithModeChanged(fn func(agent.Mode) error) ExecutorOption {
	return func(e *Executor) {
		e.onMode = fn
	}
}

// NewExecutor creates a CLI executor over rt.
func NewExecutor(rt *chain.Runtime, opts ...ExecutorOption) *Executor {
	e := &Executor{
		runtime: rt,
		reader:  os.Stdin,
		writer:  os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run starts the agent and reads lines until EOF, exit, or ctx ends.
func (e *Executor) Run(ctx context.Context) error {
	if e.runtime.Agent() == nil {
		if err := e.runtime.Start(ctx); err != nil {
			return fmt.Errorf("failed to start agent: %w", err)
		}
	}

	interrupt := e.interrupt
	if interrupt == nil {
		var stop func()
		interrupt, stop = notifyInterrupt()
		defer stop()
	}

	settled := make(chan types.AgentEventType, 16)
	eventsDone := e.watch(e.runtime.Agent(), settled)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go e.readLines(lines, readErr)

	e.printf("Miru (%s)\n", e.runtime.Agent().Mode().Label())
	e.printf("Type a message and press Enter. /help lists commands, exit quits.\n\n")

	for {
		e.printf("> ")

		var line string
		select {
		case <-ctx.Done():
			e.shutdown(eventsDone)
			return ctx.Err()
		case <-interrupt:
			e.printf("\n")
			e.shutdown(eventsDone)
			return nil
		case err := <-readErr:
			e.shutdown(eventsDone)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			e.shutdown(eventsDone)
			return nil
		case strings.HasPrefix(line, "/"):
			before := e.runtime.Agent()
			input, err := e.command(ctx, line)
			if err != nil {
				e.printf("❌ %v\n", err)
				continue
			}
			if e.runtime.Agent() != before {
				<-eventsDone
				eventsDone = e.watch(e.runtime.Agent(), settled)
			}
			if input == nil {
				continue
			}
			e.send(ctx, input, settled, interrupt)
		default:
			e.send(ctx, types.NewUserInput(line), settled, interrupt)
		}
	}
}

// send hands input to the agent and waits until it has been dealt with. An
// interrupt while waiting stops the turn.
func (e *Executor) send(ctx context.Context, input *types.Input, settled <-chan types.AgentEventType, interrupt <-chan struct{}) {
	for len(settled) > 0 {
		<-settled
	}

	channels := e.runtime.Agent().GetChannels()
	select {
	case channels.Input <- input:
	case <-ctx.Done():
		return
	}

	for {
		select {
		case kind := <-settled:
			if kind == types.EventTypeError || kind == types.EventTypeTurnEnd {
				return
			}
			// A clear finishes with its history update. Regenerate also
			// updates history, but then runs a turn.
			if kind == types.EventTypeHistoryUpdate && input.IsClear() {
				e.printf("History cleared.\n")
				return
			}
		case <-interrupt:
			channels.Input <- types.NewCancelInput()
		case <-ctx.Done():
			return
		}
	}
}

func (e *Executor) command(ctx context.Context, line string) (*types.Input, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "regenerate", "regen":
		return types.NewRegenerateInput(), nil
	case "clear":
		return types.NewClearInput(), nil
	case "history":
		e.printHistory()
		return nil, nil
	case "mode":
		return nil, e.switchMode(ctx, arg)
	case "help":
		e.printf("/regenerate  answer the last message again\n")
		e.printf("/clear       clear the conversation history\n")
		e.printf("/mode [chat|agent]  switch between plain chat and the browser agent\n")
		e.printf("/history     show the conversation history\n")
		e.printf("exit         quit\n")
		return nil, nil
	}
	return nil, fmt.Errorf("unknown command /%s, try /help", name)
}

func (e *Executor) switchMode(ctx context.Context, arg string) error {
	current := e.runtime.Agent().Mode()
	next := current.Toggle()
	if arg != "" {
		parsed, err := agent.ParseMode(arg)
		if err != nil {
			return err
		}
		next = parsed
	}

	if err := e.runtime.SetMode(ctx, next); err != nil {
		return fmt.Errorf("could not switch mode: %w", err)
	}
	if e.onMode != nil {
		if err := e.onMode(next); err != nil {
			cliLog.Warnf("failed to persist mode: %v", err)
		}
	}
	e.printf("Switched to %s\n", next.Label())
	return nil
}

func (e *Executor) printHistory() {
	history := e.runtime.Agent().History()
	if len(history) == 0 {
		e.printf("(no messages)\n")
		return
	}
	for _, msg := range history {
		e.printf("%s %s\n", speaker(msg), msg.Content)
	}
}

func speaker(msg *types.Message) string {
	if msg.Role == types.RoleUser {
		return "You:"
	}
	return "Miru:"
}

// watch renders a's events until its event channel closes. The returned
// channel is closed when it does.
func (e *Executor) watch(a *agent.DefaultAgent, settled chan<- types.AgentEventType) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range a.GetChannels().Event {
			e.handleEvent(event, settled)
		}
	}()
	return done
}

func (e *Executor) readLines(lines chan<- string, errs chan<- error) {
	scanner := bufio.NewScanner(e.reader)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		errs <- err
		return
	}
	errs <- io.EOF
}

func (e *Executor) handleEvent(event *types.AgentEvent, settled chan<- types.AgentEventType) {
	switch {
	case event.IsThinkingEvent():
		e.handleThinking(event)
		return
	case event.IsMessageEvent():
		e.handleMessage(event)
		return
	case event.IsToolEvent():
		e.handleTool(event)
		return
	}

	switch event.Type {
	case types.EventTypeUpdateBusy:
		if event.IsBusy {
			e.setTurnRunning(true)
		}
	case types.EventTypeHistoryUpdate:
		if e.isTurnRunning() {
			break
		}
		notify(settled, event.Type)
	case types.EventTypeError:
		e.printf("❌ Error: %v\n", event.Error)
		// Rejected input never starts a turn, so nothing else will settle it.
		if !e.isTurnRunning() {
			notify(settled, event.Type)
		}
	case types.EventTypeTurnEnd:
		e.handleTurnEnd(event.Turn)
		e.setTurnRunning(false)
		notify(settled, event.Type)
	}
}

func (e *Executor) handleThinking(event *types.AgentEvent) {
	if !e.showThinking {
		return
	}
	switch event.Type {
	case types.EventTypeThinkingStart:
		e.printf("\n[Thinking...]\n")
	case types.EventTypeThinkingContent:
		e.printf("%s", event.Content)
	case types.EventTypeThinkingEnd:
		e.printf("\n[Done thinking]\n")
	}
}

func (e *Executor) handleMessage(event *types.AgentEvent) {
	switch event.Type {
	case types.EventTypeMessageStart:
		e.mu.Lock()
		e.messageStartPrinted = false
		e.mu.Unlock()
	case types.EventTypeMessageContent:
		e.handleMessageContent(event.Content)
	case types.EventTypeMessageEnd:
		e.mu.Lock()
		printed := e.messageStartPrinted
		e.mu.Unlock()
		if printed {
			e.printf("\n")
		}
	}
}

func (e *Executor) handleTool(event *types.AgentEvent) {
	switch event.Type {
	case types.EventTypeToolCall:
		e.printf("🔧 %s(%s)\n", event.ToolName, event.ToolInput)
	case types.EventTypeToolResult:
		e.printf("✅ %s\n", preview(event.ToolOutput))
	case types.EventTypeToolResultError:
		e.printf("⚠️  %s: %v\n", event.ToolName, event.Error)
	}
}

func (e *Executor) handleMessageContent(content string) {
	e.mu.Lock()
	first := content != "" && !e.messageStartPrinted
	if first {
		e.messageStartPrinted = true
	}
	e.mu.Unlock()
	if first {
		e.printf("Miru: ")
	}
	e.printf("%s", content)
}

func (e *Executor) handleTurnEnd(info *types.TurnInfo) {
	if info == nil {
		return
	}
	if info.State == types.TurnCancelled {
		e.printf("\n[stopped] not saved: %s\n", info.PendingInput)
	}
	cliLog.Debugf("turn %s after %d model calls", info.State, info.Steps)
}

func (e *Executor) setTurnRunning(v bool) {
	e.mu.Lock()
	e.turnRunning = v
	e.mu.Unlock()
}

func (e *Executor) isTurnRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turnRunning
}

func (e *Executor) printf(format string, args ...any) {
	fmt.Fprintf(e.writer, format, args...)
}

func (e *Executor) shutdown(eventsDone <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.runtime.Shutdown(ctx); err != nil {
		e.printf("Warning: shutdown error: %v\n", err)
		return
	}
	<-eventsDone
}

func notify(ch chan<- types.AgentEventType, kind types.AgentEventType) {
	select {
	case ch <- kind:
	default:
	}
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "(empty)"
	}
	if r := []rune(s); len(r) > maxResultPreview {
		return string(r[:maxResultPreview]) + "…"
	}
	return s
}

func notifyInterrupt() (<-chan struct{}, func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	out := make(chan struct{})
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sigs:
				select {
				case out <- struct{}{}:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()
	return out, func() {
		signal.Stop(sigs)
		close(done)
	}
}
