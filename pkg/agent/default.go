package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/entrhq/miru/pkg/agent/memory"
	"github.com/entrhq/miru/pkg/agent/tools"
	"github.com/entrhq/miru/pkg/llm"
	"github.com/entrhq/miru/pkg/llm/tokenizer"
	"github.com/entrhq/miru/pkg/logging"
	"github.com/entrhq/miru/pkg/types"
)

var agentDebugLog *logging.Logger

func init() {
	var err error
	agentDebugLog, err = logging.NewLogger("agent")
	if err != nil {
		agentDebugLog.Warnf("Failed to initialize agent logger, using stderr fallback: %v", err)
	}
}

// Defaults applied by NewDefaultAgent.
const (
	DefaultMaxSteps             = 10
	DefaultMaxObservationTokens = 4000
	DefaultBufferSize           = 10
)

// DefaultAgent is the standard Agent. It runs one turn at a time.
type DefaultAgent struct {
	provider     llm.Provider
	channels     *types.AgentChannels
	memory       *memory.ConversationMemory
	tools        *tools.Registry
	tokenizer    *tokenizer.Tokenizer
	mode         Mode
	systemPrompt string

	maxSteps             int
	maxObservationTokens int
	bufferSize           int

	// busy is held for the whole of a turn, and briefly by clear.
	busy atomic.Bool

	// inflight holds the cancel funcs of inputs handed to a goroutine and not
	// yet finished, keyed by arrival order.
	cancelMu  sync.Mutex
	inflight  map[uint64]context.CancelFunc
	nextInput uint64

	running      bool
	started      bool
	runMu        sync.Mutex
	shutdownOnce sync.Once
}

// AgentOption configures a DefaultAgent.
type AgentOption func(*DefaultAgent)

// WithMode sets the agent's mode. The default is ModeChat.
func WithMode(mode Mode) AgentOption {
	return func(a *DefaultAgent) {
		a.mode = mode
	}
}

// WithTools sets the tools available in ModeAgent.
func WithTools(registry *tools.Registry) AgentOption {
	return func(a *DefaultAgent) {
		a.tools = registry
	}
}

// WithMemory sets the session history. By default the agent starts with an
// empty in-memory history.
func WithMemory(m *memory.ConversationMemory) AgentOption {
	return func(a *DefaultAgent) {
		a.memory = m
	}
}

// WithSystemPrompt adds custom instructions to the system prompt.
func WithSystemPrompt(prompt string) AgentOption {
	return func(a *DefaultAgent) {
		a.systemPrompt = prompt
	}
}

// WithMaxSteps caps the number of model calls in an agent turn.
func WithMaxSteps(n int) AgentOption {
	return func(a *DefaultAgent) {
		a.maxSteps = n
	}
}

// WithMaxObservationTokens caps the size of each tool observation.
// Zero or negative disables truncation.
func WithMaxObservationTokens(n int) AgentOption {
	return func(a *DefaultAgent) {
		a.maxObservationTokens = n
	}
}

// WithBufferSize sets the channel buffer size.
func WithBufferSize(size int) AgentOption {
	return func(a *DefaultAgent) {
		a.bufferSize = size
	}
}

// WithTokenizer sets the tokenizer used for observation budgets and usage
// estimates.
func WithTokenizer(tok *tokenizer.Tokenizer) AgentOption {
	return func(a *DefaultAgent) {
		a.tokenizer = tok
	}
}

// NewDefaultAgent creates an agent for provider.
func NewDefaultAgent(provider llm.Provider, opts ...AgentOption) *DefaultAgent {
	a := &DefaultAgent{
		provider:             provider,
		mode:                 ModeChat,
		maxSteps:             DefaultMaxSteps,
		maxObservationTokens: DefaultMaxObservationTokens,
		bufferSize:           DefaultBufferSize,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.memory == nil {
		a.memory = memory.New()
	}
	if a.tokenizer == nil {
		a.tokenizer = tokenizer.NewOrEstimate()
	}
	if a.maxSteps <= 0 {
		a.maxSteps = DefaultMaxSteps
	}
	if a.mode != ModeAgent {
		a.mode = ModeChat
	}

	a.channels = types.NewAgentChannels(a.bufferSize)
	return a
}

// Start begins the agent's event loop in a goroutine.
func (a *DefaultAgent) Start(ctx context.Context) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return fmt.Errorf("agent is already running")
	}
	if a.started {
		a.runMu.Unlock()
		return fmt.Errorf("agent cannot be restarted")
	}
	a.running = true
	a.started = true
	a.runMu.Unlock()

	go a.eventLoop(ctx)
	return nil
}

// Shutdown gracefully stops the agent.
func (a *DefaultAgent) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		close(a.channels.Shutdown)

		a.runMu.Lock()
		started := a.started
		a.runMu.Unlock()
		if !started {
			a.channels.Close()
		}
	})

	select {
	case <-a.channels.Done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetChannels returns the communication channels for this agent.
func (a *DefaultAgent) GetChannels() *types.AgentChannels {
	return a.channels
}

// Mode returns the agent's mode.
func (a *DefaultAgent) Mode() Mode {
	return a.mode
}

// History returns a snapshot of the session history.
func (a *DefaultAgent) History() []*types.Message {
	return a.memory.GetAll()
}

// Memory returns the session history the agent commits to.
func (a *DefaultAgent) Memory() *memory.ConversationMemory {
	return a.memory
}

// Tools returns the agent's tool registry, nil in chat mode.
func (a *DefaultAgent) Tools() *tools.Registry {
	if a.mode != ModeAgent {
		return nil
	}
	return a.tools
}

// Busy reports whether a turn is in flight.
func (a *DefaultAgent) Busy() bool {
	return a.busy.Load()
}

// eventLoop is the main processing loop for the agent.
func (a *DefaultAgent) eventLoop(ctx context.Context) {
	defer a.channels.Close()
	defer func() {
		a.runMu.Lock()
		a.running = false
		a.runMu.Unlock()
	}()
	defer a.cancelCurrentTurn()

	for {
		select {
		case <-ctx.Done():
			a.emitEvent(types.NewErrorEvent(ctx.Err()))
			return

		case <-a.channels.Shutdown:
			return

		case input := <-a.channels.Input:
			if input == nil {
				return
			}

			// Cancel is handled inline so it can interrupt a running turn.
			if input.IsCancel() {
				a.cancelCurrentTurn()
				continue
			}

			inputCtx, done := a.trackInput(ctx)
			go func() {
				defer done()
				a.processInput(inputCtx, input)
			}()
		}
	}
}

// processInput handles a single non-cancel input.
func (a *DefaultAgent) processInput(ctx context.Context, input *types.Input) {
	switch {
	case input.IsUserInput():
		a.submit(ctx, input.Content)
	case input.IsRegenerate():
		a.regenerate(ctx)
	case input.IsClear():
		a.clear()
	default:
		a.emitEvent(types.NewErrorEvent(fmt.Errorf("unsupported input type %q", input.Type)))
	}
}

func (a *DefaultAgent) submit(ctx context.Context, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		a.emitEvent(types.NewErrorEvent(ErrEmptyInput))
		return
	}
	if !a.busy.CompareAndSwap(false, true) {
		a.emitEvent(types.NewErrorEvent(ErrTurnInProgress))
		return
	}
	a.runTurnLocked(ctx, content)
}

// regenerate drops the last exchange and resubmits its human text.
func (a *DefaultAgent) regenerate(ctx context.Context) {
	if !a.busy.CompareAndSwap(false, true) {
		a.emitEvent(types.NewErrorEvent(ErrTurnInProgress))
		return
	}

	content, ok, err := a.memory.TruncateFromLastHuman()
	if err != nil {
		agentDebugLog.Warnf("Failed to persist history after truncation: %v", err)
	}
	if !ok {
		a.busy.Store(false)
		a.emitEvent(types.NewErrorEvent(ErrNothingToRegenerate))
		return
	}

	a.emitEvent(types.NewHistoryUpdateEvent(a.memory.GetAll()))
	a.runTurnLocked(ctx, content)
}

func (a *DefaultAgent) clear() {
	if !a.busy.CompareAndSwap(false, true) {
		a.emitEvent(types.NewErrorEvent(ErrTurnInProgress))
		return
	}

	if err := a.memory.Clear(); err != nil {
		agentDebugLog.Warnf("Failed to persist cleared history: %v", err)
	}
	a.busy.Store(false)
	a.emitEvent(types.NewHistoryUpdateEvent(a.memory.GetAll()))
}

// runTurnLocked runs a turn. The caller holds busy; it is released before the
// closing events are emitted so a front end reacting to TurnEnd can submit
// again straight away.
func (a *DefaultAgent) runTurnLocked(ctx context.Context, content string) {
	a.emitEvent(types.NewUpdateBusyEvent(true))
	info := a.runTurn(ctx, content)
	a.busy.Store(false)

	a.emitEvent(types.NewUpdateBusyEvent(false))
	switch info.State {
	case types.TurnCompleted:
		a.emitEvent(types.NewHistoryUpdateEvent(a.memory.GetAll()))
	case types.TurnFailed:
		a.emitEvent(types.NewErrorEvent(info.Error))
	}
	a.emitEvent(types.NewTurnEndEvent(info))
}

// trackInput derives the context an input runs under. It is registered
// before the input's goroutine starts, so a cancel read right after a submit
// still reaches the turn that submit starts.
func (a *DefaultAgent) trackInput(ctx context.Context) (context.Context, func()) {
	inputCtx, cancel := context.WithCancel(ctx)

	a.cancelMu.Lock()
	if a.inflight == nil {
		a.inflight = make(map[uint64]context.CancelFunc)
	}
	a.nextInput++
	id := a.nextInput
	a.inflight[id] = cancel
	a.cancelMu.Unlock()

	return inputCtx, func() {
		a.cancelMu.Lock()
		delete(a.inflight, id)
		a.cancelMu.Unlock()
		cancel()
	}
}

// cancelCurrentTurn cancels the running turn along with any input that has
// been read but not started yet.
func (a *DefaultAgent) cancelCurrentTurn() {
	a.cancelMu.Lock()
	defer a.cancelMu.Unlock()
	for id, cancel := range a.inflight {
		cancel()
		delete(a.inflight, id)
	}
}

// emitEvent sends an event on the event channel. The send blocks so TurnEnd
// is never dropped; a send on the channel closed by shutdown is discarded.
func (a *DefaultAgent) emitEvent(event *types.AgentEvent) {
	defer func() {
		_ = recover()
	}()
	a.channels.Event <- event
}
