package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/entrhq/miru/pkg/agent"
)

// Runtime owns the running agent and replaces it when settings change.
type Runtime struct {
	factory *Factory
	ctx     context.Context

	mu       sync.Mutex
	settings Settings
	current  *agent.DefaultAgent
	onSwap   func(*agent.DefaultAgent)
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// OnSwap registers fn to be called with each newly started agent, including
// the first one.
func OnSwap(fn func(*agent.DefaultAgent)) RuntimeOption {
	return func(r *Runtime) {
		r.onSwap = fn
	}
}

// NewRuntime creates a runtime. Nothing is built until Start.
func NewRuntime(factory *Factory, settings Settings, opts ...RuntimeOption) *Runtime {
	r := &Runtime{factory: factory, settings: settings}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start builds and starts the first agent. ctx bounds the life of every
// agent the runtime starts.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.current != nil {
		r.mu.Unlock()
		return fmt.Errorf("runtime already started")
	}
	r.ctx = ctx

	a, _, err := r.factory.Build(r.settings)
	if err == nil {
		err = a.Start(ctx)
	}
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.current = a
	r.mu.Unlock()

	r.notify(a)
	return nil
}

// Agent returns the running agent.
func (r *Runtime) Agent() *agent.DefaultAgent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Settings returns the settings of the running agent.
func (r *Runtime) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// Update applies mutate to a copy of the settings and, when the change needs a
// new agent, starts it and shuts the old one down. It is refused while a turn
// is running. On error the previous agent and settings stay in place.
func (r *Runtime) Update(ctx context.Context, mutate func(*Settings)) error {
	a, previous, err := r.update(mutate)
	if err != nil || previous == nil {
		return err
	}

	if err := previous.Shutdown(ctx); err != nil {
		chainLog.Warnf("previous agent did not stop cleanly: %v", err)
	}
	chainLog.Infof("switched to %s agent", a.Mode())
	r.notify(a)
	return nil
}

// update swaps in the agent for the mutated settings. previous is nil when
// the running agent was kept.
func (r *Runtime) update(mutate func(*Settings)) (a, previous *agent.DefaultAgent, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil, nil, fmt.Errorf("runtime not started")
	}
	if r.current.Busy() {
		return nil, nil, agent.ErrTurnInProgress
	}

	next := r.settings
	mutate(&next)

	a, rebuilt, err := r.factory.Build(next)
	if err != nil {
		return nil, nil, err
	}
	if !rebuilt {
		r.settings = next
		return a, nil, nil
	}
	if err := a.Start(r.ctx); err != nil {
		return nil, nil, err
	}

	previous = r.current
	r.current = a
	r.settings = next
	return a, previous, nil
}

// SetMode switches between chat and agent mode.
func (r *Runtime) SetMode(ctx context.Context, mode agent.Mode) error {
	return r.Update(ctx, func(s *Settings) { s.Mode = mode })
}

// Shutdown stops the running agent.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()

	if current == nil {
		return nil
	}
	return current.Shutdown(ctx)
}

func (r *Runtime) notify(a *agent.DefaultAgent) {
	if r.onSwap != nil {
		r.onSwap(a)
	}
}
