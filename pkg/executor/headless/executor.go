// Package headless runs a scripted list of prompts against the assistant
// without a terminal and records the outcome as a YAML transcript.
package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/entrhq/miru/pkg/agent"
	"github.com/entrhq/miru/pkg/chain"
	"github.com/entrhq/miru/pkg/logging"
	"github.com/entrhq/miru/pkg/types"
)

var headlessLog *logging.Logger

func init() {
	var err error
	headlessLog, err = logging.NewLogger("headless")
	if err != nil {
		headlessLog.Warnf("file logging unavailable: %v", err)
	}
}

const (
	cancelGrace     = 5 * time.Second
	maxOutputRecord = 2000
)

// ErrAgentStopped is recorded when the agent's event stream closes mid-turn.
var ErrAgentStopped = errors.New("agent stopped")

// Executor runs a Job over a chain runtime.
type Executor struct {
	runtime  *chain.Runtime
	job      *Job
	progress io.Writer
	now      func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithProgress writes one line per finished turn to w.
func WithProgress(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.progress = w
	}
}

// NewExecutor validates job and returns an executor for it.
func NewExecutor(rt *chain.Runtime, job *Job, opts ...ExecutorOption) (*Executor, error) {
	if rt == nil {
		return nil, fmt.Errorf("runtime is required")
	}
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}

	e := &Executor{
		runtime:  rt,
		job:      job,
		progress: io.Discard,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run sends every prompt in order and returns the transcript. The transcript
// is written to the job's transcript path when one is set. A non-nil error
// means the run could not start or the transcript could not be written;
// failed turns are reported through the transcript status.
func (e *Executor) Run(ctx context.Context) (*Transcript, error) {
	// The agent outlives the job deadline; only the turns are bounded by it.
	if e.runtime.Agent() == nil {
		if err := e.runtime.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start agent: %w", err)
		}
	}

	mode := e.job.AgentMode(e.runtime.Settings().Mode)
	if mode != e.runtime.Settings().Mode {
		if err := e.runtime.SetMode(ctx, mode); err != nil {
			return nil, fmt.Errorf("failed to switch to %s: %w", mode.Label(), err)
		}
	}

	if e.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.job.Timeout)
		defer cancel()
	}

	a := e.runtime.Agent()
	transcript := &Transcript{
		Mode:      mode.String(),
		StartTime: e.now(),
	}
	headlessLog.Infof("Running %d prompt(s) in %s mode", len(e.job.Prompts), mode)

	for i, prompt := range e.job.Prompts {
		if ctx.Err() != nil {
			transcript.Turns = append(transcript.Turns, &TurnRecord{
				Prompt: prompt,
				State:  string(types.TurnCancelled),
				Error:  fmt.Sprintf("not run: %v", ctx.Err()),
			})
			continue
		}

		record := e.runTurn(ctx, a, prompt, &transcript.Tokens)
		transcript.Turns = append(transcript.Turns, record)
		fmt.Fprintf(e.progress, "[%d/%d] %s (%s)\n", i+1, len(e.job.Prompts), record.State, record.Duration)

		if record.State != string(types.TurnCompleted) && e.job.StopOnError {
			headlessLog.Warnf("Stopping after prompt %d: %s", i+1, record.Error)
			break
		}
	}

	transcript.finish(e.now())
	headlessLog.Infof("Run finished: %s in %s", transcript.Status, transcript.Duration)

	if e.job.Transcript != "" {
		if err := WriteTranscript(e.job.Transcript, transcript); err != nil {
			return transcript, err
		}
	}
	return transcript, nil
}

// runTurn sends one prompt and collects events until the turn ends.
func (e *Executor) runTurn(ctx context.Context, a *agent.DefaultAgent, prompt string, tokens *int) *TurnRecord {
	channels := a.GetChannels()
	record := &TurnRecord{Prompt: prompt}
	start := e.now()
	defer func() {
		record.Duration = e.now().Sub(start).Round(time.Millisecond)
	}()

	turnCtx, cancel := context.WithTimeout(ctx, e.job.turnTimeout())
	defer cancel()

	select {
	case channels.Input <- types.NewUserInput(prompt):
	case <-turnCtx.Done():
		record.State = string(types.TurnFailed)
		record.Error = turnCtx.Err().Error()
		return record
	}

	var (
		started  bool
		timedOut error
		done     = turnCtx.Done()
		grace    <-chan time.Time
	)
	for {
		select {
		case event, ok := <-channels.Event:
			if !ok {
				record.State = string(types.TurnFailed)
				record.Error = ErrAgentStopped.Error()
				return record
			}
			if event.IsToolEvent() {
				recordToolEvent(record, event)
				continue
			}
			switch event.Type {
			case types.EventTypeUpdateBusy:
				if event.IsBusy {
					started = true
				}
			case types.EventTypeTokenUsage:
				if event.TokenUsage != nil {
					*tokens += event.TokenUsage.TotalTokens
				}
			case types.EventTypeError:
				if !started {
					record.State = string(types.TurnFailed)
					record.Error = event.Error.Error()
					return record
				}
			case types.EventTypeTurnEnd:
				fillTurn(record, event.Turn, timedOut)
				return record
			}

		case <-done:
			done = nil
			timedOut = turnCtx.Err()
			headlessLog.Warnf("Prompt exceeded its time limit, cancelling: %v", timedOut)
			select {
			case channels.Input <- types.NewCancelInput():
			case <-time.After(cancelGrace):
			}
			grace = time.After(cancelGrace)

		case <-grace:
			record.State = string(types.TurnFailed)
			record.Error = fmt.Sprintf("turn did not stop after cancel: %v", timedOut)
			return record
		}
	}
}

func fillTurn(record *TurnRecord, info *types.TurnInfo, timedOut error) {
	if info == nil {
		record.State = string(types.TurnFailed)
		record.Error = "turn ended without a result"
		return
	}
	record.ID = info.ID
	record.State = string(info.State)
	record.Answer = info.Answer
	record.Steps = info.Steps
	switch {
	case info.Error != nil:
		record.Error = info.Error.Error()
	case timedOut != nil:
		record.Error = fmt.Sprintf("stopped: %v", timedOut)
	}
}

// recordToolEvent adds a tool event to the turn. A result belongs to the
// last call still waiting for one; an error for a call that never ran, such
// as an unknown tool, gets a record of its own.
func recordToolEvent(record *TurnRecord, event *types.AgentEvent) {
	switch event.Type {
	case types.EventTypeToolCall:
		record.ToolCalls = append(record.ToolCalls, &ToolCallRecord{
			Tool:  event.ToolName,
			Input: event.ToolInput,
		})
	case types.EventTypeToolResult:
		if call := openCall(record); call != nil {
			call.Output = clip(event.ToolOutput, maxOutputRecord)
		}
	case types.EventTypeToolResultError:
		msg := "tool failed"
		if event.Error != nil {
			msg = event.Error.Error()
		}
		call := openCall(record)
		if call == nil || call.Tool != event.ToolName {
			call = &ToolCallRecord{Tool: event.ToolName}
			record.ToolCalls = append(record.ToolCalls, call)
		}
		call.Error = msg
	}
}

// openCall returns the last call if it has no result yet.
func openCall(record *TurnRecord) *ToolCallRecord {
	if len(record.ToolCalls) == 0 {
		return nil
	}
	call := record.ToolCalls[len(record.ToolCalls)-1]
	if call.Output != "" || call.Error != "" {
		return nil
	}
	return call
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
