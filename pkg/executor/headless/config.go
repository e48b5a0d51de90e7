package headless

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/miru/pkg/agent"
)

// DefaultTurnTimeout bounds each prompt when the job sets no turn_timeout.
const DefaultTurnTimeout = 2 * time.Minute

// Job is a scripted run: prompts sent one after another over one history.
type Job struct {
	// Mode is "chat" or "agent" (or the stored forms). Empty keeps the
	// configured mode.
	Mode string `yaml:"mode" json:"mode"`

	// StartURL is opened before the first prompt when the browser is
	// launched for the run.
	StartURL string `yaml:"start_url" json:"start_url"`

	// Prompts are sent in order.
	Prompts []string `yaml:"prompts" json:"prompts"`

	// TurnTimeout stops a prompt that runs longer. Timeout bounds the job.
	TurnTimeout time.Duration `yaml:"turn_timeout" json:"turn_timeout"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`

	// StopOnError skips the remaining prompts after a failed turn.
	StopOnError bool `yaml:"stop_on_error" json:"stop_on_error"`

	// Transcript is where the YAML transcript is written. Empty writes none.
	Transcript string `yaml:"transcript" json:"transcript"`
}

// LoadJob reads a job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	job := &Job{}
	if err := yaml.Unmarshal(data, job); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job file: %w", err)
	}
	return job, nil
}

// Validate validates the job.
func (j *Job) Validate() error {
	if len(j.Prompts) == 0 {
		return fmt.Errorf("at least one prompt is required")
	}
	for i, p := range j.Prompts {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("prompt %d is empty", i+1)
		}
	}
	if j.Mode != "" {
		if _, err := agent.ParseMode(j.Mode); err != nil {
			return err
		}
	}
	if j.TurnTimeout < 0 {
		return fmt.Errorf("turn_timeout must not be negative")
	}
	if j.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// AgentMode returns the job's mode, or fallback when it sets none.
func (j *Job) AgentMode(fallback agent.Mode) agent.Mode {
	if j.Mode == "" {
		return fallback
	}
	mode, err := agent.ParseMode(j.Mode)
	if err != nil {
		return fallback
	}
	return mode
}

func (j *Job) turnTimeout() time.Duration {
	if j.TurnTimeout > 0 {
		return j.TurnTimeout
	}
	return DefaultTurnTimeout
}
