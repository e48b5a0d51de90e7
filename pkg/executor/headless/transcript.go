package headless

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	statusSuccess        = "success"
	statusFailed         = "failed"
	statusPartialSuccess = "partial_success"
)

// Transcript records a scripted run.
type Transcript struct {
	Mode      string        `yaml:"mode"`
	Status    string        `yaml:"status"`
	StartTime time.Time     `yaml:"start_time"`
	EndTime   time.Time     `yaml:"end_time"`
	Duration  time.Duration `yaml:"duration"`
	Tokens    int           `yaml:"tokens,omitempty"`
	Turns     []*TurnRecord `yaml:"turns"`
}

// TurnRecord is one prompt and what came of it.
type TurnRecord struct {
	ID        string            `yaml:"id,omitempty"`
	Prompt    string            `yaml:"prompt"`
	State     string            `yaml:"state"`
	Answer    string            `yaml:"answer,omitempty"`
	Error     string            `yaml:"error,omitempty"`
	Steps     int               `yaml:"steps"`
	Duration  time.Duration     `yaml:"duration"`
	ToolCalls []*ToolCallRecord `yaml:"tool_calls,omitempty"`
}

// ToolCallRecord is one tool invocation within a turn.
type ToolCallRecord struct {
	Tool   string `yaml:"tool"`
	Input  string `yaml:"input,omitempty"`
	Output string `yaml:"output,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// finish sets the end time and derives the status from the turns.
func (t *Transcript) finish(end time.Time) {
	t.EndTime = end
	t.Duration = end.Sub(t.StartTime).Round(time.Millisecond)

	completed := 0
	for _, turn := range t.Turns {
		if turn.State == "completed" {
			completed++
		}
	}
	switch {
	case completed == 0:
		t.Status = statusFailed
	case completed < len(t.Turns):
		t.Status = statusPartialSuccess
	default:
		t.Status = statusSuccess
	}
}

// Succeeded reports whether every turn completed.
func (t *Transcript) Succeeded() bool {
	return t.Status == statusSuccess
}

// WriteTranscript writes t as YAML to path.
func WriteTranscript(path string, t *Transcript) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
