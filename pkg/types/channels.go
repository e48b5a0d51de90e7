package types

import "sync"

// AgentChannels groups the channels an executor uses to talk to a running agent.
type AgentChannels struct {
	// Input carries user requests into the agent.
	Input chan *Input

	// Event carries agent events out to the executor. Closed on shutdown.
	Event chan *AgentEvent

	// Shutdown is closed by the agent owner to stop the event loop.
	Shutdown chan struct{}

	// Done is closed once the agent has fully stopped.
	Done chan struct{}

	closeOnce sync.Once
}

// NewAgentChannels creates channels with the given buffer size for Input and Event.
func NewAgentChannels(bufferSize int) *AgentChannels {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &AgentChannels{
		Input:    make(chan *Input, bufferSize),
		Event:    make(chan *AgentEvent, bufferSize),
		Shutdown: make(chan struct{}),
		Done:     make(chan struct{}),
	}
}

// Close closes the event and done channels. Safe to call more than once.
func (c *AgentChannels) Close() {
	c.closeOnce.Do(func() {
		close(c.Event)
		close(c.Done)
	})
}
