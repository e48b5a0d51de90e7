package llm

// ContentType classifies the text carried by a StreamChunk.
type ContentType string

const (
	// ContentTypeMessage is visible answer text.
	ContentTypeMessage ContentType = "message"

	// ContentTypeThinking is text from inside a <thinking> block.
	ContentTypeThinking ContentType = "thinking"

	// ContentTypeToolCall is text from inside a <tool> block, without the outer tags.
	ContentTypeToolCall ContentType = "tool_call"
)

// Usage reports token accounting when the provider includes it in the stream.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// StreamChunk is a piece of a streamed completion.
type StreamChunk struct {
	// Error is set when the stream failed. No further chunks follow.
	Error error

	// Usage is set on the chunk that carries token accounting, if any.
	Usage *Usage

	// Content is the text delta.
	Content string

	// Role is set on the first chunk of a response.
	Role string

	// Type classifies Content.
	Type ContentType

	// Finished marks the last chunk of a successful stream.
	Finished bool
}

// IsError reports whether the chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c != nil && c.Error != nil
}

// IsThinking reports whether the chunk carries reasoning text.
func (c *StreamChunk) IsThinking() bool {
	return c.Type == ContentTypeThinking
}

// IsToolCall reports whether the chunk carries tool request text.
func (c *StreamChunk) IsToolCall() bool {
	return c.Type == ContentTypeToolCall
}
