package types

// InputType defines the type of input being sent to the agent.
type InputType string

const (
	InputTypeCancel     InputType = "cancel"     // InputTypeCancel aborts the turn in flight.
	InputTypeUserInput  InputType = "user_input" // InputTypeUserInput starts a turn with the given text.
	InputTypeRegenerate InputType = "regenerate" // InputTypeRegenerate drops the last exchange and resubmits its human text.
	InputTypeClear      InputType = "clear"      // InputTypeClear empties the session history.
)

// Input represents various types of input that can be sent to an agent.
type Input struct {
	// Content is the text content for user input.
	// Only populated when Type is InputTypeUserInput.
	Content string

	// Type indicates the kind of input.
	Type InputType
}

// NewCancelInput creates a new cancellation input.
func NewCancelInput() *Input {
	return &Input{
		Type: InputTypeCancel,
	}
}

// NewUserInput creates a new user text input.
func NewUserInput(content string) *Input {
	return &Input{
		Type:    InputTypeUserInput,
		Content: content,
	}
}

// NewRegenerateInput creates a request to regenerate the last response.
func NewRegenerateInput() *Input {
	return &Input{
		Type: InputTypeRegenerate,
	}
}

// NewClearInput creates a request to clear the session history.
func NewClearInput() *Input {
	return &Input{
		Type: InputTypeClear,
	}
}

// IsCancel returns true if this is a cancellation input.
func (i *Input) IsCancel() bool {
	return i.Type == InputTypeCancel
}

// IsUserInput returns true if this is a user text input.
func (i *Input) IsUserInput() bool {
	return i.Type == InputTypeUserInput
}

// IsRegenerate returns true if this is a regenerate request.
func (i *Input) IsRegenerate() bool {
	return i.Type == InputTypeRegenerate
}

// IsClear returns true if this is a clear-history request.
func (i *Input) IsClear() bool {
	return i.Type == InputTypeClear
}
