// Package tokenizer counts and trims text in model tokens.
package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/miru/pkg/types"
)

// Encoding is the BPE encoding used for the GPT-4 and GPT-4o families.
const Encoding = "cl100k_base"

// perMessageOverhead approximates the role and separator tokens the chat format adds.
const perMessageOverhead = 4

// Tokenizer counts tokens with tiktoken. A nil *Tokenizer, or one whose encoding
// could not be loaded, falls back to a four-characters-per-token estimate.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the cl100k_base encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{enc: enc}, nil
}

// NewOrEstimate returns a tiktoken-backed tokenizer, or an estimating one if the
// encoding is unavailable (for example when offline).
func NewOrEstimate() *Tokenizer {
	t, err := New()
	if err != nil {
		return &Tokenizer{}
	}
	return t
}

// Exact reports whether counts come from the real encoding.
func (t *Tokenizer) Exact() bool {
	return t != nil && t.enc != nil
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if !t.Exact() {
		return (len([]rune(text)) + 3) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountMessagesTokens returns the token count of a message list including framing.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	total := 0
	for _, m := range messages {
		if m == nil {
			continue
		}
		total += perMessageOverhead + t.CountTokens(m.Content)
	}
	return total
}

// Truncate cuts text to at most maxTokens tokens. The second return value is
// true when text was shortened. maxTokens <= 0 disables truncation.
func (t *Tokenizer) Truncate(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 || text == "" {
		return text, false
	}
	if !t.Exact() {
		runes := []rune(text)
		limit := maxTokens * 4
		if len(runes) <= limit {
			return text, false
		}
		return string(runes[:limit]), true
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, false
	}
	return t.enc.Decode(tokens[:maxTokens]), true
}
