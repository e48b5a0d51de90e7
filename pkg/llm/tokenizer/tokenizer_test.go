package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/miru/pkg/types"
)

func TestEstimate_NilTokenizer(t *testing.T) {
	var tok *Tokenizer

	assert.False(t, tok.Exact())
	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Equal(t, 1, tok.CountTokens("abcd"))
	assert.Equal(t, 2, tok.CountTokens("abcde"))
}

func TestEstimate_Truncate(t *testing.T) {
	tok := &Tokenizer{}
	text := strings.Repeat("a", 100)

	out, cut := tok.Truncate(text, 10)
	assert.True(t, cut)
	assert.Len(t, out, 40)

	out, cut = tok.Truncate("short", 10)
	assert.False(t, cut)
	assert.Equal(t, "short", out)

	out, cut = tok.Truncate(text, 0)
	assert.False(t, cut)
	assert.Equal(t, text, out)
}

func TestEstimate_CountMessages(t *testing.T) {
	tok := &Tokenizer{}
	n := tok.CountMessagesTokens([]*types.Message{
		types.NewUserMessage("abcd"),
		nil,
		types.NewAssistantMessage("abcdabcd"),
	})
	assert.Equal(t, perMessageOverhead*2+1+2, n)
}

func TestExact_WhenEncodingAvailable(t *testing.T) {
	tok, err := New()
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}

	assert.True(t, tok.Exact())
	assert.Greater(t, tok.CountTokens("hello world"), 0)

	long := strings.Repeat("word ", 200)
	out, cut := tok.Truncate(long, 20)
	assert.True(t, cut)
	assert.LessOrEqual(t, tok.CountTokens(out), 20)
}
