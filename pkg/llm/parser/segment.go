// Package parser provides utilities for parsing structured content from LLM streams.
package parser

import (
	"strings"

	"github.com/entrhq/miru/pkg/llm"
)

// maxTagLen bounds how long a "<..." run is buffered before it is treated as text.
const maxTagLen = len("</thinking>")

// SegmentParser splits streamed model output into message, thinking and tool
// segments. It recognises <thinking>…</thinking> and <tool>…</tool> at the top
// level and keeps state across chunks, so tags split over deltas are handled.
// Everything inside a <tool> block, including nested tags, is tool content.
type SegmentParser struct {
	pending strings.Builder
	current strings.Builder
	out     []*llm.StreamChunk
	mode    llm.ContentType
	curType llm.ContentType
	inTag   bool
}

// NewSegmentParser creates a parser positioned in message mode.
func NewSegmentParser() *SegmentParser {
	return &SegmentParser{mode: llm.ContentTypeMessage}
}

// Parse consumes a content delta and returns the completed segments in order.
// Adjacent text of the same type is merged into one chunk.
func (p *SegmentParser) Parse(content string) []*llm.StreamChunk {
	for _, ch := range content {
		switch {
		case ch == '<':
			if p.inTag {
				p.emit(p.pending.String())
			}
			p.inTag = true
			p.pending.Reset()
			p.pending.WriteRune(ch)
		case p.inTag:
			p.pending.WriteRune(ch)
			if ch == '>' {
				tag := p.pending.String()
				p.inTag = false
				p.pending.Reset()
				if !p.transition(tag) {
					p.emit(tag)
				}
			} else if p.pending.Len() > maxTagLen {
				p.inTag = false
				p.emit(p.pending.String())
				p.pending.Reset()
			}
		default:
			p.emit(string(ch))
		}
	}
	return p.drain()
}

// Flush returns any buffered text, including an unterminated tag prefix.
func (p *SegmentParser) Flush() []*llm.StreamChunk {
	if p.inTag {
		p.inTag = false
		p.emit(p.pending.String())
		p.pending.Reset()
	}
	return p.drain()
}

// InTool reports whether the parser is inside an unterminated <tool> block.
func (p *SegmentParser) InTool() bool {
	return p.mode == llm.ContentTypeToolCall
}

func (p *SegmentParser) transition(tag string) bool {
	switch p.mode {
	case llm.ContentTypeMessage:
		switch tag {
		case "<thinking>":
			p.mode = llm.ContentTypeThinking
			return true
		case "<tool>":
			p.mode = llm.ContentTypeToolCall
			return true
		}
	case llm.ContentTypeThinking:
		if tag == "</thinking>" {
			p.mode = llm.ContentTypeMessage
			return true
		}
	case llm.ContentTypeToolCall:
		if tag == "</tool>" {
			p.mode = llm.ContentTypeMessage
			return true
		}
	}
	return false
}

func (p *SegmentParser) emit(text string) {
	if text == "" {
		return
	}
	if p.current.Len() > 0 && p.curType != p.mode {
		p.finish()
	}
	p.curType = p.mode
	p.current.WriteString(text)
}

func (p *SegmentParser) finish() {
	if p.current.Len() == 0 {
		return
	}
	p.out = append(p.out, &llm.StreamChunk{
		Content: p.current.String(),
		Type:    p.curType,
	})
	p.current.Reset()
}

func (p *SegmentParser) drain() []*llm.StreamChunk {
	p.finish()
	out := p.out
	p.out = nil
	return out
}
