// Package memory holds the session history of a conversation: an ordered,
// append-only log of human and assistant messages, optionally persisted per
// session key.
package memory

import (
	"fmt"
	"sync"

	"github.com/entrhq/miru/pkg/types"
)

// ConversationMemory is the session history. Entries are only removed by
// Clear and TruncateFromLastHuman; everything else appends.
type ConversationMemory struct {
	store    Store
	key      string
	messages []*types.Message
	mu       sync.RWMutex
}

// Option configures a ConversationMemory.
type Option func(*ConversationMemory)

// WithStore persists the history under key after every mutation.
func WithStore(store Store, key string) Option {
	return func(m *ConversationMemory) {
		m.store = store
		m.key = key
	}
}

// WithMessages seeds the history.
func WithMessages(messages []*types.Message) Option {
	return func(m *ConversationMemory) {
		m.messages = append(m.messages, messages...)
	}
}

// New creates an empty in-memory history.
func New(opts ...Option) *ConversationMemory {
	m := &ConversationMemory{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open creates a history backed by store and loads whatever is saved under key.
func Open(store Store, key string) (*ConversationMemory, error) {
	messages, err := store.Load(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load history %q: %w", key, err)
	}
	return New(WithStore(store, key), WithMessages(messages)), nil
}

// Key returns the session key the history is persisted under, if any.
func (m *ConversationMemory) Key() string {
	return m.key
}

// GetAll returns a copy of the history in insertion order.
func (m *ConversationMemory) GetAll() []*types.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of entries.
func (m *ConversationMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// AddHuman appends a human message.
func (m *ConversationMemory) AddHuman(content string) error {
	return m.append(types.NewUserMessage(content))
}

// AddAssistant appends an assistant message.
func (m *ConversationMemory) AddAssistant(content string) error {
	return m.append(types.NewAssistantMessage(content))
}

// AddExchange appends a human message and its answer under one lock, so
// readers never observe one without the other.
func (m *ConversationMemory) AddExchange(human, assistant string) error {
	return m.append(types.NewUserMessage(human), types.NewAssistantMessage(assistant))
}

// Clear removes every entry.
func (m *ConversationMemory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	return m.persistLocked()
}

// TruncateFromLastHuman removes the most recent human message and everything
// after it, returning that message's text so it can be resubmitted. It reports
// false and leaves the history untouched when there is no human message.
func (m *ConversationMemory) TruncateFromLastHuman() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].IsHuman() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false, nil
	}

	text := m.messages[idx].Content
	m.messages = m.messages[:idx:idx]
	return text, true, m.persistLocked()
}

func (m *ConversationMemory) append(msgs ...*types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msgs...)
	return m.persistLocked()
}

func (m *ConversationMemory) persistLocked() error {
	if m.store == nil {
		return nil
	}
	snapshot := make([]*types.Message, len(m.messages))
	copy(snapshot, m.messages)
	if err := m.store.Save(m.key, snapshot); err != nil {
		return fmt.Errorf("failed to persist history %q: %w", m.key, err)
	}
	return nil
}
