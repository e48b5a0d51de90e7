package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Section is a named group of settings persisted together.
type Section interface {
	// ID is the key the section is stored under.
	ID() string

	// Title is a human readable name.
	Title() string

	// Description explains what the section configures.
	Description() string

	// Data returns the section's values keyed by setting name.
	Data() map[string]any

	// SetData updates the section from stored or user-provided values.
	// Unknown keys are ignored.
	SetData(data map[string]any) error

	// Validate checks the current values.
	Validate() error

	// Reset restores the defaults.
	Reset()
}

// Manager loads, saves and edits a set of sections over a Store.
type Manager struct {
	store    Store
	sections map[string]Section
	order    []string
	mu       sync.RWMutex
}

// NewManager creates a manager with no sections.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// RegisterSection adds a section. IDs must be unique.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sections[section.ID()]; exists {
		return fmt.Errorf("section %q already registered", section.ID())
	}
	m.sections[section.ID()] = section
	m.order = append(m.order, section.ID())
	return nil
}

// GetSection returns the section registered under id.
func (m *Manager) GetSection(id string) (Section, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	section, ok := m.sections[id]
	return section, ok
}

// GetSections returns all sections in registration order.
func (m *Manager) GetSections() []Section {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sections := make([]Section, 0, len(m.order))
	for _, id := range m.order {
		sections = append(sections, m.sections[id])
	}
	return sections
}

// LoadAll reloads the store and applies stored values to every section.
func (m *Manager) LoadAll() error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	for _, section := range m.GetSections() {
		data, err := m.store.GetSection(section.ID())
		if err != nil {
			return fmt.Errorf("failed to read section %s: %w", section.ID(), err)
		}
		if len(data) == 0 {
			continue
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("invalid stored values for section %s: %w", section.ID(), err)
		}
	}
	return nil
}

// SaveAll validates every section and writes them to the store.
func (m *Manager) SaveAll() error {
	sections := m.GetSections()
	for _, section := range sections {
		if err := section.Validate(); err != nil {
			return fmt.Errorf("invalid configuration in section %s: %w", section.ID(), err)
		}
	}
	for _, section := range sections {
		if err := m.store.SetSection(section.ID(), section.Data()); err != nil {
			return fmt.Errorf("failed to store section %s: %w", section.ID(), err)
		}
	}
	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

// ResetAll restores every section to its defaults. Nothing is saved.
func (m *Manager) ResetAll() {
	for _, section := range m.GetSections() {
		section.Reset()
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Set updates one setting from its string form and saves the configuration.
// The section is left unchanged if the new value does not validate.
func (m *Manager) Set(sectionID, key, value string) error {
	section, ok := m.GetSection(sectionID)
	if !ok {
		return fmt.Errorf("unknown config section %q", sectionID)
	}
	if _, known := section.Data()[key]; !known {
		return fmt.Errorf("unknown setting %s.%s", sectionID, key)
	}

	previous := section.Data()
	if err := section.SetData(map[string]any{key: value}); err != nil {
		return fmt.Errorf("invalid value for %s.%s: %w", sectionID, key, err)
	}
	if err := section.Validate(); err != nil {
		_ = section.SetData(previous)
		return fmt.Errorf("invalid value for %s.%s: %w", sectionID, key, err)
	}
	return m.SaveAll()
}

// SetPath is Set with a dotted "section.key" path.
func (m *Manager) SetPath(path, value string) error {
	sectionID, key, ok := strings.Cut(path, ".")
	if !ok || sectionID == "" || key == "" {
		return fmt.Errorf("expected section.key, got %q", path)
	}
	return m.Set(sectionID, key, value)
}

// Lines renders every setting as "section.key = value", sorted within each
// section. Secret values are masked.
func (m *Manager) Lines() []string {
	var lines []string
	for _, section := range m.GetSections() {
		data := section.Data()
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := fmt.Sprint(data[k])
			if isSecret(k) {
				v = mask(v)
			}
			lines = append(lines, fmt.Sprintf("%s.%s = %s", section.ID(), k, v))
		}
	}
	return lines
}

func isSecret(key string) bool {
	return key == "api_key"
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:3] + "…" + v[len(v)-4:]
}
