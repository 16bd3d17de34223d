package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/retailgrid/settings-engine/internal/settings"
)

// Memory is an in-process settings adapter used by tests and local runs.
type Memory struct {
	mu      sync.Mutex
	version string
	users   map[string]*memoryEntry
}

type memoryEntry struct {
	sections map[settings.Section][]byte
	version  string
	savedAt  time.Time
}

// NewMemory creates an empty in-memory adapter.
func NewMemory(version string) *Memory {
	return &Memory{
		version: version,
		users:   make(map[string]*memoryEntry),
	}
}

// Load returns a copy of the stored bundle or settings.ErrNotFound.
func (m *Memory) Load(_ context.Context, userID string) (*settings.StoredBundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.users[userID]
	if !ok || len(entry.sections) == 0 {
		return nil, settings.ErrNotFound
	}

	stored := &settings.StoredBundle{
		Sections: make(map[settings.Section]json.RawMessage, len(entry.sections)),
		Version:  entry.version,
		SavedAt:  entry.savedAt,
	}
	for section, payload := range entry.sections {
		stored.Sections[section] = append(json.RawMessage(nil), payload...)
	}

	return stored, nil
}

// SaveSection stores one section payload.
func (m *Memory) SaveSection(_ context.Context, userID string, section settings.Section, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.entry(userID)
	entry.sections[section] = append([]byte(nil), payload...)
	entry.savedAt = time.Now().UTC()

	return nil
}

// SaveAll stores the whole bundle.
func (m *Memory) SaveAll(_ context.Context, userID string, bundle *settings.StoredBundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.entry(userID)
	for section, payload := range bundle.Sections {
		entry.sections[section] = append([]byte(nil), payload...)
	}
	if bundle.Version != "" {
		entry.version = bundle.Version
	}
	entry.savedAt = bundle.SavedAt
	if entry.savedAt.IsZero() {
		entry.savedAt = time.Now().UTC()
	}

	return nil
}

// Clear drops everything stored for the user.
func (m *Memory) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users, userID)
	return nil
}

func (m *Memory) entry(userID string) *memoryEntry {
	entry, ok := m.users[userID]
	if !ok {
		entry = &memoryEntry{
			sections: make(map[settings.Section][]byte),
			version:  m.version,
		}
		m.users[userID] = entry
	}
	return entry
}
