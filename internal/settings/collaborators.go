package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by persistence adapters when no bundle is stored
// for the user.
var ErrNotFound = errors.New("settings: not found")

// StoredBundle is the persisted form of a bundle: raw section payloads plus
// the schema version tag and the save timestamp. Adapters move it around
// without interpreting the payloads.
type StoredBundle struct {
	Sections map[Section]json.RawMessage
	Version  string
	SavedAt  time.Time
}

// PersistenceAdapter is the durable storage collaborator. Implementations
// must be idempotent on retry and report failures as errors, never panics.
type PersistenceAdapter interface {
	// Load returns the stored bundle for the user or ErrNotFound.
	Load(ctx context.Context, userID string) (*StoredBundle, error)
	// SaveSection durably writes one section payload.
	SaveSection(ctx context.Context, userID string, section Section, payload []byte) error
	// SaveAll durably writes the whole bundle atomically.
	SaveAll(ctx context.Context, userID string, bundle *StoredBundle) error
	// Clear removes the durable copy for the user.
	Clear(ctx context.Context, userID string) error
}

// RenderingContext receives materialized theme variables. Calls are
// fire-and-forget; the engine never reads anything back.
type RenderingContext interface {
	ApplyTheme(vars ThemeVariables)
}

// Confirmer asks the user a yes/no question. The call looks synchronous to
// the store even when the underlying prompt is asynchronous UI.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// FileDelivery hands export artifacts to the user and sources import
// payloads from them.
type FileDelivery interface {
	Deliver(ctx context.Context, filename string, payload []byte) error
	Accept(ctx context.Context) ([]byte, error)
}

// AvatarUploader stores an avatar image and returns its URL.
type AvatarUploader interface {
	Upload(ctx context.Context, data []byte, userID string) (string, error)
}
