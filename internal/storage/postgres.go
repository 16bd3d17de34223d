// Package storage provides persistence adapters for the settings engine.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/retailgrid/settings-engine/internal/settings"
)

// Postgres persists settings sections as JSONB rows keyed by user and
// section. Writes are upserts, which keeps retries idempotent.
type Postgres struct {
	db      *sql.DB
	version string
	log     *slog.Logger
}

// NewPostgres creates a SQL-backed settings adapter. version is the schema
// tag written alongside every section.
func NewPostgres(db *sql.DB, version string, log *slog.Logger) *Postgres {
	if log == nil {
		log = slog.Default()
	}

	return &Postgres{
		db:      db,
		version: version,
		log:     log,
	}
}

// Load retrieves every stored section for the user and assembles the stored
// bundle, or returns settings.ErrNotFound when no rows exist.
func (p *Postgres) Load(ctx context.Context, userID string) (*settings.StoredBundle, error) {
	const query = `
		SELECT section, payload, version, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		p.log.Error("failed to load settings", slog.String("user_id", userID), slog.Any("error", err))
		return nil, fmt.Errorf("select user settings: %w", err)
	}
	defer rows.Close()

	stored := &settings.StoredBundle{
		Sections: make(map[settings.Section]json.RawMessage),
	}

	for rows.Next() {
		var (
			section   string
			payload   []byte
			version   string
			updatedAt time.Time
		)
		if err := rows.Scan(&section, &payload, &version, &updatedAt); err != nil {
			p.log.Error("failed to scan settings row", slog.String("user_id", userID), slog.Any("error", err))
			return nil, fmt.Errorf("scan user settings: %w", err)
		}

		stored.Sections[settings.Section(section)] = json.RawMessage(payload)
		stored.Version = version
		if updatedAt.After(stored.SavedAt) {
			stored.SavedAt = updatedAt
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user settings: %w", err)
	}

	if len(stored.Sections) == 0 {
		return nil, settings.ErrNotFound
	}

	return stored, nil
}

// SaveSection upserts one section payload.
func (p *Postgres) SaveSection(ctx context.Context, userID string, section settings.Section, payload []byte) error {
	if _, err := p.db.ExecContext(ctx, upsertQuery, userID, string(section), payload, p.version, time.Now().UTC()); err != nil {
		p.log.Error("failed to save settings section",
			slog.String("user_id", userID),
			slog.String("section", string(section)),
			slog.Any("error", err),
		)
		return fmt.Errorf("upsert settings section: %w", err)
	}

	return nil
}

// SaveAll upserts every section of the bundle in one transaction.
func (p *Postgres) SaveAll(ctx context.Context, userID string, bundle *settings.StoredBundle) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	version := bundle.Version
	if version == "" {
		version = p.version
	}

	savedAt := bundle.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	for section, payload := range bundle.Sections {
		if _, err := tx.ExecContext(ctx, upsertQuery, userID, string(section), []byte(payload), version, savedAt); err != nil {
			p.log.Error("failed to save settings bundle",
				slog.String("user_id", userID),
				slog.String("section", string(section)),
				slog.Any("error", err),
			)
			return fmt.Errorf("upsert settings bundle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings save: %w", err)
	}

	return nil
}

// Clear removes every stored section for the user.
func (p *Postgres) Clear(ctx context.Context, userID string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM user_settings WHERE user_id = $1`, userID); err != nil {
		p.log.Error("failed to clear settings", slog.String("user_id", userID), slog.Any("error", err))
		return fmt.Errorf("delete user settings: %w", err)
	}

	return nil
}

const upsertQuery = `
	INSERT INTO user_settings (user_id, section, payload, version, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, section)
	DO UPDATE SET payload = EXCLUDED.payload, version = EXCLUDED.version, updated_at = EXCLUDED.updated_at
`
