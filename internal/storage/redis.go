package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/retailgrid/settings-engine/internal/settings"
)

const (
	settingsKeyPattern = "settings:%s:%s"
	metaSection        = "meta"
)

// redisMeta is the version/timestamp record stored next to the sections.
type redisMeta struct {
	Version string    `json:"version"`
	SavedAt time.Time `json:"savedAt"`
}

// Redis persists settings sections as JSON values, one key per section plus
// a meta key carrying the schema version and save timestamp.
type Redis struct {
	client  *redis.Client
	version string
	log     *slog.Logger
}

// NewRedis initializes a Redis-backed settings adapter.
func NewRedis(client *redis.Client, version string, log *slog.Logger) *Redis {
	if log == nil {
		log = slog.Default()
	}

	return &Redis{
		client:  client,
		version: version,
		log:     log,
	}
}

// Load fetches every section key for the user, or settings.ErrNotFound when
// none exist.
func (r *Redis) Load(ctx context.Context, userID string) (*settings.StoredBundle, error) {
	stored := &settings.StoredBundle{
		Sections: make(map[settings.Section]json.RawMessage),
		Version:  r.version,
	}

	for _, section := range settings.Sections() {
		data, err := r.client.Get(ctx, settingsKey(userID, string(section))).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}

			r.log.Error("failed to get settings section from redis",
				slog.String("user_id", userID),
				slog.String("section", string(section)),
				slog.Any("error", err),
			)
			return nil, err
		}

		stored.Sections[section] = json.RawMessage(data)
	}

	if len(stored.Sections) == 0 {
		return nil, settings.ErrNotFound
	}

	if data, err := r.client.Get(ctx, settingsKey(userID, metaSection)).Bytes(); err == nil {
		var meta redisMeta
		if err := json.Unmarshal(data, &meta); err == nil {
			stored.Version = meta.Version
			stored.SavedAt = meta.SavedAt
		}
	}

	return stored, nil
}

// SaveSection writes one section payload and refreshes the meta key.
func (r *Redis) SaveSection(ctx context.Context, userID string, section settings.Section, payload []byte) error {
	if err := r.client.Set(ctx, settingsKey(userID, string(section)), payload, 0).Err(); err != nil {
		r.log.Error("failed to save settings section in redis",
			slog.String("user_id", userID),
			slog.String("section", string(section)),
			slog.Any("error", err),
		)
		return err
	}

	return r.writeMeta(ctx, userID, r.version, time.Now().UTC())
}

// SaveAll writes every section and the meta key in one pipeline.
func (r *Redis) SaveAll(ctx context.Context, userID string, bundle *settings.StoredBundle) error {
	version := bundle.Version
	if version == "" {
		version = r.version
	}

	savedAt := bundle.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	meta, err := json.Marshal(redisMeta{Version: version, SavedAt: savedAt})
	if err != nil {
		return fmt.Errorf("encode settings meta: %w", err)
	}

	pipe := r.client.TxPipeline()
	for section, payload := range bundle.Sections {
		pipe.Set(ctx, settingsKey(userID, string(section)), []byte(payload), 0)
	}
	pipe.Set(ctx, settingsKey(userID, metaSection), meta, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Error("failed to save settings bundle in redis", slog.String("user_id", userID), slog.Any("error", err))
		return err
	}

	return nil
}

// Clear removes every section and meta key for the user.
func (r *Redis) Clear(ctx context.Context, userID string) error {
	keys := make([]string, 0, len(settings.Sections())+1)
	for _, section := range settings.Sections() {
		keys = append(keys, settingsKey(userID, string(section)))
	}
	keys = append(keys, settingsKey(userID, metaSection))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Error("failed to clear settings in redis", slog.String("user_id", userID), slog.Any("error", err))
		return err
	}

	return nil
}

func (r *Redis) writeMeta(ctx context.Context, userID, version string, savedAt time.Time) error {
	meta, err := json.Marshal(redisMeta{Version: version, SavedAt: savedAt})
	if err != nil {
		return fmt.Errorf("encode settings meta: %w", err)
	}

	if err := r.client.Set(ctx, settingsKey(userID, metaSection), meta, 0).Err(); err != nil {
		r.log.Error("failed to write settings meta in redis", slog.String("user_id", userID), slog.Any("error", err))
		return err
	}

	return nil
}

func settingsKey(userID, section string) string {
	return fmt.Sprintf(settingsKeyPattern, userID, section)
}
