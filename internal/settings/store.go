package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/retailgrid/settings-engine/internal/errors"
	"github.com/retailgrid/settings-engine/internal/i18n"
	"github.com/retailgrid/settings-engine/pkg/metrics"
)

// Status discriminates the outcome of a store operation.
type Status string

const (
	StatusOK       Status = "ok"
	StatusInvalid  Status = "invalid"
	StatusBusy     Status = "busy"
	StatusFailed   Status = "failed"
	StatusDeclined Status = "declined"
)

// Result is the discriminated outcome of save, import, export and avatar
// operations: a status, a localized user-facing message, and field errors
// when validation failed. The store's public API never panics or throws for
// expected failure modes.
type Result struct {
	Status      Status
	Message     string
	FieldErrors FieldErrors
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// scopeAll marks a whole-bundle save in the in-flight set.
const scopeAll = "all"

// Deps are the injected collaborators of a Store. Adapter is required; the
// rest may be nil, which disables the corresponding operation gracefully.
type Deps struct {
	Adapter    PersistenceAdapter
	Renderer   RenderingContext
	Confirm    Confirmer
	Files      FileDelivery
	Avatars    AvatarUploader
	Translator i18n.Translator
	SystemDark func() bool
	Version    string
	Log        *slog.Logger
}

// Store is the single owner of a user's live settings bundle. Every mutation
// flows through it; nothing else holds a writable reference. It is
// constructed per user session with injected collaborators and keeps no
// process-wide state.
type Store struct {
	mu          sync.Mutex
	userID      string
	version     string
	bundle      Bundle
	lastSaved   Bundle
	fieldErrors FieldErrors
	inflight    map[string]bool

	adapter      PersistenceAdapter
	validator    *Validator
	materializer *Materializer
	confirm      Confirmer
	files        FileDelivery
	avatars      AvatarUploader
	tr           i18n.Translator
	log          *slog.Logger
}

// NewStore builds a store for one user with the default bundle in memory.
// Call Load to hydrate it from storage.
func NewStore(userID string, deps Deps) *Store {
	tr := deps.Translator
	if tr == nil {
		tr = i18n.Default()
	}

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	version := deps.Version
	if version == "" {
		version = SchemaVersion
	}

	bundle := DefaultBundle()
	bundle.Profile.ID = userID
	bundle.Version = version

	return &Store{
		userID:       userID,
		version:      version,
		bundle:       bundle,
		lastSaved:    bundle.Clone(),
		fieldErrors:  FieldErrors{},
		inflight:     make(map[string]bool),
		adapter:      deps.Adapter,
		validator:    NewValidator(tr),
		materializer: NewMaterializer(deps.Renderer, deps.SystemDark),
		confirm:      deps.Confirm,
		files:        deps.Files,
		avatars:      deps.Avatars,
		tr:           tr,
		log:          log,
	}
}

// UserID returns the owning user of this store.
func (s *Store) UserID() string {
	return s.userID
}

// Bundle returns a copy of the live bundle for display.
func (s *Store) Bundle() Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.Clone()
}

// FieldErrors returns a copy of the currently recorded validation errors.
func (s *Store) FieldErrors() FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(FieldErrors, len(s.fieldErrors))
	for field, message := range s.fieldErrors {
		out[field] = message
	}
	return out
}

// UpdateProfile shallow-merges a profile patch into the bundle.
func (s *Store) UpdateProfile(patch ProfilePatch) {
	s.update(SectionProfile, func(b *Bundle) []string { return patch.apply(&b.Profile) })
}

// UpdateTheme shallow-merges a theme patch and synchronously re-materializes
// the derived palette.
func (s *Store) UpdateTheme(patch ThemePatch) {
	s.update(SectionTheme, func(b *Bundle) []string { return patch.apply(&b.Theme) })
}

// UpdateRegional shallow-merges a regional patch into the bundle.
func (s *Store) UpdateRegional(patch RegionalPatch) {
	s.update(SectionRegional, func(b *Bundle) []string { return patch.apply(&b.Regional) })
}

// UpdateSecurity shallow-merges a security patch into the bundle.
func (s *Store) UpdateSecurity(patch SecurityPatch) {
	s.update(SectionSecurity, func(b *Bundle) []string { return patch.apply(&b.Security) })
}

// UpdateNotifications shallow-merges a notifications patch into the bundle.
func (s *Store) UpdateNotifications(patch NotificationsPatch) {
	s.update(SectionNotifications, func(b *Bundle) []string { return patch.apply(&b.Notifications) })
}

func (s *Store) update(section Section, apply func(*Bundle) []string) {
	s.mu.Lock()
	touched := apply(&s.bundle)
	for _, field := range touched {
		delete(s.fieldErrors, field)
	}
	theme := s.bundle.Theme
	s.mu.Unlock()

	if section == SectionTheme && len(touched) > 0 {
		s.materialize(theme)
	}
}

// ValidateSection runs the validation rules for one section without
// mutating anything.
func (s *Store) ValidateSection(section Section) FieldErrors {
	bundle := s.Bundle()
	return s.validator.Section(&bundle, section)
}

// ValidateAll runs every section's rules plus the cross-cutting checks and
// unions the results.
func (s *Store) ValidateAll() FieldErrors {
	bundle := s.Bundle()
	return s.validator.All(&bundle)
}

// Save validates and persists one section. The adapter is never contacted
// when validation fails. A save for a scope that already has one in flight
// is rejected with StatusBusy; saves to disjoint sections proceed
// independently.
func (s *Store) Save(ctx context.Context, section Section) Result {
	if !section.Valid() {
		return Result{Status: StatusFailed, Message: s.tr.T("settings.save.failed")}
	}
	return s.save(ctx, string(section))
}

// SaveAll validates and persists the whole bundle.
func (s *Store) SaveAll(ctx context.Context) Result {
	return s.save(ctx, scopeAll)
}

func (s *Store) save(ctx context.Context, scope string) Result {
	start := time.Now()

	s.mu.Lock()

	errs := s.validateScope(scope)
	if len(errs) > 0 {
		for field, message := range errs {
			s.fieldErrors[field] = message
		}
		s.mu.Unlock()

		valErr := apperrors.NewValidationError(fmt.Sprintf("%d field(s) rejected in scope %q", len(errs), scope))
		s.log.Warn("settings rejected by validation",
			slog.String("user_id", s.userID),
			slog.String("code", valErr.Code),
			slog.Any("error", valErr),
		)
		metrics.RecordValidationFailures(scope, len(errs))
		metrics.RecordSave(scope, string(StatusInvalid), time.Since(start))
		return Result{Status: StatusInvalid, Message: s.tr.T("settings.save.invalid"), FieldErrors: errs}
	}

	if s.scopeBusy(scope) {
		s.mu.Unlock()
		metrics.RecordSave(scope, string(StatusBusy), time.Since(start))
		return Result{Status: StatusBusy, Message: s.tr.T("settings.save.busy")}
	}

	write, snapshot, err := s.prepareWrite(scope)
	if err != nil {
		s.mu.Unlock()
		s.log.Error("failed to serialize settings for save",
			slog.String("user_id", s.userID),
			slog.String("scope", scope),
			slog.Any("error", err),
		)
		metrics.RecordSave(scope, string(StatusFailed), time.Since(start))
		return Result{Status: StatusFailed, Message: s.tr.T("settings.save.failed")}
	}

	s.inflight[scope] = true
	s.mu.Unlock()

	saveErr := apperrors.WithRetry(ctx, func() error {
		if err := write(ctx); err != nil {
			return apperrors.NewPersistenceError(err)
		}
		return nil
	})

	s.mu.Lock()
	delete(s.inflight, scope)

	if saveErr != nil {
		s.mu.Unlock()
		s.log.Error("settings save failed",
			slog.String("user_id", s.userID),
			slog.String("scope", scope),
			slog.Any("error", saveErr),
		)
		metrics.RecordSave(scope, string(StatusFailed), time.Since(start))
		return Result{Status: StatusFailed, Message: s.tr.T("settings.save.failed")}
	}

	now := time.Now().UTC()
	s.bundle.LastSavedAt = now
	s.commitSnapshot(scope, snapshot, now)
	s.mu.Unlock()

	metrics.RecordSave(scope, string(StatusOK), time.Since(start))
	return Result{Status: StatusOK, Message: s.tr.T("settings.save.success")}
}

// validateScope must be called with the lock held.
func (s *Store) validateScope(scope string) FieldErrors {
	if scope == scopeAll {
		return s.validator.All(&s.bundle)
	}
	return s.validator.Section(&s.bundle, Section(scope))
}

// scopeBusy reports whether a save for scope would overlap one in flight.
// Must be called with the lock held.
func (s *Store) scopeBusy(scope string) bool {
	if scope == scopeAll {
		return len(s.inflight) > 0
	}
	return s.inflight[scope] || s.inflight[scopeAll]
}

// prepareWrite serializes the scope under the lock and returns the adapter
// call to run outside it, together with the bundle state the write carries.
// The snapshot is what commitSnapshot folds in later: edits applied while
// the write is in flight must stay visible as unsaved changes.
func (s *Store) prepareWrite(scope string) (func(context.Context) error, Bundle, error) {
	snapshot := s.bundle.Clone()

	if scope == scopeAll {
		stored, err := toStored(&s.bundle, time.Now().UTC())
		if err != nil {
			return nil, Bundle{}, err
		}
		userID := s.userID
		return func(ctx context.Context) error {
			return s.adapter.SaveAll(ctx, userID, stored)
		}, snapshot, nil
	}

	section := Section(scope)
	payload, err := sectionPayload(&s.bundle, section)
	if err != nil {
		return nil, Bundle{}, err
	}
	userID := s.userID
	return func(ctx context.Context) error {
		return s.adapter.SaveSection(ctx, userID, section, payload)
	}, snapshot, nil
}

// commitSnapshot folds the saved scope into the last-saved snapshot from the
// bundle that was actually serialized, not the live one. Must be called with
// the lock held.
func (s *Store) commitSnapshot(scope string, saved Bundle, now time.Time) {
	if scope == scopeAll {
		s.lastSaved = saved
		s.lastSaved.LastSavedAt = now
		return
	}

	switch Section(scope) {
	case SectionProfile:
		s.lastSaved.Profile = saved.Profile
	case SectionTheme:
		s.lastSaved.Theme = saved.Theme
	case SectionRegional:
		s.lastSaved.Regional = saved.Regional
	case SectionSecurity:
		s.lastSaved.Security = saved.Security
	case SectionNotifications:
		s.lastSaved.Notifications = saved.Notifications
	}
	s.lastSaved.LastSavedAt = now
}

// HasUnsavedChanges compares the live bundle against the last durably saved
// snapshot.
func (s *Store) HasUnsavedChanges() bool {
	s.mu.Lock()
	live := s.bundle.Clone()
	saved := s.lastSaved.Clone()
	s.mu.Unlock()

	return len(Diff(&saved, &live)) > 0
}

// Reset asks for confirmation and replaces the bundle with defaults,
// re-running the theme materializer. Returns false when the user declines.
// The durable copy is untouched; the reset itself is an unsaved change.
func (s *Store) Reset(ctx context.Context) bool {
	if s.confirm == nil || !s.confirm.Confirm(ctx, s.tr.T("settings.reset.prompt")) {
		return false
	}

	s.mu.Lock()
	bundle := DefaultBundle()
	bundle.Profile.ID = s.userID
	bundle.Version = s.version
	s.bundle = bundle
	s.fieldErrors = FieldErrors{}
	theme := s.bundle.Theme
	s.mu.Unlock()

	s.materialize(theme)
	return true
}

// Load hydrates the bundle from storage, merging stored sections over
// defaults so fields added after the artifact was written still get their
// default. A missing or malformed durable copy silently yields defaults.
// Returns true when a stored bundle was used.
func (s *Store) Load(ctx context.Context) bool {
	hydrated := false
	bundle := DefaultBundle()

	stored, err := s.adapter.Load(ctx, s.userID)
	switch {
	case err == nil && stored != nil:
		bundle = mergeOverDefaults(stored.Sections, s.version)
		bundle.LastSavedAt = stored.SavedAt
		hydrated = true
	case err != nil && !errors.Is(err, ErrNotFound):
		s.log.Warn("stored settings unreadable, using defaults",
			slog.String("user_id", s.userID),
			slog.Any("error", err),
		)
	}

	if bundle.Profile.ID == "" {
		bundle.Profile.ID = s.userID
	}
	bundle.Version = s.version

	s.mu.Lock()
	s.bundle = bundle
	s.lastSaved = bundle.Clone()
	s.fieldErrors = FieldErrors{}
	theme := s.bundle.Theme
	s.mu.Unlock()

	s.materialize(theme)
	return hydrated
}

// ClearStorage wipes the durable copy and resets the in-memory bundle to
// defaults.
func (s *Store) ClearStorage(ctx context.Context) error {
	err := apperrors.WithRetry(ctx, func() error {
		if err := s.adapter.Clear(ctx, s.userID); err != nil {
			return apperrors.NewPersistenceError(err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to clear stored settings",
			slog.String("user_id", s.userID),
			slog.Any("error", err),
		)
		return err
	}

	s.mu.Lock()
	bundle := DefaultBundle()
	bundle.Profile.ID = s.userID
	bundle.Version = s.version
	s.bundle = bundle
	s.lastSaved = bundle.Clone()
	s.fieldErrors = FieldErrors{}
	theme := s.bundle.Theme
	s.mu.Unlock()

	s.materialize(theme)
	return nil
}

// Export serializes the bundle into a portable artifact and hands it to the
// file delivery collaborator.
func (s *Store) Export(ctx context.Context) Result {
	if s.files == nil {
		return Result{Status: StatusFailed, Message: s.tr.T("settings.export.failed")}
	}

	bundle := s.Bundle()
	now := time.Now().UTC()

	payload, err := EncodeArtifact(&bundle, bundle.Profile.DisplayName, now)
	if err != nil {
		s.log.Error("failed to encode export artifact", slog.String("user_id", s.userID), slog.Any("error", err))
		return Result{Status: StatusFailed, Message: s.tr.T("settings.export.failed")}
	}

	if err := s.files.Deliver(ctx, ExportFilename(now), payload); err != nil {
		s.log.Error("failed to deliver export artifact", slog.String("user_id", s.userID), slog.Any("error", err))
		return Result{Status: StatusFailed, Message: s.tr.T("settings.export.failed")}
	}

	metrics.RecordExport()
	return Result{Status: StatusOK, Message: s.tr.T("settings.export.success")}
}

// Import validates a candidate artifact and replaces the live bundle with
// it. Missing required keys abort with no state change; a version mismatch
// is gated on user confirmation; accepted sections are merged over defaults.
func (s *Store) Import(ctx context.Context, payload []byte) Result {
	raw, err := decodeArtifact(payload)
	if err != nil {
		metrics.RecordImport(string(StatusInvalid))
		return Result{Status: StatusInvalid, Message: s.tr.T("settings.import.invalid")}
	}

	if raw.version != s.version {
		if s.confirm == nil || !s.confirm.Confirm(ctx, s.tr.T("settings.import.prompt")) {
			declined := apperrors.NewImportDeclinedError()
			s.log.Info("settings import declined",
				slog.String("user_id", s.userID),
				slog.String("code", declined.Code),
				slog.String("artifact_version", raw.version),
			)
			metrics.RecordImport(string(StatusDeclined))
			return Result{Status: StatusDeclined, Message: s.tr.T("settings.import.declined")}
		}
	}

	merged := mergeOverDefaults(raw.sections, s.version)
	if merged.Profile.ID == "" {
		merged.Profile.ID = s.userID
	}

	s.mu.Lock()
	merged.LastSavedAt = s.bundle.LastSavedAt
	s.bundle = merged
	s.fieldErrors = FieldErrors{}
	theme := s.bundle.Theme
	s.mu.Unlock()

	s.materialize(theme)
	metrics.RecordImport(string(StatusOK))
	return Result{Status: StatusOK, Message: s.tr.T("settings.import.success")}
}

// ImportFromFile sources the artifact payload from the file delivery
// collaborator and imports it.
func (s *Store) ImportFromFile(ctx context.Context) Result {
	if s.files == nil {
		return Result{Status: StatusFailed, Message: s.tr.T("settings.import.failed")}
	}

	payload, err := s.files.Accept(ctx)
	if err != nil {
		s.log.Error("failed to read import payload", slog.String("user_id", s.userID), slog.Any("error", err))
		return Result{Status: StatusFailed, Message: s.tr.T("settings.import.failed")}
	}

	return s.Import(ctx, payload)
}

// UpdateAvatar uploads the image and, on success, applies the returned URL
// as a profile patch. The profile is untouched when the upload fails.
func (s *Store) UpdateAvatar(ctx context.Context, data []byte) Result {
	if s.avatars == nil {
		return Result{Status: StatusFailed, Message: s.tr.T("settings.avatar.failed")}
	}

	url, err := s.avatars.Upload(ctx, data, s.userID)
	if err != nil {
		uploadErr := apperrors.NewUploadError(err)
		s.log.Error("avatar upload failed",
			slog.String("user_id", s.userID),
			slog.String("code", uploadErr.Code),
			slog.Any("error", uploadErr),
		)
		return Result{Status: StatusFailed, Message: s.tr.T("settings.avatar.failed")}
	}

	s.UpdateProfile(ProfilePatch{AvatarURL: &url})
	return Result{Status: StatusOK, Message: s.tr.T("settings.avatar.success")}
}

func (s *Store) materialize(theme Theme) {
	s.materializer.Apply(theme)
	metrics.RecordThemeApply()
}
