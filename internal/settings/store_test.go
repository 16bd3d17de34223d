package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) Load(ctx context.Context, userID string) (*StoredBundle, error) {
	args := m.Called(ctx, userID)
	stored, _ := args.Get(0).(*StoredBundle)
	return stored, args.Error(1)
}

func (m *mockAdapter) SaveSection(ctx context.Context, userID string, section Section, payload []byte) error {
	args := m.Called(ctx, userID, section, payload)
	return args.Error(0)
}

func (m *mockAdapter) SaveAll(ctx context.Context, userID string, bundle *StoredBundle) error {
	args := m.Called(ctx, userID, bundle)
	return args.Error(0)
}

func (m *mockAdapter) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type stubConfirmer struct {
	answer  bool
	prompts []string
}

func (c *stubConfirmer) Confirm(_ context.Context, prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

type captureFiles struct {
	filename string
	payload  []byte

	incoming  []byte
	acceptErr error
}

func (f *captureFiles) Deliver(_ context.Context, filename string, payload []byte) error {
	f.filename = filename
	f.payload = payload
	return nil
}

func (f *captureFiles) Accept(_ context.Context) ([]byte, error) {
	return f.incoming, f.acceptErr
}

type stubUploader struct {
	url string
	err error
}

func (u *stubUploader) Upload(_ context.Context, _ []byte, _ string) (string, error) {
	return u.url, u.err
}

func testDeps(adapter PersistenceAdapter) Deps {
	return Deps{
		Adapter: adapter,
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestNewStoreStartsWithDefaults(t *testing.T) {
	store := NewStore("user-1", testDeps(&mockAdapter{}))

	bundle := store.Bundle()
	assert.Equal(t, "user-1", bundle.Profile.ID)
	assert.Equal(t, SchemaVersion, bundle.Version)
	assert.False(t, store.HasUnsavedChanges())
	assert.Empty(t, store.FieldErrors())
}

func TestUpdateTouchesOnlyItsSection(t *testing.T) {
	store := NewStore("user-1", testDeps(&mockAdapter{}))
	before := store.Bundle()

	color := "#22C55E"
	store.UpdateTheme(ThemePatch{PrimaryColor: &color})

	after := store.Bundle()
	changes := Diff(&before, &after)

	require.Len(t, changes, 1)
	assert.Contains(t, changes, "theme.primaryColor")
	assert.Equal(t, before.Profile, after.Profile)
	assert.Equal(t, before.Security.IPWhitelist, after.Security.IPWhitelist)
}

func TestUpdateThemeMaterializesOncePerPatch(t *testing.T) {
	renderer := &recordingRenderer{}
	deps := testDeps(&mockAdapter{})
	deps.Renderer = renderer
	store := NewStore("user-1", deps)

	mode := ModeDark
	store.UpdateTheme(ThemePatch{Mode: &mode})
	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("No Repaint")})

	require.Len(t, renderer.applied, 1)
	assert.Equal(t, ModeDark, renderer.applied[0].Mode)
}

func TestSaveRejectsInvalidSectionWithoutTouchingStorage(t *testing.T) {
	adapter := &mockAdapter{}
	store := NewStore("user-1", testDeps(adapter))

	store.UpdateProfile(ProfilePatch{Email: strPtr("not-an-email")})
	result := store.Save(context.Background(), SectionProfile)

	assert.Equal(t, StatusInvalid, result.Status)
	assert.Contains(t, result.FieldErrors, "profile.email")
	assert.Contains(t, store.FieldErrors(), "profile.email")
	adapter.AssertNotCalled(t, "SaveSection", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// fixing the field clears its recorded error
	store.UpdateProfile(ProfilePatch{Email: strPtr("fixed@example.com")})
	assert.NotContains(t, store.FieldErrors(), "profile.email")
}

func TestSaveSectionPersistsAndSettlesSnapshot(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("SaveSection", mock.Anything, "user-1", SectionProfile, mock.Anything).Return(nil)
	store := NewStore("user-1", testDeps(adapter))

	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Saved Name")})
	require.True(t, store.HasUnsavedChanges())

	result := store.Save(context.Background(), SectionProfile)

	require.Equal(t, StatusOK, result.Status)
	assert.False(t, store.HasUnsavedChanges())
	assert.False(t, store.Bundle().LastSavedAt.IsZero())
	adapter.AssertExpectations(t)

	payload := adapter.Calls[0].Arguments.Get(3).([]byte)
	var profile Profile
	require.NoError(t, json.Unmarshal(payload, &profile))
	assert.Equal(t, "Saved Name", profile.DisplayName)

	// any later edit makes the bundle dirty again
	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Edited Again")})
	assert.True(t, store.HasUnsavedChanges())
}

func TestSaveSectionLeavesOtherSectionsDirty(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("SaveSection", mock.Anything, "user-1", SectionTheme, mock.Anything).Return(nil)
	store := NewStore("user-1", testDeps(adapter))

	mode := ModeDark
	store.UpdateTheme(ThemePatch{Mode: &mode})
	store.UpdateSecurity(SecurityPatch{MaxLoginAttempts: intPtr(3)})

	result := store.Save(context.Background(), SectionTheme)

	require.Equal(t, StatusOK, result.Status)
	assert.True(t, store.HasUnsavedChanges(), "the unsaved security change must survive a theme save")
}

func TestSaveAllPersistsEverySection(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("SaveAll", mock.Anything, "user-1", mock.Anything).Return(nil)
	store := NewStore("user-1", testDeps(adapter))

	store.UpdateRegional(RegionalPatch{Currency: strPtr("EUR")})
	result := store.SaveAll(context.Background())

	require.Equal(t, StatusOK, result.Status)
	assert.False(t, store.HasUnsavedChanges())

	stored := adapter.Calls[0].Arguments.Get(2).(*StoredBundle)
	assert.Equal(t, SchemaVersion, stored.Version)
	assert.Len(t, stored.Sections, len(Sections()))
}

func TestSaveFailureKeepsBundleIntact(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("SaveSection", mock.Anything, "user-1", SectionProfile, mock.Anything).
		Return(errors.New("connection refused"))
	store := NewStore("user-1", testDeps(adapter))

	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Still Here")})
	result := store.Save(context.Background(), SectionProfile)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "Still Here", store.Bundle().Profile.DisplayName)
	assert.True(t, store.HasUnsavedChanges())
}

func TestSaveUnknownSection(t *testing.T) {
	store := NewStore("user-1", testDeps(&mockAdapter{}))
	result := store.Save(context.Background(), Section("bogus"))
	assert.Equal(t, StatusFailed, result.Status)
}

// blockingAdapter parks SaveSection/SaveAll until released so tests can
// observe a save in flight.
type blockingAdapter struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingAdapter() *blockingAdapter {
	return &blockingAdapter{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
}

func (a *blockingAdapter) Load(context.Context, string) (*StoredBundle, error) {
	return nil, ErrNotFound
}

func (a *blockingAdapter) SaveSection(context.Context, string, Section, []byte) error {
	a.block()
	return nil
}

func (a *blockingAdapter) SaveAll(context.Context, string, *StoredBundle) error {
	a.block()
	return nil
}

func (a *blockingAdapter) Clear(context.Context, string) error { return nil }

func (a *blockingAdapter) block() {
	a.started <- struct{}{}
	<-a.release
}

func TestConcurrentSaveSameScopeIsBusy(t *testing.T) {
	adapter := newBlockingAdapter()
	store := NewStore("user-1", testDeps(adapter))

	var wg sync.WaitGroup
	wg.Add(1)
	var first Result
	go func() {
		defer wg.Done()
		first = store.Save(context.Background(), SectionProfile)
	}()
	<-adapter.started

	second := store.Save(context.Background(), SectionProfile)
	assert.Equal(t, StatusBusy, second.Status)

	all := store.SaveAll(context.Background())
	assert.Equal(t, StatusBusy, all.Status, "whole-bundle save overlaps any in-flight section")

	close(adapter.release)
	wg.Wait()
	assert.Equal(t, StatusOK, first.Status)

	// once settled the scope is free again
	retried := store.Save(context.Background(), SectionProfile)
	assert.Equal(t, StatusOK, retried.Status)
}

func TestConcurrentSaveDisjointSectionsProceed(t *testing.T) {
	adapter := newBlockingAdapter()
	store := NewStore("user-1", testDeps(adapter))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Save(context.Background(), SectionProfile)
	}()
	<-adapter.started

	done := make(chan Result, 1)
	go func() {
		done <- store.Save(context.Background(), SectionTheme)
	}()
	<-adapter.started

	close(adapter.release)
	wg.Wait()
	second := <-done
	assert.Equal(t, StatusOK, second.Status)
}

func TestResetRequiresConfirmation(t *testing.T) {
	confirm := &stubConfirmer{answer: false}
	deps := testDeps(&mockAdapter{})
	deps.Confirm = confirm
	store := NewStore("user-1", deps)

	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Keep Me")})
	require.False(t, store.Reset(context.Background()))
	assert.Equal(t, "Keep Me", store.Bundle().Profile.DisplayName)
	assert.Len(t, confirm.prompts, 1)

	confirm.answer = true
	require.True(t, store.Reset(context.Background()))
	bundle := store.Bundle()
	assert.Equal(t, DefaultBundle().Profile.DisplayName, bundle.Profile.DisplayName)
	assert.Equal(t, "user-1", bundle.Profile.ID, "reset keeps the owning user")
	assert.Empty(t, store.FieldErrors())
}

func TestResetIsInMemoryOnly(t *testing.T) {
	adapter := &mockAdapter{}
	confirm := &stubConfirmer{answer: true}
	deps := testDeps(adapter)
	deps.Confirm = confirm
	renderer := &recordingRenderer{}
	deps.Renderer = renderer
	store := NewStore("user-1", deps)

	require.True(t, store.Reset(context.Background()))

	adapter.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything, mock.Anything)
	adapter.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	assert.Len(t, renderer.applied, 1, "reset re-materializes the default theme")
}

func TestLoadHydratesFromStorage(t *testing.T) {
	stored := &StoredBundle{
		Sections: map[Section]json.RawMessage{
			SectionProfile: json.RawMessage(`{"id":"user-1","displayName":"Hydrated","email":"h@example.com"}`),
			SectionTheme:   json.RawMessage(`{"mode":"dark"}`),
		},
		Version: SchemaVersion,
		SavedAt: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
	}
	adapter := &mockAdapter{}
	adapter.On("Load", mock.Anything, "user-1").Return(stored, nil)
	store := NewStore("user-1", testDeps(adapter))

	require.True(t, store.Load(context.Background()))

	bundle := store.Bundle()
	assert.Equal(t, "Hydrated", bundle.Profile.DisplayName)
	assert.Equal(t, ModeDark, bundle.Theme.Mode)
	assert.Equal(t, DefaultBundle().Theme.PrimaryColor, bundle.Theme.PrimaryColor, "missing fields take defaults")
	assert.Equal(t, DefaultBundle().Regional, bundle.Regional, "absent sections take defaults")
	assert.Equal(t, stored.SavedAt, bundle.LastSavedAt)
	assert.False(t, store.HasUnsavedChanges())
}

func TestLoadMissingBundleYieldsDefaults(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("Load", mock.Anything, "user-1").Return(nil, ErrNotFound)
	store := NewStore("user-1", testDeps(adapter))

	require.False(t, store.Load(context.Background()))

	bundle := store.Bundle()
	assert.Equal(t, "user-1", bundle.Profile.ID)
	assert.Equal(t, DefaultBundle().Theme, bundle.Theme)
}

func TestLoadUnreadableStorageFallsBackToDefaults(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("Load", mock.Anything, "user-1").Return(nil, errors.New("corrupt row"))
	store := NewStore("user-1", testDeps(adapter))

	require.False(t, store.Load(context.Background()))
	assert.Equal(t, DefaultBundle().Security, store.Bundle().Security)
}

func TestClearStorageResetsEverything(t *testing.T) {
	adapter := &mockAdapter{}
	adapter.On("Clear", mock.Anything, "user-1").Return(nil)
	store := NewStore("user-1", testDeps(adapter))

	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Gone Soon")})
	require.NoError(t, store.ClearStorage(context.Background()))

	assert.Equal(t, DefaultBundle().Profile.DisplayName, store.Bundle().Profile.DisplayName)
	assert.False(t, store.HasUnsavedChanges())
	adapter.AssertExpectations(t)
}

func TestExportDeliversArtifact(t *testing.T) {
	files := &captureFiles{}
	deps := testDeps(&mockAdapter{})
	deps.Files = files
	store := NewStore("user-1", deps)

	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Exporter")})
	result := store.Export(context.Background())

	require.Equal(t, StatusOK, result.Status)
	assert.Contains(t, files.filename, "settings-export-")

	raw, err := decodeArtifact(files.payload)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, raw.version)
}

func TestImportRoundTripPreservesBundle(t *testing.T) {
	files := &captureFiles{}
	deps := testDeps(&mockAdapter{})
	deps.Files = files
	store := NewStore("user-1", deps)

	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Round Tripper"), Bio: strPtr("travels well")})
	store.UpdateSecurity(SecurityPatch{IPWhitelist: &[]string{"192.168.1.0/24"}})
	before := store.Bundle()

	require.Equal(t, StatusOK, store.Export(context.Background()).Status)

	// wipe, then import the exported artifact back
	mode := ModeDark
	store.UpdateTheme(ThemePatch{Mode: &mode})
	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Overwritten")})

	result := store.Import(context.Background(), files.payload)
	require.Equal(t, StatusOK, result.Status)

	after := store.Bundle()
	assert.Empty(t, Diff(&before, &after), "import(export(bundle)) must reproduce the bundle")
}

func TestImportMissingKeyLeavesBundleUntouched(t *testing.T) {
	store := NewStore("user-1", testDeps(&mockAdapter{}))
	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Untouched")})
	before := store.Bundle()

	payload := []byte(`{"version":"2.1","profile":{},"theme":{},"regional":{},"notifications":{}}`)
	result := store.Import(context.Background(), payload)

	assert.Equal(t, StatusInvalid, result.Status)
	after := store.Bundle()
	assert.Empty(t, Diff(&before, &after))
}

func TestImportVersionMismatchIsGated(t *testing.T) {
	bundle := DefaultBundle()
	bundle.Profile.DisplayName = "From Old Schema"
	bundle.Version = "1.0"
	payload, err := EncodeArtifact(&bundle, "tester", time.Now())
	require.NoError(t, err)

	t.Run("declined", func(t *testing.T) {
		confirm := &stubConfirmer{answer: false}
		deps := testDeps(&mockAdapter{})
		deps.Confirm = confirm
		store := NewStore("user-1", deps)
		before := store.Bundle()

		result := store.Import(context.Background(), payload)

		assert.Equal(t, StatusDeclined, result.Status)
		assert.Len(t, confirm.prompts, 1)
		after := store.Bundle()
		assert.Empty(t, Diff(&before, &after))
	})

	t.Run("confirmed", func(t *testing.T) {
		confirm := &stubConfirmer{answer: true}
		deps := testDeps(&mockAdapter{})
		deps.Confirm = confirm
		store := NewStore("user-1", deps)

		result := store.Import(context.Background(), payload)

		require.Equal(t, StatusOK, result.Status)
		imported := store.Bundle()
		assert.Equal(t, "From Old Schema", imported.Profile.DisplayName)
		assert.Equal(t, SchemaVersion, imported.Version, "imported bundles adopt the current schema version")
	})

	t.Run("no confirmer declines", func(t *testing.T) {
		store := NewStore("user-1", testDeps(&mockAdapter{}))
		result := store.Import(context.Background(), payload)
		assert.Equal(t, StatusDeclined, result.Status)
	})
}

func TestImportFromFile(t *testing.T) {
	bundle := DefaultBundle()
	bundle.Version = SchemaVersion
	payload, err := EncodeArtifact(&bundle, "tester", time.Now())
	require.NoError(t, err)

	files := &captureFiles{incoming: payload}
	deps := testDeps(&mockAdapter{})
	deps.Files = files
	store := NewStore("user-1", deps)

	assert.Equal(t, StatusOK, store.ImportFromFile(context.Background()).Status)

	files.acceptErr = errors.New("upload aborted")
	assert.Equal(t, StatusFailed, store.ImportFromFile(context.Background()).Status)
}

func TestUpdateAvatar(t *testing.T) {
	t.Run("success applies url", func(t *testing.T) {
		deps := testDeps(&mockAdapter{})
		deps.Avatars = &stubUploader{url: "https://cdn.example.com/a.png"}
		store := NewStore("user-1", deps)

		result := store.UpdateAvatar(context.Background(), []byte("png-bytes"))

		require.Equal(t, StatusOK, result.Status)
		assert.Equal(t, "https://cdn.example.com/a.png", store.Bundle().Profile.AvatarURL)
	})

	t.Run("failure leaves profile untouched", func(t *testing.T) {
		deps := testDeps(&mockAdapter{})
		deps.Avatars = &stubUploader{err: errors.New("storage down")}
		store := NewStore("user-1", deps)

		result := store.UpdateAvatar(context.Background(), []byte("png-bytes"))

		assert.Equal(t, StatusFailed, result.Status)
		assert.Empty(t, store.Bundle().Profile.AvatarURL)
	})
}

func TestEditDuringSaveStaysUnsaved(t *testing.T) {
	adapter := newBlockingAdapter()
	store := NewStore("user-1", testDeps(adapter))
	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("Before Save")})

	var wg sync.WaitGroup
	wg.Add(1)
	var result Result
	go func() {
		defer wg.Done()
		result = store.Save(context.Background(), SectionProfile)
	}()
	<-adapter.started

	// a patch landing while the adapter call is suspended is legal and must
	// not be folded into the saved snapshot
	store.UpdateProfile(ProfilePatch{DisplayName: strPtr("During Save")})

	close(adapter.release)
	wg.Wait()
	require.Equal(t, StatusOK, result.Status)

	assert.Equal(t, "During Save", store.Bundle().Profile.DisplayName)
	assert.True(t, store.HasUnsavedChanges(), "mid-flight edit is not durable yet")
}

func TestFailurePathsCarryTaxonomyCodes(t *testing.T) {
	var buf bytes.Buffer
	deps := testDeps(&mockAdapter{})
	deps.Log = slog.New(slog.NewTextHandler(&buf, nil))
	deps.Avatars = &stubUploader{err: errors.New("cdn unreachable")}
	store := NewStore("user-1", deps)

	store.UpdateProfile(ProfilePatch{Email: strPtr("not-an-email")})
	assert.Equal(t, StatusInvalid, store.Save(context.Background(), SectionProfile).Status)
	assert.Contains(t, buf.String(), "code=E100")

	buf.Reset()
	assert.Equal(t, StatusFailed, store.UpdateAvatar(context.Background(), []byte("png-bytes")).Status)
	assert.Contains(t, buf.String(), "code=E300")

	buf.Reset()
	stale := DefaultBundle()
	stale.Version = "0.9.0"
	payload, err := EncodeArtifact(&stale, "tester", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, StatusDeclined, store.Import(context.Background(), payload).Status)
	assert.Contains(t, buf.String(), "code=E410")
}
