package settings

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/retailgrid/settings-engine/internal/errors"
)

// Artifact is the portable serialized form of a bundle: the five sections,
// the schema version, and export attribution.
type Artifact struct {
	Version       string        `json:"version"`
	ExportedAt    time.Time     `json:"exportedAt"`
	ExportedBy    string        `json:"exportedBy"`
	Profile       Profile       `json:"profile"`
	Theme         Theme         `json:"theme"`
	Regional      Regional      `json:"regional"`
	Security      Security      `json:"security"`
	Notifications Notifications `json:"notifications"`
}

// rawArtifact keeps the section payloads undecoded so an import can merge
// them over defaults field-by-field.
type rawArtifact struct {
	version  string
	sections map[Section]json.RawMessage
}

// requiredArtifactKeys are the top-level keys an import must carry.
var requiredArtifactKeys = []string{
	"version", "profile", "theme", "regional", "security", "notifications",
}

// EncodeArtifact serializes the bundle into a portable artifact.
func EncodeArtifact(b *Bundle, exportedBy string, now time.Time) ([]byte, error) {
	artifact := Artifact{
		Version:       b.Version,
		ExportedAt:    now.UTC(),
		ExportedBy:    exportedBy,
		Profile:       b.Profile,
		Theme:         b.Theme,
		Regional:      b.Regional,
		Security:      b.Security,
		Notifications: b.Notifications,
	}

	return json.MarshalIndent(artifact, "", "  ")
}

// ExportFilename names the delivered artifact after the export date.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("settings-export-%s.json", now.UTC().Format("2006-01-02"))
}

// decodeArtifact parses a candidate artifact and verifies the required
// top-level keys. A malformed or incomplete payload yields an import-format
// error and nothing else happens.
func decodeArtifact(payload []byte) (*rawArtifact, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, apperrors.NewImportFormatError(fmt.Sprintf("parse artifact: %v", err))
	}

	for _, key := range requiredArtifactKeys {
		if _, ok := raw[key]; !ok {
			return nil, apperrors.NewImportFormatError(fmt.Sprintf("artifact is missing the %q key", key))
		}
	}

	var version string
	if err := json.Unmarshal(raw["version"], &version); err != nil || version == "" {
		return nil, apperrors.NewImportFormatError("artifact version tag is not a string")
	}

	sections := make(map[Section]json.RawMessage, len(Sections()))
	for _, section := range Sections() {
		sections[section] = raw[string(section)]
	}

	return &rawArtifact{version: version, sections: sections}, nil
}

// mergeOverDefaults decodes each stored section on top of the built-in
// defaults, so artifacts that predate newly added fields still yield a
// complete bundle. Unknown sections and fields are ignored; a section that
// fails to decode keeps its defaults.
func mergeOverDefaults(sections map[Section]json.RawMessage, version string) Bundle {
	bundle := DefaultBundle()

	decode := func(section Section, dst any) {
		payload, ok := sections[section]
		if !ok || len(payload) == 0 {
			return
		}
		// best effort: a corrupt section falls back to defaults
		_ = json.Unmarshal(payload, dst)
	}

	decode(SectionProfile, &bundle.Profile)
	decode(SectionTheme, &bundle.Theme)
	decode(SectionRegional, &bundle.Regional)
	decode(SectionSecurity, &bundle.Security)
	decode(SectionNotifications, &bundle.Notifications)

	bundle.Version = version
	return bundle
}

// sectionPayload serializes one section of the bundle.
func sectionPayload(b *Bundle, section Section) ([]byte, error) {
	switch section {
	case SectionProfile:
		return json.Marshal(b.Profile)
	case SectionTheme:
		return json.Marshal(b.Theme)
	case SectionRegional:
		return json.Marshal(b.Regional)
	case SectionSecurity:
		return json.Marshal(b.Security)
	case SectionNotifications:
		return json.Marshal(b.Notifications)
	default:
		return nil, fmt.Errorf("unknown section %q", section)
	}
}

// toStored converts the bundle into its persisted form.
func toStored(b *Bundle, savedAt time.Time) (*StoredBundle, error) {
	sections := make(map[Section]json.RawMessage, len(Sections()))
	for _, section := range Sections() {
		payload, err := sectionPayload(b, section)
		if err != nil {
			return nil, err
		}
		sections[section] = payload
	}

	return &StoredBundle{
		Sections: sections,
		Version:  b.Version,
		SavedAt:  savedAt,
	}, nil
}
