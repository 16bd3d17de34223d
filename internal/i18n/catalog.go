package i18n

// Builtin returns the compiled-in English catalog. It mirrors
// locales/en.yaml so the engine stays usable when no locale files are
// shipped next to the binary.
func Builtin() map[string]map[string]string {
	return map[string]map[string]string{
		"en": {
			"settings.save.success":        "Settings saved",
			"settings.save.failed":         "Could not save your settings. Please try again.",
			"settings.save.invalid":        "Please fix the highlighted fields before saving.",
			"settings.save.busy":           "A save is already in progress for this section.",
			"settings.reset.prompt":        "Reset all settings to their defaults? This cannot be undone.",
			"settings.reset.success":       "Settings restored to defaults",
			"settings.import.success":      "Settings imported",
			"settings.import.invalid":      "The selected file is not a valid settings export.",
			"settings.import.prompt":       "This export was created with a different settings version. Import anyway?",
			"settings.import.declined":     "Import cancelled.",
			"settings.import.failed":       "Could not read the selected file.",
			"settings.export.success":      "Settings exported",
			"settings.export.failed":       "Could not export your settings. Please try again.",
			"settings.avatar.success":      "Profile photo updated",
			"settings.avatar.failed":       "Could not upload the image. Please try again.",
			"validation.email":             "Enter a valid email address",
			"validation.name.required":     "Display name is required",
			"validation.name.length":       "Display name must be 100 characters or fewer",
			"validation.name.characters":   "Display name contains unsupported characters",
			"validation.phone":             "Enter a valid phone number",
			"validation.bio.length":        "Bio must be 500 characters or fewer",
			"validation.bio.characters":    "Bio contains unsupported characters",
			"validation.color":             "Enter a color as #RGB or #RRGGBB",
			"validation.session_timeout":   "Session timeout must be zero or more minutes",
			"validation.password_expiry":   "Password expiry must be zero or more days",
			"validation.login_attempts":    "Max login attempts must be between 1 and 10",
			"validation.password_history":  "Password history must be between 0 and 24",
			"validation.ip":                "Enter a valid IPv4 address or CIDR range",
			"validation.language":          "Select a valid language",
			"validation.currency":          "Select a valid currency",
			"validation.timezone":          "Select a valid timezone",
			"validation.first_day":         "First day of week must be between 0 and 6",
			"validation.quiet_hours":       "Enter times as HH:MM",
			"validation.option":            "Select one of the available options",
		},
	}
}

// Default returns an English translator backed by the builtin catalog.
func Default() Translator {
	manager, err := NewFromCatalog(Builtin(), "en")
	if err != nil {
		return translator{}
	}

	return manager.Translator("en")
}
