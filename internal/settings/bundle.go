// Package settings implements the user settings engine: the canonical
// settings bundle, its validation rules, structural diffing, theme
// materialization, import/export, and the store that orchestrates them.
package settings

import "time"

// SchemaVersion is the current settings schema tag written into persisted
// bundles and export artifacts.
const SchemaVersion = "2.1"

// Section names one sub-object of the bundle.
type Section string

const (
	SectionProfile       Section = "profile"
	SectionTheme         Section = "theme"
	SectionRegional      Section = "regional"
	SectionSecurity      Section = "security"
	SectionNotifications Section = "notifications"
)

// Sections lists every bundle section in canonical order.
func Sections() []Section {
	return []Section{
		SectionProfile,
		SectionTheme,
		SectionRegional,
		SectionSecurity,
		SectionNotifications,
	}
}

// Valid reports whether s names a known section.
func (s Section) Valid() bool {
	switch s {
	case SectionProfile, SectionTheme, SectionRegional, SectionSecurity, SectionNotifications:
		return true
	}
	return false
}

// ThemeMode selects the light/dark appearance.
type ThemeMode string

const (
	ModeLight  ThemeMode = "light"
	ModeDark   ThemeMode = "dark"
	ModeSystem ThemeMode = "system"
)

// Tier enumerations for the visual theme.
type (
	FontSizeTier string
	DensityTier  string
	RadiusTier   string
	ShadowTier   string
)

const (
	FontSmall  FontSizeTier = "small"
	FontMedium FontSizeTier = "medium"
	FontLarge  FontSizeTier = "large"

	DensityCompact     DensityTier = "compact"
	DensityComfortable DensityTier = "comfortable"
	DensitySpacious    DensityTier = "spacious"

	RadiusNone   RadiusTier = "none"
	RadiusSmall  RadiusTier = "small"
	RadiusMedium RadiusTier = "medium"
	RadiusLarge  RadiusTier = "large"
	RadiusFull   RadiusTier = "full"

	ShadowNone   ShadowTier = "none"
	ShadowSubtle ShadowTier = "subtle"
	ShadowMedium ShadowTier = "medium"
	ShadowStrong ShadowTier = "strong"
)

// Profile holds the user-facing identity fields.
type Profile struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName" validate:"required,max=100,nocontrol"`
	Email        string `json:"email" validate:"required,email"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Phone        string `json:"phone" validate:"omitempty,phoneintl"`
	AvatarURL    string `json:"avatarUrl"`
	Bio          string `json:"bio" validate:"max=500,biotext"`
}

// Theme holds the visual appearance choices. Everything except the accent
// color and the animation toggle is a closed enumeration.
type Theme struct {
	Mode         ThemeMode    `json:"mode" validate:"oneof=light dark system"`
	PrimaryColor string       `json:"primaryColor" validate:"hexrgb"`
	FontSize     FontSizeTier `json:"fontSize" validate:"oneof=small medium large"`
	Density      DensityTier  `json:"density" validate:"oneof=compact comfortable spacious"`
	Animations   bool         `json:"animations"`
	BorderRadius RadiusTier   `json:"borderRadius" validate:"oneof=none small medium large full"`
	Shadow       ShadowTier   `json:"shadow" validate:"oneof=none subtle medium strong"`
}

// Regional holds locale and formatting preferences.
type Regional struct {
	Language        string `json:"language" validate:"langtag"`
	Currency        string `json:"currency" validate:"currencyiso"`
	Timezone        string `json:"timezone" validate:"timezone"`
	DateFormat      string `json:"dateFormat" validate:"oneof=MM/DD/YYYY DD/MM/YYYY YYYY-MM-DD"`
	TimeFormat      string `json:"timeFormat" validate:"oneof=12h 24h"`
	FirstDayOfWeek  int    `json:"firstDayOfWeek" validate:"gte=0,lte=6"`
	NumberFormat    string `json:"numberFormat" validate:"oneof=comma-dot dot-comma space-comma"`
	TemperatureUnit string `json:"temperatureUnit" validate:"oneof=celsius fahrenheit"`
}

// Security holds the account security posture. A zero session timeout means
// the session never expires.
type Security struct {
	TwoFactorEnabled      bool     `json:"twoFactorEnabled"`
	SessionTimeoutMinutes int      `json:"sessionTimeoutMinutes" validate:"gte=0"`
	PasswordExpiryDays    int      `json:"passwordExpiryDays" validate:"gte=0"`
	IPWhitelist           []string `json:"ipWhitelist" validate:"dive,ipv4cidr"`
	LoginNotifications    bool     `json:"loginNotifications"`
	LockoutEnabled        bool     `json:"lockoutEnabled"`
	MaxLoginAttempts      int      `json:"maxLoginAttempts" validate:"gte=1,lte=10"`
	PasswordComplexity    bool     `json:"passwordComplexity"`
	PasswordHistorySize   int      `json:"passwordHistorySize" validate:"gte=0,lte=24"`
	AutoLogout            bool     `json:"autoLogout"`
}

// Channel is the fixed set of per-channel notification toggles.
type Channel struct {
	NewOrder       bool `json:"newOrder"`
	LowStock       bool `json:"lowStock"`
	DailySummary   bool `json:"dailySummary"`
	SecurityAlerts bool `json:"securityAlerts"`
	Promotions     bool `json:"promotions"`
}

// QuietHours suppresses notifications inside a local-time window. Overnight
// windows (start after end) are valid.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start" validate:"clocktime"`
	End     string `json:"end" validate:"clocktime"`
}

// Notifications groups the delivery channels, the quiet-hours window and the
// alert sound.
type Notifications struct {
	Email      Channel    `json:"email"`
	Push       Channel    `json:"push"`
	SMS        Channel    `json:"sms"`
	QuietHours QuietHours `json:"quietHours"`
	Sound      string     `json:"sound" validate:"oneof=chime bell ping none"`
}

// Bundle is the aggregate settings object: the unit of persistence, export
// and diffing.
type Bundle struct {
	Profile       Profile       `json:"profile"`
	Theme         Theme         `json:"theme"`
	Regional      Regional      `json:"regional"`
	Security      Security      `json:"security"`
	Notifications Notifications `json:"notifications"`
	Version       string        `json:"version"`
	LastSavedAt   time.Time     `json:"lastSavedAt"`
}

// Clone returns a deep copy of the bundle.
func (b *Bundle) Clone() Bundle {
	copied := *b
	if b.Security.IPWhitelist != nil {
		copied.Security.IPWhitelist = append(make([]string, 0, len(b.Security.IPWhitelist)), b.Security.IPWhitelist...)
	}
	return copied
}
