package settings

// Patch types model partial updates: a nil pointer leaves the field
// untouched, a non-nil pointer overwrites it. Each apply method returns the
// dotted paths of the fields it touched so the store can clear any recorded
// validation errors for them.

// ProfilePatch is a partial update to the profile section.
type ProfilePatch struct {
	DisplayName  *string
	Email        *string
	Role         *string
	Organization *string
	Phone        *string
	AvatarURL    *string
	Bio          *string
}

func (p ProfilePatch) apply(dst *Profile) []string {
	var touched []string
	if p.DisplayName != nil {
		dst.DisplayName = *p.DisplayName
		touched = append(touched, "profile.displayName")
	}
	if p.Email != nil {
		dst.Email = *p.Email
		touched = append(touched, "profile.email")
	}
	if p.Role != nil {
		dst.Role = *p.Role
		touched = append(touched, "profile.role")
	}
	if p.Organization != nil {
		dst.Organization = *p.Organization
		touched = append(touched, "profile.organization")
	}
	if p.Phone != nil {
		dst.Phone = *p.Phone
		touched = append(touched, "profile.phone")
	}
	if p.AvatarURL != nil {
		dst.AvatarURL = *p.AvatarURL
		touched = append(touched, "profile.avatarUrl")
	}
	if p.Bio != nil {
		dst.Bio = *p.Bio
		touched = append(touched, "profile.bio")
	}
	return touched
}

// ThemePatch is a partial update to the theme section.
type ThemePatch struct {
	Mode         *ThemeMode
	PrimaryColor *string
	FontSize     *FontSizeTier
	Density      *DensityTier
	Animations   *bool
	BorderRadius *RadiusTier
	Shadow       *ShadowTier
}

func (p ThemePatch) apply(dst *Theme) []string {
	var touched []string
	if p.Mode != nil {
		dst.Mode = *p.Mode
		touched = append(touched, "theme.mode")
	}
	if p.PrimaryColor != nil {
		dst.PrimaryColor = *p.PrimaryColor
		touched = append(touched, "theme.primaryColor")
	}
	if p.FontSize != nil {
		dst.FontSize = *p.FontSize
		touched = append(touched, "theme.fontSize")
	}
	if p.Density != nil {
		dst.Density = *p.Density
		touched = append(touched, "theme.density")
	}
	if p.Animations != nil {
		dst.Animations = *p.Animations
		touched = append(touched, "theme.animations")
	}
	if p.BorderRadius != nil {
		dst.BorderRadius = *p.BorderRadius
		touched = append(touched, "theme.borderRadius")
	}
	if p.Shadow != nil {
		dst.Shadow = *p.Shadow
		touched = append(touched, "theme.shadow")
	}
	return touched
}

// RegionalPatch is a partial update to the regional section.
type RegionalPatch struct {
	Language        *string
	Currency        *string
	Timezone        *string
	DateFormat      *string
	TimeFormat      *string
	FirstDayOfWeek  *int
	NumberFormat    *string
	TemperatureUnit *string
}

func (p RegionalPatch) apply(dst *Regional) []string {
	var touched []string
	if p.Language != nil {
		dst.Language = *p.Language
		touched = append(touched, "regional.language")
	}
	if p.Currency != nil {
		dst.Currency = *p.Currency
		touched = append(touched, "regional.currency")
	}
	if p.Timezone != nil {
		dst.Timezone = *p.Timezone
		touched = append(touched, "regional.timezone")
	}
	if p.DateFormat != nil {
		dst.DateFormat = *p.DateFormat
		touched = append(touched, "regional.dateFormat")
	}
	if p.TimeFormat != nil {
		dst.TimeFormat = *p.TimeFormat
		touched = append(touched, "regional.timeFormat")
	}
	if p.FirstDayOfWeek != nil {
		dst.FirstDayOfWeek = *p.FirstDayOfWeek
		touched = append(touched, "regional.firstDayOfWeek")
	}
	if p.NumberFormat != nil {
		dst.NumberFormat = *p.NumberFormat
		touched = append(touched, "regional.numberFormat")
	}
	if p.TemperatureUnit != nil {
		dst.TemperatureUnit = *p.TemperatureUnit
		touched = append(touched, "regional.temperatureUnit")
	}
	return touched
}

// SecurityPatch is a partial update to the security section. IPWhitelist
// replaces the whole list when present.
type SecurityPatch struct {
	TwoFactorEnabled      *bool
	SessionTimeoutMinutes *int
	PasswordExpiryDays    *int
	IPWhitelist           *[]string
	LoginNotifications    *bool
	LockoutEnabled        *bool
	MaxLoginAttempts      *int
	PasswordComplexity    *bool
	PasswordHistorySize   *int
	AutoLogout            *bool
}

func (p SecurityPatch) apply(dst *Security) []string {
	var touched []string
	if p.TwoFactorEnabled != nil {
		dst.TwoFactorEnabled = *p.TwoFactorEnabled
		touched = append(touched, "security.twoFactorEnabled")
	}
	if p.SessionTimeoutMinutes != nil {
		dst.SessionTimeoutMinutes = *p.SessionTimeoutMinutes
		touched = append(touched, "security.sessionTimeoutMinutes")
	}
	if p.PasswordExpiryDays != nil {
		dst.PasswordExpiryDays = *p.PasswordExpiryDays
		touched = append(touched, "security.passwordExpiryDays")
	}
	if p.IPWhitelist != nil {
		dst.IPWhitelist = append([]string(nil), (*p.IPWhitelist)...)
		touched = append(touched, "security.ipWhitelist")
	}
	if p.LoginNotifications != nil {
		dst.LoginNotifications = *p.LoginNotifications
		touched = append(touched, "security.loginNotifications")
	}
	if p.LockoutEnabled != nil {
		dst.LockoutEnabled = *p.LockoutEnabled
		touched = append(touched, "security.lockoutEnabled")
	}
	if p.MaxLoginAttempts != nil {
		dst.MaxLoginAttempts = *p.MaxLoginAttempts
		touched = append(touched, "security.maxLoginAttempts")
	}
	if p.PasswordComplexity != nil {
		dst.PasswordComplexity = *p.PasswordComplexity
		touched = append(touched, "security.passwordComplexity")
	}
	if p.PasswordHistorySize != nil {
		dst.PasswordHistorySize = *p.PasswordHistorySize
		touched = append(touched, "security.passwordHistorySize")
	}
	if p.AutoLogout != nil {
		dst.AutoLogout = *p.AutoLogout
		touched = append(touched, "security.autoLogout")
	}
	return touched
}

// ChannelPatch is a partial update to one notification channel.
type ChannelPatch struct {
	NewOrder       *bool
	LowStock       *bool
	DailySummary   *bool
	SecurityAlerts *bool
	Promotions     *bool
}

func (p ChannelPatch) apply(dst *Channel, prefix string) []string {
	var touched []string
	if p.NewOrder != nil {
		dst.NewOrder = *p.NewOrder
		touched = append(touched, prefix+".newOrder")
	}
	if p.LowStock != nil {
		dst.LowStock = *p.LowStock
		touched = append(touched, prefix+".lowStock")
	}
	if p.DailySummary != nil {
		dst.DailySummary = *p.DailySummary
		touched = append(touched, prefix+".dailySummary")
	}
	if p.SecurityAlerts != nil {
		dst.SecurityAlerts = *p.SecurityAlerts
		touched = append(touched, prefix+".securityAlerts")
	}
	if p.Promotions != nil {
		dst.Promotions = *p.Promotions
		touched = append(touched, prefix+".promotions")
	}
	return touched
}

// QuietHoursPatch is a partial update to the quiet-hours window.
type QuietHoursPatch struct {
	Enabled *bool
	Start   *string
	End     *string
}

func (p QuietHoursPatch) apply(dst *QuietHours) []string {
	var touched []string
	if p.Enabled != nil {
		dst.Enabled = *p.Enabled
		touched = append(touched, "notifications.quietHours.enabled")
	}
	if p.Start != nil {
		dst.Start = *p.Start
		touched = append(touched, "notifications.quietHours.start")
	}
	if p.End != nil {
		dst.End = *p.End
		touched = append(touched, "notifications.quietHours.end")
	}
	return touched
}

// NotificationsPatch is a partial update to the notifications section.
type NotificationsPatch struct {
	Email      *ChannelPatch
	Push       *ChannelPatch
	SMS        *ChannelPatch
	QuietHours *QuietHoursPatch
	Sound      *string
}

func (p NotificationsPatch) apply(dst *Notifications) []string {
	var touched []string
	if p.Email != nil {
		touched = append(touched, p.Email.apply(&dst.Email, "notifications.email")...)
	}
	if p.Push != nil {
		touched = append(touched, p.Push.apply(&dst.Push, "notifications.push")...)
	}
	if p.SMS != nil {
		touched = append(touched, p.SMS.apply(&dst.SMS, "notifications.sms")...)
	}
	if p.QuietHours != nil {
		touched = append(touched, p.QuietHours.apply(&dst.QuietHours)...)
	}
	if p.Sound != nil {
		dst.Sound = *p.Sound
		touched = append(touched, "notifications.sound")
	}
	return touched
}
