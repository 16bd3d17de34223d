package settings

// DefaultBundle returns the built-in settings for a fresh account. The
// defaults always pass ValidateAll.
func DefaultBundle() Bundle {
	return Bundle{
		Profile: Profile{
			DisplayName:  "Store Owner",
			Email:        "owner@example.com",
			Role:         "owner",
			Organization: "My Store",
		},
		Theme: Theme{
			Mode:         ModeSystem,
			PrimaryColor: "#4F46E5",
			FontSize:     FontMedium,
			Density:      DensityComfortable,
			Animations:   true,
			BorderRadius: RadiusMedium,
			Shadow:       ShadowSubtle,
		},
		Regional: Regional{
			Language:        "en-US",
			Currency:        "USD",
			Timezone:        "UTC",
			DateFormat:      "MM/DD/YYYY",
			TimeFormat:      "12h",
			FirstDayOfWeek:  1,
			NumberFormat:    "comma-dot",
			TemperatureUnit: "celsius",
		},
		Security: Security{
			TwoFactorEnabled:      false,
			SessionTimeoutMinutes: 30,
			PasswordExpiryDays:    90,
			IPWhitelist:           []string{},
			LoginNotifications:    true,
			LockoutEnabled:        true,
			MaxLoginAttempts:      5,
			PasswordComplexity:    true,
			PasswordHistorySize:   5,
			AutoLogout:            true,
		},
		Notifications: Notifications{
			Email: Channel{
				NewOrder:       true,
				LowStock:       true,
				DailySummary:   true,
				SecurityAlerts: true,
				Promotions:     false,
			},
			Push: Channel{
				NewOrder:       true,
				LowStock:       true,
				DailySummary:   false,
				SecurityAlerts: true,
				Promotions:     false,
			},
			SMS: Channel{
				NewOrder:       false,
				LowStock:       false,
				DailySummary:   false,
				SecurityAlerts: true,
				Promotions:     false,
			},
			QuietHours: QuietHours{
				Enabled: false,
				Start:   "22:00",
				End:     "07:00",
			},
			Sound: "chime",
		},
		Version: SchemaVersion,
	}
}
