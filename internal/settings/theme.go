package settings

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// rampLevels are the shade labels of the derived palette, lightest first.
var rampLevels = []string{"50", "100", "200", "300", "400", "500", "600", "700", "800", "900"}

// rampLightness maps each level except the base ("500") to a fixed HSL
// lightness, which makes the ramp deterministic for a given accent.
var rampLightness = map[string]float64{
	"50":  0.97,
	"100": 0.92,
	"200": 0.84,
	"300": 0.72,
	"400": 0.60,
	"600": 0.42,
	"700": 0.34,
	"800": 0.27,
	"900": 0.21,
}

// HSL is the hue/saturation/lightness decomposition of the accent color.
type HSL struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// ThemeVariables is the full set of derived visual values pushed to the
// rendering context.
type ThemeVariables struct {
	Mode         ThemeMode         `json:"mode"` // resolved: light or dark
	Accent       string            `json:"accent"`
	AccentHSL    HSL               `json:"accentHsl"`
	Foreground   string            `json:"foreground"` // contrast-safe text on the accent
	Ramp         map[string]string `json:"ramp"`
	FontSize     FontSizeTier      `json:"fontSize"`
	Density      DensityTier       `json:"density"`
	BorderRadius RadiusTier        `json:"borderRadius"`
	Shadow       ShadowTier        `json:"shadow"`
	Animations   bool              `json:"animations"`
}

// Materializer derives presentation-ready theme variables from the theme
// section and pushes them to the rendering context. It holds a non-owning
// reference to the context and never manages its lifecycle.
type Materializer struct {
	ctx        RenderingContext
	systemDark func() bool
}

// NewMaterializer builds a materializer. systemDark resolves the "system"
// mode; nil means light.
func NewMaterializer(ctx RenderingContext, systemDark func() bool) *Materializer {
	return &Materializer{ctx: ctx, systemDark: systemDark}
}

// Apply computes the derived variables for theme and issues exactly one
// ApplyTheme call to the rendering context. Same input, same output: the
// ramp is a pure function of the accent color. An unparsable accent falls
// back to the default so materialization itself never fails; validation is
// the place where a bad color is reported.
func (m *Materializer) Apply(theme Theme) ThemeVariables {
	vars := Materialize(theme, m.resolveMode(theme.Mode))
	if m.ctx != nil {
		m.ctx.ApplyTheme(vars)
	}
	return vars
}

func (m *Materializer) resolveMode(mode ThemeMode) ThemeMode {
	if mode == ModeDark {
		return ModeDark
	}
	if mode == ModeSystem && m.systemDark != nil && m.systemDark() {
		return ModeDark
	}
	return ModeLight
}

// Materialize is the pure derivation: accent ramp, HSL decomposition and
// contrast foreground for the given theme and an already-resolved mode.
func Materialize(theme Theme, resolved ThemeMode) ThemeVariables {
	accent := normalizeHex(theme.PrimaryColor)
	base, err := colorful.Hex(accent)
	if err != nil {
		accent = strings.ToLower(DefaultBundle().Theme.PrimaryColor)
		base, _ = colorful.Hex(accent)
	}

	h, s, l := base.Hsl()

	ramp := make(map[string]string, len(rampLevels))
	for _, level := range rampLevels {
		if level == "500" {
			ramp[level] = base.Hex()
			continue
		}
		shade := colorful.Hsl(h, s, rampLightness[level]).Clamped()
		ramp[level] = shade.Hex()
	}

	return ThemeVariables{
		Mode:         resolved,
		Accent:       base.Hex(),
		AccentHSL:    HSL{H: h, S: s, L: l},
		Foreground:   contrastForeground(base),
		Ramp:         ramp,
		FontSize:     theme.FontSize,
		Density:      theme.Density,
		BorderRadius: theme.BorderRadius,
		Shadow:       theme.Shadow,
		Animations:   theme.Animations,
	}
}

// contrastForeground picks near-black or white text depending on the
// perceived lightness of the accent.
func contrastForeground(c colorful.Color) string {
	l, _, _ := c.Lab()
	if l > 0.6 {
		return "#111827"
	}
	return "#ffffff"
}

// normalizeHex lowercases a hex color and expands #RGB to #RRGGBB.
func normalizeHex(hex string) string {
	hex = strings.ToLower(strings.TrimSpace(hex))
	if len(hex) == 4 && hex[0] == '#' {
		return string([]byte{'#', hex[1], hex[1], hex[2], hex[2], hex[3], hex[3]})
	}
	return hex
}
