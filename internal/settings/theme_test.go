package settings

import (
	"reflect"
	"testing"
)

type recordingRenderer struct {
	applied []ThemeVariables
}

func (r *recordingRenderer) ApplyTheme(vars ThemeVariables) {
	r.applied = append(r.applied, vars)
}

func TestMaterializeDeterministic(t *testing.T) {
	theme := DefaultBundle().Theme
	theme.PrimaryColor = "#4F46E5"

	first := Materialize(theme, ModeLight)
	second := Materialize(theme, ModeLight)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("materialization is not deterministic:\n%+v\n%+v", first, second)
	}
	if len(first.Ramp) != 10 {
		t.Fatalf("ramp has %d levels, want 10", len(first.Ramp))
	}
	if first.Ramp["500"] != "#4f46e5" {
		t.Errorf("base shade = %q, want accent itself", first.Ramp["500"])
	}
	for _, level := range rampLevels {
		if !ValidHexColor(first.Ramp[level]) {
			t.Errorf("ramp[%s] = %q is not a hex color", level, first.Ramp[level])
		}
	}
}

func TestMaterializeShortHexNormalized(t *testing.T) {
	theme := DefaultBundle().Theme
	theme.PrimaryColor = "#ABC"

	vars := Materialize(theme, ModeLight)
	if vars.Accent != "#aabbcc" {
		t.Fatalf("accent = %q, want #aabbcc", vars.Accent)
	}
}

func TestMaterializeBadAccentFallsBack(t *testing.T) {
	theme := DefaultBundle().Theme
	theme.PrimaryColor = "#nothex"

	vars := Materialize(theme, ModeLight)
	want := Materialize(DefaultBundle().Theme, ModeLight)
	if vars.Accent != want.Accent {
		t.Fatalf("accent = %q, want default %q", vars.Accent, want.Accent)
	}
}

func TestContrastForeground(t *testing.T) {
	tests := []struct {
		accent string
		want   string
	}{
		{accent: "#111111", want: "#ffffff"},
		{accent: "#4F46E5", want: "#ffffff"},
		{accent: "#FFFF00", want: "#111827"},
		{accent: "#F9FAFB", want: "#111827"},
	}

	for _, tt := range tests {
		theme := DefaultBundle().Theme
		theme.PrimaryColor = tt.accent
		vars := Materialize(theme, ModeLight)
		if vars.Foreground != tt.want {
			t.Errorf("foreground for %s = %q, want %q", tt.accent, vars.Foreground, tt.want)
		}
	}
}

func TestMaterializerResolvesMode(t *testing.T) {
	tests := []struct {
		name       string
		mode       ThemeMode
		systemDark func() bool
		want       ThemeMode
	}{
		{name: "light stays light", mode: ModeLight, want: ModeLight},
		{name: "dark stays dark", mode: ModeDark, want: ModeDark},
		{name: "system resolves dark", mode: ModeSystem, systemDark: func() bool { return true }, want: ModeDark},
		{name: "system resolves light", mode: ModeSystem, systemDark: func() bool { return false }, want: ModeLight},
		{name: "system without probe means light", mode: ModeSystem, want: ModeLight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &recordingRenderer{}
			m := NewMaterializer(renderer, tt.systemDark)

			theme := DefaultBundle().Theme
			theme.Mode = tt.mode
			vars := m.Apply(theme)

			if vars.Mode != tt.want {
				t.Errorf("resolved mode = %s, want %s", vars.Mode, tt.want)
			}
			if len(renderer.applied) != 1 {
				t.Fatalf("ApplyTheme called %d times, want exactly once", len(renderer.applied))
			}
			if !reflect.DeepEqual(renderer.applied[0], vars) {
				t.Errorf("renderer received different variables than returned")
			}
		})
	}
}
