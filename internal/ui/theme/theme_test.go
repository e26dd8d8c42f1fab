package theme

import (
	"strings"
	"testing"
)

func TestByName(t *testing.T) {
	if ByName("light").Name != NameLight {
		t.Error("light should resolve to Light")
	}
	for _, name := range []string{"dark", "", "solarized"} {
		if ByName(name).Name != NameDark {
			t.Errorf("ByName(%q) should fall back to dark", name)
		}
	}
}

func TestToggle(t *testing.T) {
	if Toggle(NameDark) != NameLight || Toggle(NameLight) != NameDark {
		t.Fatal("Toggle should alternate between dark and light")
	}
	if Toggle("unknown") != NameLight {
		t.Fatal("unknown names are treated as dark")
	}
}

func TestPalettesAreComplete(t *testing.T) {
	for _, p := range []Palette{Dark, Light} {
		colors := map[string]string{
			"Primary":             string(p.Primary),
			"Secondary":           string(p.Secondary),
			"Accent":              string(p.Accent),
			"Error":               string(p.Error),
			"Warning":             string(p.Warning),
			"Success":             string(p.Success),
			"Info":                string(p.Info),
			"Text":                string(p.Text),
			"TextMuted":           string(p.TextMuted),
			"TextEmphasized":      string(p.TextEmphasized),
			"Background":          string(p.Background),
			"BackgroundSecondary": string(p.BackgroundSecondary),
			"BorderNormal":        string(p.BorderNormal),
			"BorderFocused":       string(p.BorderFocused),
		}
		for field, v := range colors {
			if !strings.HasPrefix(v, "#") || len(v) != 7 {
				t.Errorf("%s.%s = %q, want #rrggbb", p.Name, field, v)
			}
		}
	}
	if Dark.Background == Light.Background {
		t.Error("palettes should differ")
	}
	if !Dark.IsDark() || Light.IsDark() {
		t.Error("IsDark mismatch")
	}
}

func TestBackgroundANSI(t *testing.T) {
	seq := Dark.BackgroundANSI()
	if !strings.HasPrefix(seq, "\x1b[") || !strings.HasSuffix(seq, "m") {
		t.Fatalf("BackgroundANSI() = %q, expected SGR sequence", seq)
	}
	if !strings.Contains(seq, "48;2;30;30;46") {
		t.Fatalf("BackgroundANSI() = %q, expected truecolor background", seq)
	}
	if Light.BackgroundSecondaryANSI() == Dark.BackgroundSecondaryANSI() {
		t.Fatal("secondary backgrounds should differ")
	}
}
