package update

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantMajor  int
		wantMinor  int
		wantPatch  int
		wantPrerel string
		wantErr    bool
	}{
		{name: "simple version", input: "1.2.3", wantMajor: 1, wantMinor: 2, wantPatch: 3},
		{name: "v prefix", input: "v1.2.3", wantMajor: 1, wantMinor: 2, wantPatch: 3},
		{name: "prerelease", input: "v1.2.3-beta.1", wantMajor: 1, wantMinor: 2, wantPatch: 3, wantPrerel: "beta.1"},
		{name: "build metadata ignored", input: "1.0.0+sha.abc", wantMajor: 1},
		{name: "surrounding whitespace", input: "  2.0.1\n", wantMajor: 2, wantPatch: 1},
		{name: "empty string", input: "", wantErr: true},
		{name: "missing patch", input: "1.2", wantErr: true},
		{name: "garbage", input: "latest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidVersion) {
					t.Fatalf("ParseVersion(%q) error = %v, want ErrInvalidVersion", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tt.input, err)
			}
			if v.Major != tt.wantMajor || v.Minor != tt.wantMinor || v.Patch != tt.wantPatch {
				t.Errorf("ParseVersion(%q) = %d.%d.%d, want %d.%d.%d",
					tt.input, v.Major, v.Minor, v.Patch, tt.wantMajor, tt.wantMinor, tt.wantPatch)
			}
			if v.Prerelease != tt.wantPrerel {
				t.Errorf("Prerelease = %q, want %q", v.Prerelease, tt.wantPrerel)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	v, _ := ParseVersion("v1.4.0-rc.2")
	if got := v.String(); got != "1.4.0-rc.2" {
		t.Errorf("String() = %q, want %q", got, "1.4.0-rc.2")
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"1.2.0", "1.1.9", 1},
		{"1.0.1", "1.0.0", 1},
		{"1.0.0-beta", "1.0.0", -1},
		{"1.0.0", "1.0.0-beta", 1},
		{"1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"1.0.0-alpha.1", "1.0.0-alpha.beta", -1},
		{"1.0.0-beta.2", "1.0.0-beta.11", -1},
		{"1.0.0-rc.1", "1.0.0-beta.11", 1},
	}
	for _, tt := range tests {
		a, _ := ParseVersion(tt.a)
		b, _ := ParseVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := a.LessThan(b); got != (tt.want < 0) {
			t.Errorf("LessThan(%s, %s) = %v", tt.a, tt.b, got)
		}
	}
}

func TestIsDevelopment(t *testing.T) {
	for _, s := range []string{"", "dev", "Development", "nightly"} {
		if !IsDevelopment(s) {
			t.Errorf("IsDevelopment(%q) = false, want true", s)
		}
	}
	if IsDevelopment("1.2.3") {
		t.Error("IsDevelopment(1.2.3) = true, want false")
	}
}
