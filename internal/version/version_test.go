package version

import (
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	orig := Version
	Version = v
	t.Cleanup(func() { Version = orig })
}

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestPretty_PlainWithoutColor(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	tests := []struct {
		in, want string
	}{
		{"0.1.0", "0.1.0"},
		{"1.2.3-rc.1+build.123", "1.2.3-rc.1+build.123"},
		{"  2.0.0-alpha ", "2.0.0-alpha"},
		{"nightly", "nightly"},
		{"", "dev"},
	}
	for _, tt := range tests {
		withVersion(t, tt.in)
		if got := Pretty(); got != tt.want {
			t.Errorf("Pretty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPretty_ColorsNumbers(t *testing.T) {
	orig := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = orig })

	withVersion(t, "1.2.3-dev")
	got := Pretty()
	if got == "1.2.3-dev" {
		t.Fatal("expected escape sequences around the version numbers")
	}
	if got[len(got)-4:] != "-dev" {
		t.Fatalf("suffix should stay plain, got %q", got)
	}
}

func BenchmarkPretty(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Pretty()
	}
}
