package buildinfo

import "testing"

func TestShortPrefersVersion(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	Version, Commit, Date = "dev", "unknown", "unknown"
	if got := Short(); got != "dev" {
		t.Fatalf("Short() = %q, want dev", got)
	}
	Commit = "8327cd9"
	if got := Short(); got != "8327cd9" {
		t.Fatalf("Short() = %q, want commit", got)
	}
	Version = "v0.3.0"
	if got := Short(); got != "v0.3.0" {
		t.Fatalf("Short() = %q, want version", got)
	}
}

func TestString(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	Version, Commit, Date = "v1.2.0", "", "2024-05-01"
	if got, want := String(), "v1.2.0 (commit unknown, built 2024-05-01)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
