package version

import (
	"strings"
	"testing"
)

func TestVersionHasSemverShape(t *testing.T) {
	if Version == "" {
		t.Fatal("Version should have a default value")
	}
	// The dots stay plain even when the digits carry color codes.
	if strings.Count(Version, ".") < 2 {
		t.Errorf("Version = %q, want major.minor.patch shape", Version)
	}
}

func TestBuildMetadataOverride(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit = "abc123def456"
	BuildDate = "2026-08-30T10:30:00Z"
	if GitCommit != "abc123def456" {
		t.Errorf("GitCommit = %q after override", GitCommit)
	}
	if BuildDate != "2026-08-30T10:30:00Z" {
		t.Errorf("BuildDate = %q after override", BuildDate)
	}
}
