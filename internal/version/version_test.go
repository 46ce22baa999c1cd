package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	oldCommit, oldBuild := Commit, BuildTime
	t.Cleanup(func() { Commit, BuildTime = oldCommit, oldBuild })

	Commit = "0123456789abcdef"
	BuildTime = "2026-01-01T00:00:00Z"

	got := String()
	if !strings.HasPrefix(got, "aspen dev") {
		t.Errorf("String() = %q", got)
	}
	if !strings.Contains(got, "commit: 0123456,") {
		t.Errorf("commit not shortened: %q", got)
	}
}
