package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func stashBuildInfo(t *testing.T) {
	t.Helper()
	v, c, b := Version, GitCommit, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = v, c, b
	})
}

func TestString(t *testing.T) {
	stashBuildInfo(t)

	Version = "1.2.3"
	GitCommit = "unknown"
	require.Equal(t, "1.2.3", String())

	GitCommit = "abcdef0123456789"
	require.Equal(t, "1.2.3-abcdef01", String())
}

func TestStringFull(t *testing.T) {
	stashBuildInfo(t)

	Version = "1.2.3"
	GitCommit = "abcdef0123456789"
	BuildTime = "2026-08-30T12:00:00Z"
	require.Equal(t, "Version=1.2.3 Commit=abcdef01 BuildTime=2026-08-30T12:00:00Z", StringFull())

	GitCommit = "unknown"
	BuildTime = "unknown"
	require.Equal(t, "Version=1.2.3", StringFull())
}
