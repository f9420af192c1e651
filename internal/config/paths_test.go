package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPathsHonorsHomeOverride(t *testing.T) {
	t.Setenv("CORD_BROKER_HOME", "/custom/base")
	p := DefaultPaths()
	require.Equal(t, "/custom/base", p.BaseDir)
	require.Equal(t, filepath.Join("/custom/base", "config.yaml"), p.ConfigFile())
}

func TestEnsureBaseDirCreatesDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "cord-broker")
	t.Setenv("CORD_BROKER_HOME", base)
	p := DefaultPaths()
	require.NoError(t, p.EnsureBaseDir())
	info, err := os.Stat(base)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
