package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFileMissingReturnsEmptyDefaults(t *testing.T) {
	d, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, &Defaults{}, d)
}

func TestLoadFromFileParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "pipe_name: /tmp/custom-ipc\nclient_id: 123456789\ntimeout_ms: 30000\ninitial_reconnect: true\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	d, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom-ipc", d.PipeName)
	require.Equal(t, uint64(123456789), d.ClientID)
	require.Equal(t, int64(30000), d.TimeoutMs)
	require.True(t, d.InitialReconnect)
	require.Equal(t, "debug", d.LogLevel)
}

func TestLoadFromFileRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipe_name: [unterminated"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
}
