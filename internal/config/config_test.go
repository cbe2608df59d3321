package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("MEMKEEP_DATA_DIR", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.SweepInterval())
	assert.Equal(t, time.Minute, cfg.RateLimitWindow())
	assert.Equal(t, 90, cfg.CleanupAgeDays)
	assert.Equal(t, 3, cfg.CleanupMaxScore)
	assert.Equal(t, 30, cfg.CompressAgeDays)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("MEMKEEP_DATA_DIR", "")
	path := filepath.Join(t.TempDir(), "memkeep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"data_dir: /var/lib/memkeep\nlog_level: debug\ncleanup_age_days: 14\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/memkeep", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 14, cfg.CleanupAgeDays)
	// Unset fields keep their defaults.
	assert.Equal(t, 30, cfg.CompressAgeDays)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MEMKEEP_DATA_DIR", "/tmp/elsewhere")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere", cfg.DataDir)
	assert.Equal(t, filepath.Join("/tmp/elsewhere", "memkeep.key"), cfg.KeyPath())
}
