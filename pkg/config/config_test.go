package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "relcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "allowSystemTableModifications: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, ":9187", cfg.Metrics.Listen)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.AllowSystemTableModifications)
}

func TestLoadRespectsExplicitMetricsDisabled(t *testing.T) {
	path := writeConfig(t, "metrics:\n  listen: \":9999\"\n  enabled: false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Metrics.Listen)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadParsesBinaryUpgradeSlots(t *testing.T) {
	path := writeConfig(t, `
dataDir: /var/lib/relcore
binaryUpgrade:
  nextHeapId: 16500
  nextToastId: 16501
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/relcore", cfg.DataDir)

	override := cfg.Override()
	assert.EqualValues(t, 16500, override.NextHeapID)
	assert.EqualValues(t, 16501, override.NextToastID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
