// Package config loads the on-disk YAML configuration for relcore,
// following the same load-a-file-into-a-tagged-struct pattern the rest
// of this codebase's tooling uses for resource manifests.
package config

import (
	"fmt"
	"os"

	"github.com/relforge/relcore/pkg/relbuilder"
	"github.com/relforge/relcore/pkg/types"
	"gopkg.in/yaml.v3"
)

// Config is the top-level shape of relcore.yaml.
type Config struct {
	DataDir string `yaml:"dataDir"`

	// WALSyncThresholdBlocks mirrors the source's wal_skip_threshold: at
	// commit, pending.Log fsyncs a relation whose total size across forks
	// is at or above this many blocks (or that was truncated); a smaller
	// relation gets one full-page WAL record per block instead. Zero means
	// use pending.DefaultSyncThresholdBlocks.
	WALSyncThresholdBlocks int64 `yaml:"walSyncThresholdBlocks"`

	// AllowSystemTableModifications is loaded from the file but not read by
	// any relcore command; relbuilder.CreateRequest.AllowSystemMods is set by
	// each caller directly.
	AllowSystemTableModifications bool `yaml:"allowSystemTableModifications"`

	BinaryUpgrade BinaryUpgradeConfig `yaml:"binaryUpgrade,omitempty"`

	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// BinaryUpgradeConfig carries the fixed relation-id override slots used by
// pg_upgrade-style restores, surfaced as relbuilder.BinaryUpgradeOverride.
type BinaryUpgradeConfig struct {
	NextHeapID  uint32 `yaml:"nextHeapId,omitempty"`
	NextToastID uint32 `yaml:"nextToastId,omitempty"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Listen  string `yaml:"listen,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// Override converts the YAML-level binary-upgrade slots into the type
// relbuilder.Builder actually consumes.
func (c Config) Override() relbuilder.BinaryUpgradeOverride {
	return relbuilder.BinaryUpgradeOverride{
		NextHeapID:  types.RelationID(c.BinaryUpgrade.NextHeapID),
		NextToastID: types.RelationID(c.BinaryUpgrade.NextToastID),
	}
}

// Load reads and parses a relcore config file, applying defaults for any
// zero-valued field that must not stay zero.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Metrics == (MetricsConfig{}) {
		// No metrics block, or one that sets only "enabled: false": both
		// decode to the zero value and are indistinguishable on a bare bool,
		// so both default to on.
		cfg.Metrics = MetricsConfig{Listen: ":9187", Enabled: true}
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9187"
	}

	return cfg, nil
}
