// Package config loads the TOML configuration that parameterizes
// cmd/plotbench: pool sizing, admission limits, and the synthetic sector
// shape to plot.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the on-disk shape of a plotbench run.
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Sectors SectorsConfig `toml:"sectors"`
}

// EngineConfig parameterizes Plotter construction.
type EngineConfig struct {
	ThreadPoolPairs              int   `toml:"thread_pool_pairs"`
	RecordEncodingConcurrency    int   `toml:"record_encoding_concurrency"`
	DownloadingSemaphoreCapacity int64 `toml:"downloading_semaphore_capacity"`
}

// SectorsConfig parameterizes the synthetic sectors a benchmark run
// plots.
type SectorsConfig struct {
	Count           int    `toml:"count"`
	PiecesPerSector uint16 `toml:"pieces_per_sector"`
	PieceSizeBytes  int    `toml:"piece_size_bytes"`
	PieceCacheSize  int    `toml:"piece_cache_size"`
}

// Default returns a small, self-consistent configuration suitable for a
// quick local run.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			ThreadPoolPairs:              2,
			RecordEncodingConcurrency:    4,
			DownloadingSemaphoreCapacity: 4,
		},
		Sectors: SectorsConfig{
			Count:           8,
			PiecesPerSector: 32,
			PieceSizeBytes:  4096,
			PieceCacheSize:  1024,
		},
	}
}

// Load reads and parses a TOML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects a configuration that would make the engine unusable.
func (c Config) Validate() error {
	if c.Engine.ThreadPoolPairs <= 0 {
		return fmt.Errorf("config: engine.thread_pool_pairs must be nonzero")
	}
	if c.Engine.RecordEncodingConcurrency <= 0 {
		return fmt.Errorf("config: engine.record_encoding_concurrency must be nonzero")
	}
	if c.Engine.DownloadingSemaphoreCapacity <= 0 {
		return fmt.Errorf("config: engine.downloading_semaphore_capacity must be nonzero")
	}
	if c.Sectors.Count <= 0 {
		return fmt.Errorf("config: sectors.count must be nonzero")
	}
	if c.Sectors.PiecesPerSector == 0 {
		return fmt.Errorf("config: sectors.pieces_per_sector must be nonzero")
	}
	if c.Sectors.PieceSizeBytes <= 0 {
		return fmt.Errorf("config: sectors.piece_size_bytes must be nonzero")
	}
	return nil
}
