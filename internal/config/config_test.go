package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plotbench.toml")
	toml := `
[engine]
thread_pool_pairs = 4
record_encoding_concurrency = 8
downloading_semaphore_capacity = 4

[sectors]
count = 100
pieces_per_sector = 64
piece_size_bytes = 8192
piece_cache_size = 2048
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Engine.ThreadPoolPairs)
	require.Equal(t, 100, cfg.Sectors.Count)
	require.EqualValues(t, 64, cfg.Sectors.PiecesPerSector)
}

func TestLoad_RejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidate_RejectsZeroFields(t *testing.T) {
	cfg := Default()
	cfg.Engine.ThreadPoolPairs = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Sectors.PiecesPerSector = 0
	require.Error(t, cfg.Validate())
}
