package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
snapshot_file: pool.json
app_id: 7
assets:
  - id: 200
    name: Coin A
    unit_name: CNA
    decimals: 6
  - id: 100
    name: Coin B
    unit_name: CNB
    decimals: 6
`

func TestLoadConfig(t *testing.T) {
	t.Run("valid file with defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validConfig))
		require.NoError(t, err)

		assert.Equal(t, "pool.json", cfg.SnapshotFile)
		assert.Equal(t, uint64(7), cfg.AppID)
		assert.Equal(t, DefaultSlippage, cfg.DefaultSlippage)
		assert.Equal(t, DefaultRefreshRetries, cfg.RefreshRetries)
		assert.Equal(t, DefaultRefreshDelayMs, cfg.RefreshDelayMs)
		require.Len(t, cfg.Assets, 2)
		assert.Equal(t, uint64(200), cfg.Assets[0].ID)
		assert.Equal(t, "CNB", cfg.Assets[1].UnitName)
	})

	t.Run("explicit values override defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validConfig+`
default_slippage: 0.01
refresh_retries: 5
`))
		require.NoError(t, err)
		assert.Equal(t, 0.01, cfg.DefaultSlippage)
		assert.Equal(t, 5, cfg.RefreshRetries)
	})

	t.Run("missing snapshot file", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `
app_id: 7
assets:
  - id: 200
    name: Coin A
  - id: 100
    name: Coin B
`))
		assert.ErrorContains(t, err, "snapshot_file")
	})

	t.Run("fewer than two assets", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `
snapshot_file: pool.json
assets:
  - id: 200
    name: Coin A
`))
		assert.ErrorContains(t, err, "two assets")
	})

	t.Run("duplicate asset ids", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `
snapshot_file: pool.json
assets:
  - id: 200
    name: Coin A
  - id: 200
    name: Coin B
`))
		assert.ErrorContains(t, err, "duplicate asset id")
	})

	t.Run("slippage out of range", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, validConfig+`
default_slippage: 1.5
`))
		assert.ErrorContains(t, err, "default_slippage")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
