package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkobilansky/abkit/internal/config"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ExperimentConfig().Validate())

	r := cfg.MDERange()
	assert.Len(t, r, 100)
	assert.Equal(t, 0.01, r[0])
	assert.Equal(t, 0.20, r[len(r)-1])
	assert.Equal(t, 90, cfg.Display.MaxDurationDays)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abkit.yaml")
	err := os.WriteFile(path, []byte(`
defaults:
  alpha: 0.1
  daily_visitors: 5000
curve:
  mde_min: 0.02
  mde_max: 0.3
  mde_steps: 15
  traffic_splits: [0.25, 0.5]
`), 0644)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.1, cfg.Defaults.Alpha)
	assert.Equal(t, 5000, cfg.Defaults.DailyVisitors)
	assert.Equal(t, 0.8, cfg.Defaults.Power, "unset fields keep their defaults")
	assert.Equal(t, []float64{0.25, 0.5}, cfg.Curve.TrafficSplits)
	assert.Len(t, cfg.MDERange(), 15)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"alpha":       "defaults:\n  alpha: 1.5\n",
		"split":       "curve:\n  traffic_splits: [0.6]\n",
		"mde range":   "curve:\n  mde_min: 0.2\n  mde_max: 0.1\n",
		"display cap": "display:\n  max_duration_days: 0\n",
		"bad yaml":    "defaults: [\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "abkit.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))

			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "abkit.yaml")
	require.NoError(t, config.WriteDefault(path))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	assert.Error(t, config.WriteDefault(path), "existing file must not be overwritten")
}
