package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statecraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: 7
api_port: 9000
month_interval: 2s
log_level: debug
player: France
`), 0o644))

	t.Setenv("STATECRAFT_PORT", "9100")
	t.Setenv("STATECRAFT_METRICS", "false")
	t.Setenv("STATECRAFT_SEED", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 9100, cfg.APIPort)
	assert.Equal(t, 2*time.Second, cfg.MonthInterval)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "France", cfg.Player)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 60, cfg.HistoryCap)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.APIPort = 70000 }},
		{"interval", func(c *Config) { c.MonthInterval = 0 }},
		{"history", func(c *Config) { c.HistoryCap = 0 }},
		{"player", func(c *Config) { c.Player = "" }},
		{"level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
