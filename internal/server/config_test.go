package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Game.NextRoundDelay())
	assert.Zero(t, cfg.Game.DealInterval())
	assert.Equal(t, "memory", cfg.Stats.Backend)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "lantern.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
server {
  addr      = "127.0.0.1:9000"
  log_level = "debug"
}

game {
  deal_interval_ms     = 150
  default_turn_seconds = 45
}

stats {
  backend = "file"
  file    = "/tmp/lantern.json"
}
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 150*time.Millisecond, cfg.Game.DealInterval())
	assert.Equal(t, 45, cfg.Game.DefaultTurnSeconds)
	assert.Equal(t, DefaultMaxPoints, cfg.Game.DefaultMaxPoints)
	assert.Equal(t, "file", cfg.Stats.Backend)
	assert.Equal(t, "/tmp/lantern.json", cfg.Stats.File)
	assert.Equal(t, DefaultRedisAddr, cfg.Stats.RedisAddr)
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "lantern.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`server { addr = `), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Server.LogLevel = "loud" }},
		{"deal interval", func(c *Config) { c.Game.DealIntervalMS = -1 }},
		{"next round delay", func(c *Config) { c.Game.NextRoundDelayMS = -5 }},
		{"max points", func(c *Config) { c.Game.DefaultMaxPoints = -1 }},
		{"turn seconds", func(c *Config) { c.Game.DefaultTurnSeconds = -1 }},
		{"stats backend", func(c *Config) { c.Stats.Backend = "postgres" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
