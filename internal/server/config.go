package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

const (
	DefaultAddr             = ":8080"
	DefaultLogLevel         = "info"
	DefaultNextRoundDelayMS = 10000
	DefaultMaxPoints        = 100
	DefaultTurnSeconds      = 30
	DefaultStatsBackend     = "memory"
	DefaultStatsFile        = "lantern-stats.json"
	DefaultRedisAddr        = "localhost:6379"
)

// Config represents the complete server configuration
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
	Stats  *StatsSettings  `hcl:"stats,block"`
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Addr     string `hcl:"addr,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains game pacing and room defaults
type GameSettings struct {
	DealIntervalMS     int `hcl:"deal_interval_ms,optional"`
	NextRoundDelayMS   int `hcl:"next_round_delay_ms,optional"`
	DefaultMaxPoints   int `hcl:"default_max_points,optional"`
	DefaultTurnSeconds int `hcl:"default_turn_seconds,optional"`

	// AllowDeveloperRooms lets clients open rooms with the deck tools on.
	AllowDeveloperRooms bool `hcl:"allow_developer_rooms,optional"`
}

// StatsSettings selects where player statistics are kept
type StatsSettings struct {
	Backend   string `hcl:"backend,optional"`
	File      string `hcl:"file,optional"`
	RedisAddr string `hcl:"redis_addr,optional"`
}

// DealInterval is the pause between dealt cards; zero deals at once.
func (g GameSettings) DealInterval() time.Duration {
	return time.Duration(g.DealIntervalMS) * time.Millisecond
}

// NextRoundDelay is the pause between round results and the next deal.
func (g GameSettings) NextRoundDelay() time.Duration {
	return time.Duration(g.NextRoundDelayMS) * time.Millisecond
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Game == nil {
		c.Game = &GameSettings{}
	}
	if c.Stats == nil {
		c.Stats = &StatsSettings{}
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}
	if c.Game.NextRoundDelayMS == 0 {
		c.Game.NextRoundDelayMS = DefaultNextRoundDelayMS
	}
	if c.Game.DefaultMaxPoints == 0 {
		c.Game.DefaultMaxPoints = DefaultMaxPoints
	}
	if c.Game.DefaultTurnSeconds == 0 {
		c.Game.DefaultTurnSeconds = DefaultTurnSeconds
	}
	if c.Stats.Backend == "" {
		c.Stats.Backend = DefaultStatsBackend
	}
	if c.Stats.File == "" {
		c.Stats.File = DefaultStatsFile
	}
	if c.Stats.RedisAddr == "" {
		c.Stats.RedisAddr = DefaultRedisAddr
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if c.Game.DealIntervalMS < 0 {
		return fmt.Errorf("deal interval must not be negative")
	}
	if c.Game.NextRoundDelayMS < 0 {
		return fmt.Errorf("next round delay must not be negative")
	}
	if c.Game.DefaultMaxPoints <= 0 {
		return fmt.Errorf("default max points must be positive")
	}
	if c.Game.DefaultTurnSeconds < 0 {
		return fmt.Errorf("default turn seconds must not be negative")
	}

	switch c.Stats.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("invalid stats backend: %s", c.Stats.Backend)
	}
	return nil
}
