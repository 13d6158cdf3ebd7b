// Package config assembles runtime settings: defaults, then an optional YAML
// file, then STATECRAFT_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is everything the statecraft command needs to start a session.
type Config struct {
	Seed           int64         `yaml:"seed"`      // 0 draws from crypto/rand
	DataPath       string        `yaml:"data_path"` // Empty uses the built-in scenario
	DBPath         string        `yaml:"db_path"`
	APIPort        int           `yaml:"api_port"`
	AdminKey       string        `yaml:"admin_key"`
	MonthInterval  time.Duration `yaml:"month_interval"`
	LogLevel       string        `yaml:"log_level"`
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	HistoryCap     int           `yaml:"history_cap"`
	Player         string        `yaml:"player"`
	AutosaveEvery  int           `yaml:"autosave_every"` // Months between saves
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Seed:           42,
		DBPath:         "data/statecraft.db",
		APIPort:        8080,
		MonthInterval:  10 * time.Second,
		LogLevel:       "info",
		MetricsEnabled: true,
		HistoryCap:     60,
		Player:         "United Kingdom",
		AutosaveEvery:  1,
	}
}

// Load builds a config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Seed = int64(envIntOrDefault("STATECRAFT_SEED", int(c.Seed)))
	c.DataPath = envOrDefault("STATECRAFT_DATA", c.DataPath)
	c.DBPath = envOrDefault("STATECRAFT_DB", c.DBPath)
	c.APIPort = envIntOrDefault("STATECRAFT_PORT", c.APIPort)
	c.AdminKey = envOrDefault("STATECRAFT_ADMIN_KEY", c.AdminKey)
	c.LogLevel = envOrDefault("STATECRAFT_LOG_LEVEL", c.LogLevel)
	c.HistoryCap = envIntOrDefault("STATECRAFT_HISTORY_CAP", c.HistoryCap)
	c.Player = envOrDefault("STATECRAFT_PLAYER", c.Player)
	c.AutosaveEvery = envIntOrDefault("STATECRAFT_AUTOSAVE_EVERY", c.AutosaveEvery)
	if v := os.Getenv("STATECRAFT_MONTH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MonthInterval = d
		}
	}
	if v := os.Getenv("STATECRAFT_METRICS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MetricsEnabled = b
		}
	}
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	switch {
	case c.APIPort < 0 || c.APIPort > 65535:
		return fmt.Errorf("config: api port %d out of range", c.APIPort)
	case c.MonthInterval <= 0:
		return fmt.Errorf("config: month interval must be positive")
	case c.HistoryCap <= 0:
		return fmt.Errorf("config: history cap must be positive")
	case c.Player == "":
		return fmt.Errorf("config: player country is required")
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// SlogLevel returns the configured log level, info when unknown.
func (c Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
