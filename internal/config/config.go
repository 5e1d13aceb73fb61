// Package config loads runtime settings from a YAML file, then applies
// CUTTHROAT_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/talgya/cutthroat/internal/agents"
)

// Config is the full runtime configuration.
type Config struct {
	Seed         int64         `yaml:"seed" env:"CUTTHROAT_SEED"`
	Population   int           `yaml:"population" env:"CUTTHROAT_POPULATION"`
	DBPath       string        `yaml:"db_path" env:"CUTTHROAT_DB_PATH"`
	APIAddr      string        `yaml:"api_addr" env:"CUTTHROAT_API_ADDR"`
	AdminKey     string        `yaml:"admin_key" env:"CUTTHROAT_ADMIN_KEY"`
	Workers      int           `yaml:"workers" env:"CUTTHROAT_WORKERS"`
	TickInterval time.Duration `yaml:"tick_interval" env:"CUTTHROAT_TICK_INTERVAL"`
	LogLevel     string        `yaml:"log_level" env:"CUTTHROAT_LOG_LEVEL"`

	Memory  Memory  `yaml:"memory"`
	Gazette Gazette `yaml:"gazette"`
}

// Memory mirrors agents.MemoryConfig.
type Memory struct {
	RetentionHorizon uint64  `yaml:"retention_horizon" env:"CUTTHROAT_MEMORY_RETENTION"`
	FavorHalfLife    float64 `yaml:"favor_half_life" env:"CUTTHROAT_MEMORY_FAVOR_HALF_LIFE"`
	GrudgeHalfLife   float64 `yaml:"grudge_half_life" env:"CUTTHROAT_MEMORY_GRUDGE_HALF_LIFE"`
	MaxEvents        int     `yaml:"max_events" env:"CUTTHROAT_MEMORY_MAX_EVENTS"`
}

// Gazette configures the daily paper's narrator. No key means template
// editions only.
type Gazette struct {
	OpenAIKey string `yaml:"openai_key" env:"OPENAI_API_KEY"`
	BaseURL   string `yaml:"base_url" env:"CUTTHROAT_OPENAI_BASE_URL"`
	Model     string `yaml:"model" env:"CUTTHROAT_OPENAI_MODEL"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	m := agents.DefaultMemoryConfig()
	return Config{
		Seed:         42,
		Population:   60,
		DBPath:       "data/cutthroat.db",
		APIAddr:      ":8080",
		TickInterval: 2 * time.Second,
		LogLevel:     "info",
		Memory: Memory{
			RetentionHorizon: m.RetentionHorizon,
			FavorHalfLife:    m.FavorHalfLife,
			GrudgeHalfLife:   m.GrudgeHalfLife,
			MaxEvents:        m.MaxEvents,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Population < 0:
		return fmt.Errorf("population must not be negative, got %d", c.Population)
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// MemoryConfig converts the memory section for the agents package.
func (c Config) MemoryConfig() agents.MemoryConfig {
	return agents.MemoryConfig{
		RetentionHorizon: c.Memory.RetentionHorizon,
		FavorHalfLife:    c.Memory.FavorHalfLife,
		GrudgeHalfLife:   c.Memory.GrudgeHalfLife,
		MaxEvents:        c.Memory.MaxEvents,
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
