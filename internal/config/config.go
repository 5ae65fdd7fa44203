// Package config loads userstats settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/userstats/internal/derive"
	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store"
)

// DefaultProgramID is the program identity used when none is configured.
const DefaultProgramID = "7AwuU7HNHrE2GgS4tRdZLdnJmG4Pz5HjgDkd7fDVtoLK"

// Config holds runtime settings. CLI flags override these values.
type Config struct {
	ProgramID   string `env:"USERSTATS_PROGRAM_ID" envDefault:"7AwuU7HNHrE2GgS4tRdZLdnJmG4Pz5HjgDkd7fDVtoLK"`
	Namespace   string `env:"USERSTATS_NAMESPACE" envDefault:"user-stats"`
	Backend     string `env:"USERSTATS_BACKEND" envDefault:"sqlite"`
	DSN         string `env:"USERSTATS_DSN" envDefault:"userstats.db"`
	LogLevel    string `env:"USERSTATS_LOG_LEVEL" envDefault:"info"`
	DeriveCache int    `env:"USERSTATS_DERIVE_CACHE" envDefault:"1024"`
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := c.Program(); err != nil {
		return err
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if len(c.Namespace) > derive.MaxSeedLen {
		return fmt.Errorf("namespace %q exceeds %d bytes", c.Namespace, derive.MaxSeedLen)
	}
	if !slices.Contains(store.Backends, c.Backend) {
		return fmt.Errorf("invalid backend %q: must be one of %v", c.Backend, store.Backends)
	}
	if c.Backend != store.BackendMemory && strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("dsn is required for backend %q", c.Backend)
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.DeriveCache < 0 {
		return fmt.Errorf("derive cache size must be non-negative, got %d", c.DeriveCache)
	}
	return nil
}

// Program parses ProgramID.
func (c Config) Program() (ir.Identity, error) {
	id, err := ir.ParseIdentity(c.ProgramID)
	if err != nil {
		return ir.Identity{}, fmt.Errorf("invalid program id: %w", err)
	}
	return id, nil
}

// Level returns the configured slog level, defaulting to info.
func (c Config) Level() slog.Level {
	if l, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return slog.LevelInfo
}

// Deriver builds the address deriver for the configured namespace and
// program, wrapped in an LRU cache when DeriveCache > 0.
func (c Config) Deriver() (derive.Deriver, error) {
	program, err := c.Program()
	if err != nil {
		return nil, err
	}
	var d derive.Deriver = derive.NewPDA(c.Namespace, program)
	if c.DeriveCache > 0 {
		cached, err := derive.NewCached(d, c.DeriveCache)
		if err != nil {
			return nil, err
		}
		d = cached
	}
	return d, nil
}
