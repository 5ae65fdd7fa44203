package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/userstats/internal/derive"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Config{
		ProgramID:   DefaultProgramID,
		Namespace:   "user-stats",
		Backend:     "sqlite",
		DSN:         "userstats.db",
		LogLevel:    "info",
		DeriveCache: 1024,
	}, cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("USERSTATS_BACKEND", "bolt")
	t.Setenv("USERSTATS_DSN", "/tmp/x.bolt")
	t.Setenv("USERSTATS_LOG_LEVEL", "DEBUG")
	t.Setenv("USERSTATS_DERIVE_CACHE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Backend)
	assert.Equal(t, "/tmp/x.bolt", cfg.DSN)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 0, cfg.DeriveCache)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("USERSTATS_DERIVE_CACHE", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ProgramID: DefaultProgramID,
			Namespace: "user-stats",
			Backend:   "memory",
			LogLevel:  "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad program", func(c *Config) { c.ProgramID = "0OIl" }, "invalid program id"},
		{"empty namespace", func(c *Config) { c.Namespace = "" }, "namespace is required"},
		{"long namespace", func(c *Config) { c.Namespace = "this-namespace-is-longer-than-32-bytes" }, "exceeds 32 bytes"},
		{"bad backend", func(c *Config) { c.Backend = "mysql" }, `invalid backend "mysql"`},
		{"missing dsn", func(c *Config) { c.Backend = "sqlite"; c.DSN = " " }, "dsn is required"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, `invalid log level "trace"`},
		{"negative cache", func(c *Config) { c.DeriveCache = -1 }, "must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLevelFallback(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "nonsense"}.Level())
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "warn"}.Level())
}

func TestDeriver(t *testing.T) {
	cfg := Config{ProgramID: DefaultProgramID, Namespace: "user-stats", DeriveCache: 8}
	d, err := cfg.Deriver()
	require.NoError(t, err)
	assert.IsType(t, &derive.Cached{}, d)

	cfg.DeriveCache = 0
	d, err = cfg.Deriver()
	require.NoError(t, err)
	assert.IsType(t, &derive.PDA{}, d)

	cfg.ProgramID = "bad!"
	_, err = cfg.Deriver()
	assert.Error(t, err)
}
