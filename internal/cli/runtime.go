package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/userstats/internal/config"
	"github.com/roach88/userstats/internal/engine"
	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store"
	"github.com/roach88/userstats/internal/store/bolt"
	"github.com/roach88/userstats/internal/store/memory"
	"github.com/roach88/userstats/internal/store/postgres"
	"github.com/roach88/userstats/internal/store/sqlite"
)

// Runtime is the host side of one CLI invocation: configuration, an open
// store and an engine over it with a private metrics registry.
type Runtime struct {
	Config   config.Config
	Store    store.Store
	Engine   *engine.Engine
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// resolveConfig loads the environment and applies flag overrides.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.DSN != "" {
		cfg.DSN = opts.DSN
	}
	if opts.Program != "" {
		cfg.ProgramID = opts.Program
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openRuntime resolves configuration and opens the configured backend.
// Failures are ExitErrors with code ExitCommandError; the formatter has
// already reported them.
func openRuntime(cmd *cobra.Command, opts *RootOptions) (*Runtime, error) {
	formatter := opts.formatter(cmd)

	cfg, err := resolveConfig(opts)
	if err != nil {
		formatter.Error(ErrCodeInvalidConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), logLevel(opts.Verbose, cfg.Level()))

	deriver, err := cfg.Deriver()
	if err != nil {
		formatter.Error(ErrCodeInvalidConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	s, err := openStore(commandContext(cmd), cfg, logger)
	if err != nil {
		formatter.Error(ErrCodeStorage, err.Error(), map[string]string{
			"backend": cfg.Backend,
		})
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	reg := prometheus.NewRegistry()
	eng := engine.New(s, deriver,
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)

	logger.Debug("runtime opened",
		"backend", cfg.Backend,
		"program", cfg.ProgramID,
		"namespace", cfg.Namespace)

	return &Runtime{
		Config:   cfg,
		Store:    s,
		Engine:   eng,
		Registry: reg,
		Logger:   logger,
	}, nil
}

// openStore opens the backend named by cfg.Backend.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case store.BackendMemory:
		return memory.New(), nil
	case store.BackendSQLite:
		return sqlite.Open(cfg.DSN)
	case store.BackendBolt:
		return bolt.Open(cfg.DSN, bolt.WithLogger(logger), bolt.WithTimeout(time.Second))
	case store.BackendPostgres:
		return postgres.Open(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

// Close releases the store. Under --verbose the engine metrics are
// written to w in Prometheus text format first.
func (r *Runtime) Close(w io.Writer, verbose bool) error {
	if verbose {
		if err := writeMetrics(w, r.Registry); err != nil {
			r.Logger.Warn("failed to write metrics", "error", err)
		}
	}
	if err := r.Store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// writeMetrics encodes every metric family gathered from g.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

// parseIdentity parses a base58 identity argument, reporting failures as
// command errors.
func parseIdentity(formatter *OutputFormatter, arg, value string) (ir.Identity, error) {
	id, err := ir.ParseIdentity(value)
	if err != nil {
		formatter.Error(ErrCodeInvalidArgument, fmt.Sprintf("invalid %s: %v", arg, err), map[string]string{
			arg: value,
		})
		return ir.Identity{}, WrapExitError(ExitCommandError, "invalid "+arg, err)
	}
	return id, nil
}

// parseAddress parses a base58 address argument, reporting failures as
// command errors.
func parseAddress(formatter *OutputFormatter, arg, value string) (ir.Address, error) {
	addr, err := ir.ParseAddress(value)
	if err != nil {
		formatter.Error(ErrCodeInvalidArgument, fmt.Sprintf("invalid %s: %v", arg, err), map[string]string{
			arg: value,
		})
		return ir.Address{}, WrapExitError(ExitCommandError, "invalid "+arg, err)
	}
	return addr, nil
}

// reportEngineError writes an engine failure with its code and returns
// the matching exit error. Storage faults are command errors; every other
// code is a rejected operation.
func reportEngineError(formatter *OutputFormatter, op string, err error) error {
	code := engine.CodeOf(err)
	if code == "" {
		code = engine.CodeStorageFailure
	}

	var details map[string]string
	var e *engine.Error
	if errors.As(err, &e) && e.Address != (ir.Address{}) {
		details = map[string]string{"address": e.Address.String()}
	}
	formatter.Error(string(code), err.Error(), details)

	exit := ExitFailure
	if code == engine.CodeStorageFailure {
		exit = ExitCommandError
	}
	return WrapExitError(exit, op+" failed", err)
}
