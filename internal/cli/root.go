package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/userstats/internal/ir"
)

// RootOptions holds global flags for all commands.
// Empty Backend, DSN and Program fall back to the USERSTATS_* environment.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Backend string
	DSN     string
	Program string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the userstats CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "userstats",
		Version: ir.EngineVersion,
		Short:   "userstats - ownership-gated user records",
		Long: `Create, rename and fetch UserStats records.

Each wallet identity owns at most one record, stored at an address derived
from the identity. Only the owner can create or rename its record.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend (memory|sqlite|bolt|postgres), default $USERSTATS_BACKEND")
	cmd.PersistentFlags().StringVar(&opts.DSN, "db", "", "database path or DSN, default $USERSTATS_DSN")
	cmd.PersistentFlags().StringVar(&opts.Program, "program", "", "program identity (base58), default $USERSTATS_PROGRAM_ID")

	cmd.AddCommand(NewDeriveCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// newLogger builds the text logger on w.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// logLevel returns debug under --verbose, configured otherwise.
func logLevel(verbose bool, configured slog.Level) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return configured
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
