package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/userstats/internal/engine"
	"github.com/roach88/userstats/internal/ir"
)

// DeriveResult is the output of the derive command.
type DeriveResult struct {
	Owner   string `json:"owner"`
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
	Program string `json:"program"`
}

// Text renders the derivation for text output.
func (r DeriveResult) Text() string {
	return fmt.Sprintf("address: %s\nbump: %d", r.Address, r.Bump)
}

// RecordResult is the output of the create, rename and fetch commands.
type RecordResult struct {
	Op      string `json:"op"`
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Name    string `json:"name"`
}

// Text renders the record for text output.
func (r RecordResult) Text() string {
	var b strings.Builder
	switch engine.Op(r.Op) {
	case engine.OpCreate:
		fmt.Fprintf(&b, "✓ created %s\n", r.Address)
	case engine.OpRename:
		fmt.Fprintf(&b, "✓ renamed %s\n", r.Address)
	default:
		fmt.Fprintf(&b, "address: %s\n", r.Address)
	}
	fmt.Fprintf(&b, "owner: %s\nname: %s", r.Owner, r.Name)
	return b.String()
}

func newRecordResult(op engine.Op, addr ir.Address, rec ir.UserStats) RecordResult {
	return RecordResult{
		Op:      string(op),
		Address: addr.String(),
		Owner:   rec.Owner.String(),
		Name:    rec.Name,
	}
}

// NewDeriveCommand creates the derive command.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "derive <owner>",
		Short: "Print the record address for an owner",
		Long: `Derive the address of the owner's UserStats record.

The address depends only on the configured program and the owner identity.
No storage is opened.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			cfg, err := resolveConfig(rootOpts)
			if err != nil {
				formatter.Error(ErrCodeInvalidConfig, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			owner, err := parseIdentity(formatter, "owner", args[0])
			if err != nil {
				return err
			}
			deriver, err := cfg.Deriver()
			if err != nil {
				formatter.Error(ErrCodeInvalidConfig, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}

			d, err := engine.Derive(deriver, owner)
			if err != nil {
				return reportEngineError(formatter, "derive", err)
			}

			return formatter.Success(DeriveResult{
				Owner:   owner.String(),
				Address: d.Address.String(),
				Bump:    d.Bump,
				Program: cfg.ProgramID,
			})
		},
	}
}

// writeOptions holds flags for create and rename.
type writeOptions struct {
	*RootOptions
	Address string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &writeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <owner> <name>",
		Short: "Create the owner's UserStats record",
		Long: `Create the UserStats record for <owner> with the given name.

The owner argument is the calling wallet. The record is written at the
owner's derived address unless --address supplies one; a supplied address
that is not the owner's is rejected with AddressMismatch.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, opts, engine.OpCreate, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Address, "address", "", "record address (default: derived from owner)")

	return cmd
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &writeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rename <owner> <new-name>",
		Short: "Change the name on the owner's UserStats record",
		Long: `Replace the name on an existing UserStats record.

Only the record's owner may rename it. --address targets another record,
which fails with AddressMismatch unless it is the owner's own.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, opts, engine.OpRename, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Address, "address", "", "record address (default: derived from owner)")

	return cmd
}

func runWrite(cmd *cobra.Command, opts *writeOptions, op engine.Op, ownerArg, name string) error {
	formatter := opts.formatter(cmd)

	owner, err := parseIdentity(formatter, "owner", ownerArg)
	if err != nil {
		return err
	}
	var supplied ir.Address
	if opts.Address != "" {
		if supplied, err = parseAddress(formatter, "address", opts.Address); err != nil {
			return err
		}
	}

	rt, err := openRuntime(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeRuntime(cmd, rt, opts.Verbose)

	if opts.Address == "" {
		d, err := rt.Engine.DeriveAddress(owner)
		if err != nil {
			return reportEngineError(formatter, string(op), err)
		}
		supplied = d.Address
	}

	ctx := commandContext(cmd)
	switch op {
	case engine.OpCreate:
		err = rt.Engine.CreateUserStats(ctx, owner, supplied, name)
	case engine.OpRename:
		err = rt.Engine.ChangeUserName(ctx, owner, supplied, name)
	default:
		return fmt.Errorf("unsupported operation %q", op)
	}
	if err != nil {
		return reportEngineError(formatter, string(op), err)
	}

	return formatter.Success(newRecordResult(op, supplied, ir.UserStats{Owner: owner, Name: name}))
}

// fetchOptions holds flags for the fetch command.
type fetchOptions struct {
	*RootOptions
	Owner string
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &fetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch [address]",
		Short: "Show a UserStats record",
		Long: `Show the record stored at an address, or with --owner the record
stored at the owner's derived address. Reads require no authorization.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "fetch the record owned by this identity")

	return cmd
}

func runFetch(cmd *cobra.Command, opts *fetchOptions, args []string) error {
	formatter := opts.formatter(cmd)

	if (len(args) == 1) == (opts.Owner != "") {
		formatter.Error(ErrCodeInvalidArgument, "exactly one of <address> or --owner is required", nil)
		return NewExitError(ExitCommandError, "exactly one of <address> or --owner is required")
	}

	var (
		addr  ir.Address
		owner ir.Identity
		err   error
	)
	if opts.Owner != "" {
		if owner, err = parseIdentity(formatter, "owner", opts.Owner); err != nil {
			return err
		}
	} else {
		if addr, err = parseAddress(formatter, "address", args[0]); err != nil {
			return err
		}
	}

	rt, err := openRuntime(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeRuntime(cmd, rt, opts.Verbose)

	ctx := commandContext(cmd)
	var rec ir.UserStats
	if opts.Owner != "" {
		rec, addr, err = rt.Engine.FetchOwner(ctx, owner)
	} else {
		rec, err = rt.Engine.Fetch(ctx, addr)
	}
	if err != nil {
		return reportEngineError(formatter, string(engine.OpFetch), err)
	}

	return formatter.Success(newRecordResult(engine.OpFetch, addr, rec))
}

func closeRuntime(cmd *cobra.Command, rt *Runtime, verbose bool) {
	if err := rt.Close(cmd.ErrOrStderr(), verbose); err != nil {
		rt.Logger.Warn("close runtime", "error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
