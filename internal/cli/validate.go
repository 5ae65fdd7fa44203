package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/userstats/internal/harness"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                  `json:"valid"`
	Files  int                   `json:"files"`
	Errors []harness.SchemaError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir>",
		Short: "Validate scenario files without running them",
		Long: `Check every scenario file against the scenario schema.

Files that pass the schema are also loaded, which catches cross-field
errors such as a step with both name and name_length.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	files, err := harness.FindScenarios(scenariosDir, "")
	if err != nil {
		var notFound *harness.DirNotFoundError
		if errors.As(err, &notFound) {
			return outputValidateError(formatter, ErrCodeInvalidArgument, notFound.Error(), nil)
		}
		return outputValidateError(formatter, ErrCodeInvalidArgument, err.Error(), nil)
	}
	if len(files) == 0 {
		return outputValidateError(formatter, ErrCodeInvalidArgument,
			fmt.Sprintf("no scenario files found in %s", scenariosDir), nil)
	}

	formatter.VerboseLog("Found %d scenario file(s) in %s", len(files), scenariosDir)

	schema, err := harness.NewSchema()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario schema", err)
	}

	var validationErrors []harness.SchemaError
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		if errs := schema.ValidateFile(file); len(errs) > 0 {
			validationErrors = append(validationErrors, errs...)
			continue
		}
		if _, err := harness.LoadScenario(file); err != nil {
			validationErrors = append(validationErrors, harness.SchemaError{
				File:    file,
				Message: err.Error(),
			})
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(files), validationErrors)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: len(files)})
	}
	fmt.Fprintf(formatter.Writer, "✓ All %d scenario file(s) valid\n", len(files))
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs schema failures. Failures exit with code 1.
func outputValidationErrors(formatter *OutputFormatter, files int, errs []harness.SchemaError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Files:  files,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    ErrCodeInvalidScenario,
				Message: errs[0].Error(),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
	}

	return failure
}
