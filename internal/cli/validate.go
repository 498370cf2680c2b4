package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recordings/internal/schema"
	"github.com/roach88/recordings/internal/tree"
)

// ValidateResult holds the validation outcome.
type ValidateResult struct {
	Valid      bool               `json:"valid"`
	Violations []schema.Violation `json:"violations"`
	Loaded     int                `json:"loaded"`
	Skipped    int                `json:"skipped"`
	Duplicates int                `json:"duplicates"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <doc>",
		Short: "Check a document against the node schema",
		Long: `Validate a document strictly against the node schema, then load it the
lenient way and report what a load would skip.

A document is valid when it has no schema violations and a load keeps every
record.

Exit codes:
  0 - Document is valid
  1 - Schema violations or skipped records
  2 - Command error (unreadable or unparsable file)

Example:
  recordings validate library.json
  recordings validate library.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, docPath string, cmd *cobra.Command) error {
	data, err := os.ReadFile(docPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read document", err)
	}

	validator, err := schema.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to compile schema", err)
	}
	violations, err := validator.Validate(docPath, data)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse document", err)
	}

	var record any
	if err := json.Unmarshal(data, &record); err != nil {
		return WrapExitError(ExitCommandError, "failed to parse document", err)
	}
	root, report := tree.LoadWithReport(record)
	if root == nil {
		violations = append(violations, schema.Violation{Path: "(root)", Message: tree.ErrMalformed.Error()})
	} else if _, ok := root.(*tree.Folder); !ok {
		violations = append(violations, schema.Violation{Path: "(root)", Message: tree.ErrNotFolder.Error()})
	}

	result := ValidateResult{
		Violations: violations,
		Loaded:     report.Loaded,
		Skipped:    report.Skipped,
		Duplicates: report.Duplicates,
	}
	if result.Violations == nil {
		result.Violations = []schema.Violation{}
	}
	result.Valid = len(violations) == 0 && report.Skipped == 0

	out := opts.formatter(cmd)
	if err := out.Success(validateText(docPath, result), result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%s is not valid", docPath))
	}
	return nil
}

func validateText(docPath string, r ValidateResult) string {
	var b strings.Builder
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "  %s\n", v.Error())
	}
	if r.Skipped > 0 {
		fmt.Fprintf(&b, "  load skips %d record(s), %d duplicate(s)\n", r.Skipped, r.Duplicates)
	}
	if r.Valid {
		return fmt.Sprintf("✓ %s: %d item(s)", docPath, r.Loaded)
	}
	return fmt.Sprintf("✗ %s\n%s", docPath, strings.TrimSuffix(b.String(), "\n"))
}
