package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recordings/internal/journal"
	"github.com/roach88/recordings/internal/tree"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Name  string
	Force bool
}

// InitResult is the output of init.
type InitResult struct {
	Document string `json:"document"`
	Root     string `json:"root"`
	Name     string `json:"name"`
	Snapshot string `json:"snapshot"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init <doc>",
		Short: "Create an empty library document",
		Long: `Create a document holding a single empty root folder and record its
first snapshot in the journal.

Example:
  recordings init library.json --name Library
  recordings init library.json --db ./recordings.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "Library", "name of the root folder")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing document")

	return cmd
}

func runInit(ctx context.Context, opts *InitOptions, docPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !opts.Force {
		if _, err := os.Stat(docPath); err == nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("%s already exists (use --force to overwrite)", docPath))
		}
	}

	root := tree.NewFolder(opts.Name, opts.idGenerator().Generate())
	if err := writeDocument(docPath, root); err != nil {
		return err
	}

	cfg := opts.settings()
	j, err := journal.Open(cfg.Database.Path, opts.log())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	lastSeq, err := j.LastSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	digest, _, err := j.WriteSnapshot(ctx, root, lastSeq)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write snapshot", err)
	}
	opts.log().Info("document created", "document", docPath, "root", root.ID())

	result := InitResult{
		Document: docPath,
		Root:     root.ID().String(),
		Name:     root.Name(),
		Snapshot: digest,
	}
	return opts.formatter(cmd).Success(
		fmt.Sprintf("Created %s with root %q (%s)", docPath, root.Name(), root.ID()),
		result)
}
