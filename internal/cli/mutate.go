package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordings/internal/tree"
)

// ChangeResult is the output of a mutating command.
type ChangeResult struct {
	Seq      int64          `json:"seq"`
	Reason   string         `json:"reason"`
	Subject  string         `json:"subject"`
	Name     string         `json:"name"`
	Path     []string       `json:"path"`
	Payload  map[string]any `json:"payload"`
	Snapshot string         `json:"snapshot"`
	Dropped  int            `json:"dropped,omitempty"` // malformed records dropped by --repair
}

func newChangeResult(it tree.Item, c tree.Change, digest string) ChangeResult {
	path := make([]string, len(c.Path))
	for i, id := range c.Path {
		path[i] = id.String()
	}
	return ChangeResult{
		Seq:      c.Seq,
		Reason:   string(c.Reason),
		Subject:  c.Subject.String(),
		Name:     it.Name(),
		Path:     path,
		Payload:  c.Payload(),
		Snapshot: digest,
	}
}

// mutate runs fn inside a session on docPath and commits the result. fn
// returns the changed item, its Change and a line of text output.
func mutate(cmd *cobra.Command, opts *RootOptions, docPath string, fn func(s *session) (tree.Item, tree.Change, string, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, opts, docPath)
	if err != nil {
		return err
	}
	defer s.close()

	it, c, text, err := fn(s)
	if err != nil {
		return err
	}
	digest, err := s.commit(ctx)
	if err != nil {
		return err
	}
	opts.log().Info("document changed", "document", docPath, "change", c.String())

	result := newChangeResult(it, c, digest)
	if result.Dropped = s.report.Skipped; result.Dropped > 0 {
		text += fmt.Sprintf("\nDropped %d malformed record(s)", result.Dropped)
	}
	return opts.formatter(cmd).Success(text, result)
}

func addRepairFlag(cmd *cobra.Command, opts *RootOptions) {
	cmd.Flags().BoolVar(&opts.Repair, "repair", false, "drop malformed or duplicate records instead of refusing to change the document")
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Folder bool
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <doc> <parent-id> <name>",
		Short: "Add a recording or folder",
		Long: `Add a new recording (or folder with --folder) to the folder identified by
parent-id. The child is inserted at its collation position and the added
change is journaled.

Example:
  recordings add library.json 0190c9d2-... "Take 3"
  recordings add library.json 0190c9d2-... Sessions --folder`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, opts.RootOptions, args[0], func(s *session) (tree.Item, tree.Change, string, error) {
				return runAdd(s, opts, args[1], args[2])
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Folder, "folder", false, "create a folder instead of a recording")
	addRepairFlag(cmd, rootOpts)

	return cmd
}

func runAdd(s *session, opts *AddOptions, parentArg, name string) (tree.Item, tree.Change, string, error) {
	target, err := s.lookup(parentArg)
	if err != nil {
		return nil, tree.Change{}, "", err
	}
	parent, ok := target.(*tree.Folder)
	if !ok {
		return nil, tree.Change{}, "", WrapExitError(ExitCommandError,
			fmt.Sprintf("cannot add to %s", target.ID()), tree.ErrNotFolder)
	}

	var it tree.Item
	if opts.Folder {
		it = s.store.NewFolder(name)
	} else {
		it = s.store.NewRecording(name)
	}
	c, _ := parent.Add(it)
	return it, c, fmt.Sprintf("Added %s %q (%s) to %q at %d", it.Kind(), name, it.ID(), parent.Name(), c.NewIndex), nil
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <doc> <id> <name>",
		Short: "Rename an item",
		Long: `Rename the item identified by id. Its folder re-sorts and the renamed
change records the item's old and new index. Renaming the root changes the
document but records no change.

Example:
  recordings rename library.json 0190c9d2-... "Take 3 (final)"`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, rootOpts, args[0], func(s *session) (tree.Item, tree.Change, string, error) {
				return runRename(s, args[1], args[2])
			})
		},
	}
	addRepairFlag(cmd, rootOpts)
	return cmd
}

func runRename(s *session, idArg, name string) (tree.Item, tree.Change, string, error) {
	it, err := s.lookup(idArg)
	if err != nil {
		return nil, tree.Change{}, "", err
	}
	old := it.Name()
	c, recorded := it.SetName(name)
	if !recorded {
		c = tree.Change{Subject: it.ID(), OldIndex: tree.NoIndex, NewIndex: tree.NoIndex}
		return it, c, fmt.Sprintf("Renamed root %q to %q", old, name), nil
	}
	return it, c, fmt.Sprintf("Renamed %q to %q (%d -> %d)", old, name, c.OldIndex, c.NewIndex), nil
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <doc> <id>",
		Short: "Remove an item and its subtree",
		Long: `Remove the item identified by id from its folder. A removed folder takes
its whole subtree with it; the removed change keeps the detached record.

Example:
  recordings rm library.json 0190c9d2-...`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, rootOpts, args[0], func(s *session) (tree.Item, tree.Change, string, error) {
				return runRemove(s, args[1])
			})
		},
	}
	addRepairFlag(cmd, rootOpts)
	return cmd
}

func runRemove(s *session, idArg string) (tree.Item, tree.Change, string, error) {
	it, err := s.lookup(idArg)
	if err != nil {
		return nil, tree.Change{}, "", err
	}
	c, ok := it.Remove()
	if !ok {
		return nil, tree.Change{}, "", NewExitError(ExitCommandError, "cannot remove the root folder")
	}
	return it, c, fmt.Sprintf("Removed %s %q (%s) from index %d", it.Kind(), it.Name(), it.ID(), c.OldIndex), nil
}
