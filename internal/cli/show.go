package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recordings/internal/tree"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <doc>",
		Short: "Print the document tree in order",
		Long: `Print every folder and recording of a document, children in collation
order. Text output indents one level per folder; JSON output is the
document record.

Example:
  recordings show library.json
  recordings show library.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, docPath string, cmd *cobra.Command) error {
	root, report, err := readDocument(docPath)
	if err != nil {
		return err
	}
	collation, err := opts.settings().Collation.Collation()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid collation config", err)
	}
	// Attaching re-sorts every folder under the configured collation.
	st := tree.New(tree.WithRoot(root), tree.WithCollation(collation), tree.WithLogger(opts.log()))

	out := opts.formatter(cmd)
	if report.Skipped > 0 {
		out.VerboseLog("skipped %d malformed record(s), %d duplicate(s)", report.Skipped, report.Duplicates)
	}
	return out.Success(renderTree(st.Root()), tree.Record(st.Root()))
}

// renderTree draws one line per item. Folders end in a slash.
func renderTree(root *tree.Folder) string {
	var b strings.Builder
	var draw func(it tree.Item, depth int)
	draw = func(it tree.Item, depth int) {
		suffix := ""
		if it.Kind() == tree.KindFolder {
			suffix = "/"
		}
		fmt.Fprintf(&b, "%s%s%s  %s\n", strings.Repeat("  ", depth), it.Name(), suffix, it.ID())
		if f, ok := it.(*tree.Folder); ok {
			for _, child := range f.Children() {
				draw(child, depth+1)
			}
		}
	}
	draw(root, 0)
	return strings.TrimSuffix(b.String(), "\n")
}
