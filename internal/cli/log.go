package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/recordings/internal/journal"
	"github.com/roach88/recordings/internal/tree"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	After  int64
	Latest bool
}

// LogEntry is one journaled change as printed by log.
type LogEntry struct {
	Seq     int64          `json:"seq"`
	Reason  string         `json:"reason"`
	Subject string         `json:"subject"`
	Path    []string       `json:"path"`
	Payload map[string]any `json:"payload"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log [id]",
		Short: "Show journaled changes",
		Long: `Show the journaled changes of the item identified by id, oldest first.
Without an id every change in the journal is shown.

The history of a removed item stays in the journal and can still be listed.

Example:
  recordings log 0190c9d2-...
  recordings log 0190c9d2-... --after 12
  recordings log 0190c9d2-... --latest
  recordings log --after 100 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := uuid.Nil
			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, fmt.Sprintf("invalid id %q", args[0]), err)
				}
				subject = id
			}
			return runLog(cmd, opts, subject)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only changes with a sequence number above this")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "only the most recent change of the item")

	return cmd
}

func runLog(cmd *cobra.Command, opts *LogOptions, subject uuid.UUID) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Latest && subject == uuid.Nil {
		return NewExitError(ExitCommandError, "--latest requires an id")
	}

	j, err := journal.Open(opts.settings().Database.Path, opts.log())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	entries, err := readLog(ctx, j, subject, opts.After, opts.Latest)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := make([]LogEntry, len(entries))
	var b strings.Builder
	for i, e := range entries {
		result[i] = newLogEntry(e)
		fmt.Fprintln(&b, logLine(e))
	}
	text := strings.TrimSuffix(b.String(), "\n")
	if len(entries) == 0 {
		text = "No changes found."
	}
	return opts.formatter(cmd).Success(text, result)
}

// readLog walks the subject's history with the journal cursor, or reads
// the whole journal when subject is uuid.Nil.
func readLog(ctx context.Context, j *journal.Journal, subject uuid.UUID, after int64, latest bool) ([]journal.Entry, error) {
	if subject == uuid.Nil {
		return j.ReadSince(ctx, after)
	}
	if latest {
		e, err := j.LatestEntry(ctx, subject)
		if journal.IsNotFound(err) {
			return []journal.Entry{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []journal.Entry{e}, nil
	}

	entries := []journal.Entry{}
	for {
		e, err := j.NextEntry(ctx, subject, after)
		if journal.IsNotFound(err) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		after = e.Seq
	}
}

func newLogEntry(e journal.Entry) LogEntry {
	path := make([]string, len(e.Path))
	for i, id := range e.Path {
		path[i] = id.String()
	}
	return LogEntry{
		Seq:     e.Seq,
		Reason:  string(e.Reason),
		Subject: e.Subject.String(),
		Path:    path,
		Payload: e.Payload(),
	}
}

func logLine(e journal.Entry) string {
	switch e.Reason {
	case tree.Renamed:
		return fmt.Sprintf("#%d renamed  %s  %d -> %d", e.Seq, e.Subject, e.OldIndex, e.NewIndex)
	case tree.Added:
		return fmt.Sprintf("#%d added    %s  at %d", e.Seq, e.Subject, e.NewIndex)
	case tree.Removed:
		return fmt.Sprintf("#%d removed  %s  from %d", e.Seq, e.Subject, e.OldIndex)
	default:
		return fmt.Sprintf("#%d %-8s %s", e.Seq, e.Reason, e.Subject)
	}
}
