package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/recordings/internal/config"
	"github.com/roach88/recordings/internal/tree"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // optional YAML file
	Database string // overrides database.path
	Repair   bool   // mutating commands drop malformed records instead of refusing

	// IDs allows overriding the identity generator (for testing).
	// If nil, new items get UUIDv7 identities.
	IDs tree.IDGenerator

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the recordings CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "Recordings - an ordered library of folders and recordings",
		Long: `Manage a library document: a tree of folders and recordings addressed by
identity, kept in collation order, with every change journaled to SQLite.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite journal (overrides config)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))

	return cmd
}

// setup loads the configuration and installs the logger. Diagnostics go to
// w so JSON output on stdout stays parsable.
func (o *RootOptions) setup(w io.Writer) error {
	cfg := config.Default()
	if o.Config != "" {
		loaded, err := config.Load(o.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	if o.Database != "" {
		cfg.Database.Path = o.Database
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid logging config", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	o.cfg = cfg
	o.logger = slog.New(handler)
	return nil
}

// settings returns the loaded configuration, falling back to defaults when a
// subcommand runs without the root's PersistentPreRunE (as in tests).
func (o *RootOptions) settings() *config.Config {
	if o.cfg == nil {
		cfg := config.Default()
		if o.Database != "" {
			cfg.Database.Path = o.Database
		}
		o.cfg = cfg
	}
	return o.cfg
}

func (o *RootOptions) log() *slog.Logger {
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

func (o *RootOptions) idGenerator() tree.IDGenerator {
	if o.IDs == nil {
		return tree.UUIDv7Generator{}
	}
	return o.IDs
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are reported on stderr, or as a JSON error response on stdout when
// --format json is in effect.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	// Anything that is not an ExitError comes from flag or argument parsing.
	code := ExitCommandError
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	format, _ := cmd.PersistentFlags().GetString("format")
	if format == "json" {
		out := &OutputFormatter{Format: format, Writer: stdout}
		_ = out.Error(errorCode(code), err.Error(), nil)
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

func errorCode(exitCode int) string {
	if exitCode == ExitFailure {
		return "E_INVALID"
	}
	return "E_COMMAND"
}
