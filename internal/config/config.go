// Package config loads the recordings tool configuration from YAML.
//
// Environment variables in the form ${VAR_NAME} are expanded before
// parsing. Fields missing from the file keep their Default values.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recordings/internal/tree"
)

// Config is the complete configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Collation CollationConfig `yaml:"collation"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig locates the change journal.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CollationConfig controls the order of folder children.
type CollationConfig struct {
	Locale     string `yaml:"locale"` // BCP 47 tag, "und" for the root locale
	IgnoreCase bool   `yaml:"ignore_case"`
	Numeric    bool   `yaml:"numeric"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "recordings.db"},
		Collation: CollationConfig{
			Locale:     "und",
			IgnoreCase: true,
			Numeric:    true,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the file at path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the variable's value, or the
// empty string when unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := language.Parse(c.Collation.Locale); err != nil {
		return fmt.Errorf("collation.locale %q: %w", c.Collation.Locale, err)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q: must be text or json", c.Logging.Format)
	}
	return nil
}

// Collation builds the tree ordering described by c.
func (c CollationConfig) Collation() (*tree.Collation, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return nil, fmt.Errorf("collation.locale %q: %w", c.Locale, err)
	}
	var opts []collate.Option
	if c.IgnoreCase {
		opts = append(opts, collate.IgnoreCase)
	}
	if c.Numeric {
		opts = append(opts, collate.Numeric)
	}
	if len(opts) == 0 {
		// Plain collation; NewCollation treats no options as the defaults.
		opts = append(opts, collate.OptionsFromTag(tag))
	}
	return tree.NewCollation(tag, opts...), nil
}

// SlogLevel parses Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("logging.level %q: must be debug, info, warn or error", l.Level)
}
