// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// ColorSchemeAuto picks dark or light from the terminal background.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark palette.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light palette.
	ColorSchemeLight ColorScheme = "light"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	// DefaultLedgerPath is where install records live, relative to Root.
	DefaultLedgerPath = ".assetctl/ledger.yaml"
	// DefaultPluginsDir is scanned for *.assets.yaml manifests, relative to Root.
	DefaultPluginsDir = "plugins"
	// DefaultConfigFile is the application config file that merge edits by default.
	DefaultConfigFile = "config/app.php"
	// DefaultMaxTargetSize is the largest file append and merge will edit.
	DefaultMaxTargetSize int64 = 1 << 20
)

var (
	// ErrInvalidConfig is the sentinel behind every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidColorScheme is returned for an unknown ui.color_scheme.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is returned for an unknown log.level.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

type (
	// ColorScheme selects the terminal palette.
	ColorScheme string

	// LogLevel is the minimum level the CLI logger emits.
	LogLevel string

	// InvalidConfigError collects every field that failed validation.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the assetctl configuration.
	Config struct {
		// Root is the application directory every relative path resolves against.
		Root string `json:"root" mapstructure:"root" toml:"root"`
		// LedgerPath is the install ledger location.
		LedgerPath string `json:"ledger_path" mapstructure:"ledger_path" toml:"ledger_path"`
		// PluginsDir holds module manifests.
		PluginsDir string `json:"plugins_dir" mapstructure:"plugins_dir" toml:"plugins_dir"`
		// ConfigFile is the application config file merge targets by default.
		ConfigFile string `json:"config_file" mapstructure:"config_file" toml:"config_file"`
		// MaxTargetSize caps the size of files append and merge will edit.
		MaxTargetSize int64     `json:"max_target_size" mapstructure:"max_target_size" toml:"max_target_size"`
		Log           LogConfig `json:"log" mapstructure:"log" toml:"log"`
		UI            UIConfig  `json:"ui" mapstructure:"ui" toml:"ui"`

		// Source is the file the configuration was read from, empty for defaults.
		Source string `json:"-" mapstructure:"-" toml:"-"`
	}

	// LogConfig configures the CLI logger.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level" toml:"level"`
	}

	// UIConfig configures terminal output and prompting.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose" toml:"verbose"`
		// AssumeYes answers every confirmation with yes.
		AssumeYes bool `json:"assume_yes" mapstructure:"assume_yes" toml:"assume_yes"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Root:          ".",
		LedgerPath:    DefaultLedgerPath,
		PluginsDir:    DefaultPluginsDir,
		ConfigFile:    DefaultConfigFile,
		MaxTargetSize: DefaultMaxTargetSize,
		Log:           LogConfig{Level: LogLevelInfo},
		UI:            UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

func (c ColorScheme) String() string { return string(c) }

// Validate returns ErrInvalidColorScheme for unknown values.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return fmt.Errorf("%w: %q (want auto, dark or light)", ErrInvalidColorScheme, string(c))
	}
}

func (l LogLevel) String() string { return string(l) }

// Validate returns ErrInvalidLogLevel for unknown values.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return fmt.Errorf("%w: %q (want debug, info, warn or error)", ErrInvalidLogLevel, string(l))
	}
}

// Validate checks every field and reports all failures at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.LedgerPath) == "" {
		errs = append(errs, errors.New("ledger_path must not be empty"))
	}
	if strings.TrimSpace(c.PluginsDir) == "" {
		errs = append(errs, errors.New("plugins_dir must not be empty"))
	}
	if c.MaxTargetSize <= 0 {
		errs = append(errs, fmt.Errorf("max_target_size must be positive, got %d", c.MaxTargetSize))
	}
	if err := c.Log.Level.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ui.color_scheme: %w", err))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Path resolves p against Root. Absolute paths are returned unchanged.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	root := c.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Unwrap exposes ErrInvalidConfig and each field error to errors.Is.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
