// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/invowk/assetctl/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "assetctl"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// LocalConfigFile is looked up in the working directory when the
	// platform config directory has no file.
	LocalConfigFile = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "ASSETCTL"
)

// ErrConfigExists is returned by WriteDefault when the file exists and
// overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

// ConfigDir is the per-user assetctl directory: %AppData%\assetctl on
// Windows, ~/Library/Application Support/assetctl on macOS and
// $XDG_CONFIG_HOME/assetctl (or ~/.config/assetctl) elsewhere.
//
//nolint:revive // config.Dir reads poorly at call sites
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// DefaultConfigPath returns config.toml inside dir, or inside ConfigDir when
// dir is empty.
func DefaultConfigPath(dir string) (string, error) {
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions reads defaults, the first config file found and the
// environment, in increasing precedence. It returns the resolved file path,
// empty when only defaults and environment applied.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	fs := opts.fs()
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType(ConfigFileExt)
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := findConfigFile(fs, opts)
	if err != nil {
		return nil, "", err
	}

	if resolvedPath != "" {
		v.SetConfigFile(resolvedPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid TOML syntax").
				WithSuggestion("Use 'assetctl config show' to see the default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = resolvedPath

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Fix the reported fields or remove them to use the defaults").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// findConfigFile applies the lookup order. An explicit path must exist.
func findConfigFile(fs afero.Fs, opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(fs, opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Check the --config path").
				WithSuggestion("Run 'assetctl config init' and point --config at the new file").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("%s: %w", opts.ConfigFilePath, os.ErrNotExist)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dirPath, err := DefaultConfigPath(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if fileExists(fs, dirPath) {
		return dirPath, nil
	}

	localPath := filepath.Join(opts.BaseDir, LocalConfigFile)
	if fileExists(fs, localPath) {
		return localPath, nil
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("root", d.Root)
	v.SetDefault("ledger_path", d.LedgerPath)
	v.SetDefault("plugins_dir", d.PluginsDir)
	v.SetDefault("config_file", d.ConfigFile)
	v.SetDefault("max_target_size", d.MaxTargetSize)
	v.SetDefault("log.level", string(d.Log.Level))
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.assume_yes", d.UI.AssumeYes)
}

// Render returns cfg as a TOML document.
func Render(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration to path, creating parent
// directories. It returns ErrConfigExists when the file exists and force is
// false.
func WriteDefault(fs afero.Fs, path string, force bool) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if !force && fileExists(fs, path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	data, err := Render(DefaultConfig())
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}
