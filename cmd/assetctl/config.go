// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/assetctl/internal/config"
	"github.com/invowk/assetctl/internal/issue"
)

// newConfigCommand creates the `assetctl config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage assetctl configuration",
		Long: `Manage assetctl configuration.

Configuration is read from the first file found:
  - the --config flag
  - Linux: ~/.config/assetctl/config.toml
  - macOS: ~/Library/Application Support/assetctl/config.toml
  - Windows: %APPDATA%\assetctl\config.toml
  - ./assetctl.toml

Every key can be overridden with an ASSETCTL_* environment variable, for
example ASSETCTL_LEDGER_PATH or ASSETCTL_LOG_LEVEL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the configuration in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, flags, app.showConfig(cmd.Context(), flags))
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, flags, app.initConfig(flags, force))
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(flags)
			if err != nil {
				return app.fail(cmd, flags, err)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig(ctx context.Context, flags *rootFlags) error {
	cfg, err := a.loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	data, err := config.Render(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	source := SubtitleStyle.Render("(using defaults)")
	if cfg.Source != "" {
		source = cfg.Source
	}
	fmt.Fprintf(a.stdout, "%s: %s\n\n", CmdStyle.Render("Config file"), source)
	fmt.Fprint(a.stdout, string(data))
	return nil
}

func (a *App) initConfig(flags *rootFlags, force bool) error {
	path, err := configPath(flags)
	if err != nil {
		return err
	}
	if err := config.WriteDefault(a.fs, path, force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return issue.NewErrorContext().
				WithOperation("create configuration").
				WithResource(path).
				WithSuggestion("Use --force to overwrite it").
				WithSuggestion("Use 'assetctl config show' to see the settings in effect").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
		return err
	}
	fmt.Fprintf(a.stdout, "%s %s\n", SuccessStyle.Render("Created"), path)
	return nil
}

// configPath is the --config value, or config.toml in the platform config
// directory.
func configPath(flags *rootFlags) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return config.DefaultConfigPath("")
}
