// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for assetctl.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/assetctl/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	verbose    bool
	configPath string
	root       string
	yes        bool
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "assetctl",
		Short: "Install module assets into an application",
		Long: TitleStyle.Render("assetctl") + SubtitleStyle.Render(" - Install module assets into an application") + `

assetctl copies files, appends snippets, adds environment variables and
merges config entries on behalf of modules. Operations that must run only
once are recorded in a ledger, so rerunning an install is safe.

Modules are declared in '*.assets.yaml' manifests under the plugins directory.

` + SubtitleStyle.Render("Examples:") + `
  assetctl list                       List the available modules
  assetctl install blog               Install the 'blog' module
  assetctl install blog --with-deps   Install 'blog' and its dependencies
  assetctl install --all --dry-run    Preview installing every module
  assetctl tree blog --optional       Show the resolved dependency order`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/assetctl/config.toml)")
	pf.StringVarP(&flags.root, "root", "C", "", "application root (overrides the root setting)")
	pf.BoolVarP(&flags.yes, "yes", "y", false, "answer yes to every confirmation")

	rootCmd.AddCommand(
		newInstallCommand(app, flags),
		newListCommand(app, flags),
		newStatusCommand(app, flags),
		newTreeCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// issueFor returns the help page explaining err.
func issueFor(err error) *issue.Issue {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return issue.Get(ae.IssueId())
	}
	return issue.Get(issue.Classify(err))
}

// fail prints err and converts it into an exit code. The help page for the
// failure is rendered in verbose mode.
func (a *App) fail(cmd *cobra.Command, flags *rootFlags, err error) error {
	if err == nil {
		return nil
	}
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, flags.verbose))
	if flags.verbose {
		if page := issueFor(err); page != nil {
			if rendered, rerr := page.Render(a.markdownStyle); rerr == nil {
				fmt.Fprint(a.stderr, rendered)
			}
		}
	}
	return &ExitError{Code: 1, Err: err}
}
