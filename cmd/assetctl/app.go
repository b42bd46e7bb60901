// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/invowk/assetctl/internal/config"
	"github.com/invowk/assetctl/internal/depgraph"
	"github.com/invowk/assetctl/internal/depinstall"
	"github.com/invowk/assetctl/internal/installer"
	"github.com/invowk/assetctl/internal/issue"
	"github.com/invowk/assetctl/internal/ledger"
	"github.com/invowk/assetctl/internal/session"
	"github.com/invowk/assetctl/pkg/asset"
	"github.com/invowk/assetctl/pkg/manifest"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives it and builds a workspace for the run.
	App struct {
		Config  config.Provider
		Catalog asset.Catalog

		fs            afero.Fs
		stdin         io.Reader
		stdout        io.Writer
		stderr        io.Writer
		markdownStyle string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		// Catalog holds compiled-in modules. Manifests found under the
		// plugins directory are added on top. Nil means asset.Default().
		Catalog asset.Catalog
		Fs      afero.Fs
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// workspace is everything one command run needs, built from the
	// configuration in effect.
	workspace struct {
		cfg        *config.Config
		logger     *log.Logger
		catalog    *asset.MapCatalog
		ledger     *ledger.Registry
		conditions *depgraph.Evaluator
		installer  *installer.Installer
		deps       *depinstall.Orchestrator
		session    session.Session
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Catalog == nil {
		deps.Catalog = asset.Default()
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &App{
		Config:        deps.Config,
		Catalog:       deps.Catalog,
		fs:            deps.Fs,
		stdin:         deps.Stdin,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
		markdownStyle: "auto",
	}
}

// loadConfig loads the configuration and applies the persistent flags on top.
func (a *App) loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath, Fs: a.fs})
	if err != nil {
		return nil, err
	}
	if flags.root != "" {
		cfg.Root = flags.root
	}
	if flags.yes {
		cfg.UI.AssumeYes = true
	}
	if cfg.UI.Verbose {
		flags.verbose = true
	}
	if cfg.UI.ColorScheme != config.ColorSchemeAuto {
		a.markdownStyle = string(cfg.UI.ColorScheme)
	}
	return cfg, nil
}

// open builds the workspace: configuration, logger, catalog, ledger,
// installer and dependency orchestrator.
func (a *App) open(ctx context.Context, flags *rootFlags) (*workspace, error) {
	cfg, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	logger := newLogger(a.stderr, cfg, flags.verbose)

	catalog, err := a.loadCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}

	reg, err := ledger.Open(cfg.LedgerPath, cfg.Root, ledger.WithFs(a.fs), ledger.WithLogger(logger))
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("open ledger").
			WithResource(cfg.Path(cfg.LedgerPath)).
			WithSuggestion("Fix the YAML by hand or move the file away").
			WithIssue(issue.LedgerUnreadableId).
			Wrap(err).
			BuildError()
	}

	conditions := depgraph.NewEvaluatorFs(a.fs, cfg.Root, cfg.ConfigFile)
	inst := installer.New(cfg.Root, reg,
		installer.WithFs(a.fs),
		installer.WithLogger(logger),
		installer.WithMaxTargetSize(cfg.MaxTargetSize),
	)
	orch := depinstall.New(catalog, inst, reg,
		depinstall.WithLogger(logger),
		depinstall.WithConditions(conditions),
	)
	inst.SetDependencyHandler(orch)

	return &workspace{
		cfg:        cfg,
		logger:     logger,
		catalog:    catalog,
		ledger:     reg,
		conditions: conditions,
		installer:  inst,
		deps:       orch,
		session: session.NewConsole(a.stdin, a.stdout,
			session.WithAssumeYes(cfg.UI.AssumeYes),
			session.WithStyles(promptStyle, SubtitleStyle),
		),
	}, nil
}

// loadCatalog merges the manifests under the plugins directory with the
// compiled-in modules. A manifest wins over a compiled-in module of the same
// name.
func (a *App) loadCatalog(cfg *config.Config, logger *log.Logger) (*asset.MapCatalog, error) {
	pluginsDir := cfg.Path(cfg.PluginsDir)
	catalog, err := manifest.Load(a.fs, pluginsDir)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load manifests").
			WithResource(pluginsDir).
			WithSuggestion("Check the YAML syntax at the reported line").
			WithSuggestion("Run 'assetctl list --verbose' after fixing the file").
			WithIssue(issue.ManifestInvalidId).
			Wrap(err).
			BuildError()
	}
	for _, name := range a.Catalog.Modules() {
		if slices.Contains(catalog.Modules(), name) {
			logger.Warn("manifest overrides compiled-in module", "module", name)
		}
	}
	catalog.Merge(a.Catalog)
	logger.Debug("catalog loaded", "plugins_dir", pluginsDir, "modules", len(catalog.Modules()))
	return catalog, nil
}

// newLogger returns the CLI logger. Verbose output forces debug level.
func newLogger(w io.Writer, cfg *config.Config, verbose bool) *log.Logger {
	level, err := log.ParseLevel(string(cfg.Log.Level))
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// moduleNotFound is returned when a requested module is not in the catalog.
func moduleNotFound(name asset.ModuleName) error {
	return issue.NewErrorContext().
		WithOperation("find module").
		WithResource(string(name)).
		WithSuggestion("Run 'assetctl list' to see the available modules").
		WithIssue(issue.ModuleNotFoundId).
		Wrap(asset.ErrNotFound).
		BuildError()
}

// selectModules validates the requested names, or returns every module when
// all is set.
func (w *workspace) selectModules(names []string, all bool) ([]asset.ModuleName, error) {
	if all {
		return w.catalog.Modules(), nil
	}
	out := make([]asset.ModuleName, 0, len(names))
	for _, n := range names {
		name := asset.ModuleName(n)
		if _, ok := w.catalog.Descriptors(name); !ok {
			return nil, moduleNotFound(name)
		}
		out = append(out, name)
	}
	return out, nil
}
