// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/assetctl/internal/depgraph"
	"github.com/invowk/assetctl/internal/installer"
	"github.com/invowk/assetctl/internal/issue"
	"github.com/invowk/assetctl/pkg/asset"
)

type installRequest struct {
	modules  []string
	all      bool
	tags     []string
	force    bool
	dryRun   bool
	existing bool
	withDeps bool
	allDeps  bool
}

func newInstallCommand(app *App, flags *rootFlags) *cobra.Command {
	req := &installRequest{}
	cmd := &cobra.Command{
		Use:   "install [module...]",
		Short: "Install the assets of one or more modules",
		Long: `Install the assets of one or more modules.

Modules are installed so that a requested module's dependencies come first.
Operations that must run once (append, merge, copy_safe) are skipped when the
ledger already records them; use --force to apply them again.`,
		Example: `  assetctl install blog
  assetctl install blog --tag config --dry-run
  assetctl install blog --with-deps --all-deps --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.modules = args
			return app.fail(cmd, flags, app.install(cmd.Context(), flags, *req))
		},
	}

	f := cmd.Flags()
	f.BoolVar(&req.all, "all", false, "install every available module")
	f.StringSliceVarP(&req.tags, "tag", "t", nil, "only install assets with these tags (dependencies are always resolved)")
	f.BoolVarP(&req.force, "force", "f", false, "reapply completed operations and overwrite copy targets")
	f.BoolVarP(&req.dryRun, "dry-run", "n", false, "show what would happen without changing anything")
	f.BoolVar(&req.existing, "existing", false, "update copy targets that already exist")
	f.BoolVar(&req.withDeps, "with-deps", false, "install declared module dependencies")
	f.BoolVar(&req.allDeps, "all-deps", false, "select every optional dependency whose condition holds instead of prompting")
	return cmd
}

func (a *App) install(ctx context.Context, flags *rootFlags, req installRequest) error {
	if len(req.modules) == 0 && !req.all {
		return errors.New("no modules given; pass module names or --all")
	}

	ws, err := a.open(ctx, flags)
	if err != nil {
		return err
	}
	roots, err := ws.selectModules(req.modules, req.all)
	if err != nil {
		return err
	}
	order, err := installOrder(ws, roots)
	if err != nil {
		return err
	}

	opts := installer.Options{
		Force:                  req.force,
		DryRun:                 req.dryRun,
		Existing:               req.existing,
		InstallDependencies:    req.withDeps || req.allDeps,
		InstallAllDependencies: req.allDeps,
		Tags:                   req.tags,
		Session:                ws.session,
	}

	var (
		failedErr                error
		applied, skipped, failed int
	)
	for _, name := range order {
		if ctx.Err() != nil {
			break
		}
		descs, _ := ws.catalog.Descriptors(name)
		res := ws.installer.InstallAll(ctx, name, descs, opts)
		if res.Success {
			ws.deps.MarkInstalled(name)
		}

		printModuleResult(a.stdout, name, res, flags.verbose)
		ap, sk, fa := res.Counts()
		applied, skipped, failed = applied+ap, skipped+sk, failed+fa
		if !res.Success && failedErr == nil {
			failedErr = firstError(res)
		}
	}

	verb := "applied"
	if req.dryRun {
		verb = "would apply"
	}
	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s %d %s, %d skipped, %d failed\n", TitleStyle.Render("Summary:"), applied, verb, skipped, failed)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("install interrupted: %w", err)
	}
	if failedErr != nil {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(failedErr, flags.verbose))
		if flags.verbose {
			if page := issueFor(failedErr); page != nil {
				if rendered, rerr := page.Render(a.markdownStyle); rerr == nil {
					fmt.Fprint(a.stderr, rendered)
				}
			}
		}
		return &ExitError{Code: 1, Err: failedErr}
	}
	return nil
}

// installOrder orders the requested modules so that those depending on other
// requested modules come later. Dependencies that were not requested are left
// to the dependencies descriptors.
func installOrder(ws *workspace, roots []asset.ModuleName) ([]asset.ModuleName, error) {
	tree, err := depgraph.BuildTree(ws.catalog, roots, depgraph.Options{Conditions: ws.conditions})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve install order").
			WithSuggestion("Run 'assetctl tree --all' to inspect the dependencies").
			WithIssue(issue.DependencyCycleId).
			Wrap(err).
			BuildError()
	}
	requested := make(map[asset.ModuleName]bool, len(roots))
	for _, r := range roots {
		requested[r] = true
	}
	order := make([]asset.ModuleName, 0, len(roots))
	for _, name := range tree.Order() {
		if requested[name] {
			order = append(order, name)
		}
	}
	return order, nil
}

// firstError returns the first failure in res, depth first, wrapped with the
// destination it concerns.
func firstError(res asset.Result) error {
	if res.Success {
		return nil
	}
	for _, child := range res.BatchResults {
		if err := firstError(child); err != nil {
			return err
		}
	}
	err := res.Err
	if err == nil {
		err = errors.New(res.Message)
	}
	op := "install " + res.Source
	if res.Source == "" {
		op = "install asset"
	}
	return issue.NewErrorContext().
		WithOperation(op).
		WithResource(res.Destination).
		WithIssue(issue.Classify(err)).
		Wrap(err).
		BuildError()
}

// printModuleResult prints one line per operation under a module heading.
// Skips are only listed in verbose mode.
func printModuleResult(w io.Writer, name asset.ModuleName, res asset.Result, verbose bool) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(string(name)), SubtitleStyle.Render("("+res.Message+")"))
	for _, child := range res.BatchResults {
		printResult(w, child, 1, verbose)
	}
}

func printResult(w io.Writer, r asset.Result, depth int, verbose bool) {
	if r.Status == asset.StatusSkipped && !verbose && r.Success {
		return
	}
	indent := strings.Repeat("  ", depth)
	target := r.Destination
	if target == "" {
		target = r.Source
	}
	line := fmt.Sprintf("%s%s %s %s", indent, statusIcon(r), statusLabel(r.Status), CmdStyle.Render(target))
	if r.Message != "" && r.Message != statusLabel(r.Status) {
		line += " " + SubtitleStyle.Render(r.Message)
	}
	fmt.Fprintln(w, line)
	for _, child := range r.BatchResults {
		printResult(w, child, depth+1, verbose)
	}
}

func statusIcon(r asset.Result) string {
	switch {
	case !r.Success && r.Status == asset.StatusCancelled:
		return WarningStyle.Render("!")
	case !r.Success:
		return ErrorStyle.Render("✗")
	case r.Status == asset.StatusSkipped:
		return SubtitleStyle.Render("-")
	default:
		return SuccessStyle.Render("✓")
	}
}

func statusLabel(s asset.Status) string {
	return strings.ReplaceAll(s.String(), "_", " ")
}
