// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/invowk/assetctl/internal/depgraph"
	"github.com/invowk/assetctl/internal/ledger"
	"github.com/invowk/assetctl/pkg/asset"
)

func newListCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.fail(cmd, flags, app.list(cmd.Context(), flags))
		},
	}
}

func (a *App) list(ctx context.Context, flags *rootFlags) error {
	ws, err := a.open(ctx, flags)
	if err != nil {
		return err
	}
	modules := ws.catalog.Modules()
	if len(modules) == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("No modules found in "+ws.cfg.Path(ws.cfg.PluginsDir)))
		return nil
	}
	installed, err := ws.ledger.Modules()
	if err != nil {
		return err
	}

	width := 0
	for _, m := range modules {
		width = max(width, len(m))
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Available modules"))
	for _, m := range modules {
		descs, _ := ws.catalog.Descriptors(m)
		line := "  " + CmdStyle.Width(width+2).Render(string(m)) +
			fmt.Sprintf("%d assets", len(descs)) +
			"  " + SubtitleStyle.Render(strings.Join(operationSummary(descs), ", "))
		if slices.Contains(installed, m) {
			line += " " + SuccessStyle.Render("[installed]")
		}
		fmt.Fprintln(a.stdout, line)
		if flags.verbose {
			for _, d := range descs {
				fmt.Fprintln(a.stdout, VerboseStyle.Render("      "+describeDescriptor(d)))
			}
		}
	}
	return nil
}

// operationSummary lists the distinct operation types in declaration order.
func operationSummary(descs []asset.Descriptor) []string {
	var ops []string
	for _, d := range descs {
		if !slices.Contains(ops, d.Type.String()) {
			ops = append(ops, d.Type.String())
		}
	}
	return ops
}

func describeDescriptor(d asset.Descriptor) string {
	var parts []string
	parts = append(parts, d.Type.String())
	if d.Tag != "" {
		parts = append(parts, "["+d.Tag+"]")
	}
	switch d.Type {
	case asset.OpCopy, asset.OpCopySafe:
		parts = append(parts, d.Source, "->", d.Destination)
	case asset.OpMerge:
		parts = append(parts, d.Destination, d.Key)
	case asset.OpAppendEnv:
		parts = append(parts, d.Destination, strings.Join(d.EnvVarNames(), ","))
	case asset.OpDependencies:
		parts = append(parts, joinModules(d.Dependencies.Names()))
	default:
		parts = append(parts, d.Destination)
	}
	return strings.Join(parts, " ")
}

func newStatusCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status [module]",
		Short: "Show what the ledger records as installed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, flags, app.status(cmd.Context(), flags, args))
		},
	}
}

func (a *App) status(ctx context.Context, flags *rootFlags, args []string) error {
	ws, err := a.open(ctx, flags)
	if err != nil {
		return err
	}
	modules, err := ws.ledger.Modules()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		modules = []asset.ModuleName{asset.ModuleName(args[0])}
	}
	if len(modules) == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("Nothing installed yet ("+ws.ledger.Path()+")"))
		return nil
	}

	for i, m := range modules {
		if i > 0 {
			fmt.Fprintln(a.stdout)
		}
		if err := a.printModuleStatus(ws.ledger, m); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) printModuleStatus(reg *ledger.Registry, m asset.ModuleName) error {
	entries, err := reg.Entries(m)
	if err != nil {
		return err
	}
	deps, err := reg.Dependencies(m)
	if err != nil {
		return err
	}
	dependents, err := reg.Dependents(m)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render(string(m)))
	if len(entries) == 0 && len(deps) == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("  not installed"))
	}

	ops := make([]asset.OperationType, 0, len(entries))
	for op := range entries {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	for _, op := range ops {
		tags := make([]string, 0, len(entries[op]))
		for tag := range entries[op] {
			tags = append(tags, tag)
		}
		slices.Sort(tags)
		for _, tag := range tags {
			label := op.String()
			if tag != "" {
				label += " [" + tag + "]"
			}
			fmt.Fprintln(a.stdout, "  "+CmdStyle.Render(label))
			for _, rec := range entries[op][tag] {
				fmt.Fprintf(a.stdout, "    %s %s %s\n", SuccessStyle.Render("✓"), recordSummary(rec),
					SubtitleStyle.Render(rec.InstalledAt.Format(time.DateTime)))
			}
		}
	}

	if len(deps) > 0 {
		names := make([]asset.ModuleName, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		slices.Sort(names)
		fmt.Fprintln(a.stdout, "  "+CmdStyle.Render("dependencies"))
		for _, name := range names {
			kind := "optional"
			if deps[name].Required {
				kind = "required"
			}
			fmt.Fprintf(a.stdout, "    %s %s\n", name, SubtitleStyle.Render("("+kind+")"))
		}
	}
	if len(dependents) > 0 {
		fmt.Fprintf(a.stdout, "  %s %s\n", CmdStyle.Render("required by"), joinModules(dependents))
	}
	return nil
}

func recordSummary(rec ledger.Record) string {
	parts := []string{rec.Destination}
	switch {
	case rec.Key != "":
		parts = append(parts, rec.Key)
	case rec.Marker != "":
		parts = append(parts, rec.Marker)
	case len(rec.EnvVars) > 0:
		parts = append(parts, strings.Join(rec.EnvVars, ","))
	case rec.Source != "":
		parts = append(parts, "from "+rec.Source)
	}
	return strings.Join(parts, " ")
}

func newTreeCommand(app *App, flags *rootFlags) *cobra.Command {
	var opts depgraph.Options
	cmd := &cobra.Command{
		Use:   "tree [module...]",
		Short: "Show the resolved dependency tree and install order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, flags, app.tree(cmd.Context(), flags, args, opts))
		},
	}
	cmd.Flags().BoolVar(&opts.InstallOptional, "optional", false, "follow optional dependencies whose condition holds")
	cmd.Flags().BoolVar(&opts.ForceAll, "all", false, "follow every declared dependency, ignoring conditions")
	return cmd
}

func (a *App) tree(ctx context.Context, flags *rootFlags, args []string, opts depgraph.Options) error {
	ws, err := a.open(ctx, flags)
	if err != nil {
		return err
	}
	roots, err := ws.selectModules(args, len(args) == 0)
	if err != nil {
		return err
	}
	opts.Conditions = ws.conditions
	tree, err := depgraph.BuildTree(ws.catalog, roots, opts)
	if err != nil {
		return err
	}
	if err := tree.Render(a.stdout); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "\n%s %s\n", TitleStyle.Render("Install order:"), joinModules(tree.Order()))
	return nil
}

func joinModules(names []asset.ModuleName) string {
	s := make([]string, len(names))
	for i, n := range names {
		s[i] = string(n)
	}
	return strings.Join(s, ", ")
}
