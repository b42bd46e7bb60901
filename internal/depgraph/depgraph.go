// SPDX-License-Identifier: MPL-2.0

// Package depgraph resolves module dependency declarations into a cycle-free,
// dependency-first install order.
package depgraph

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/invowk/assetctl/internal/dag"
	"github.com/invowk/assetctl/pkg/asset"
)

type (
	// Options controls which declared dependencies are followed.
	Options struct {
		// ForceAll keeps every declared dependency and bypasses conditions.
		ForceAll bool
		// InstallOptional keeps optional dependencies whose condition holds.
		InstallOptional bool
		// Conditions evaluates dependency conditions. Nil uses an Evaluator
		// rooted at the working directory with no host config file.
		Conditions ConditionEvaluator
	}

	// Tree is a resolved install plan: modules in dependency-first order, each
	// with its filtered dependency declarations.
	Tree struct {
		roots   []asset.ModuleName
		order   []asset.ModuleName
		configs map[asset.ModuleName]*asset.DependencyMap
	}

	// CircularDependencyError reports a dependency cycle. Cycle starts and ends
	// with the same module and reads in declaration direction: each module
	// depends on the next.
	CircularDependencyError struct {
		Cycle []asset.ModuleName
		cause error
	}
)

func (e *CircularDependencyError) Error() string {
	names := make([]string, len(e.Cycle))
	for i, n := range e.Cycle {
		names[i] = string(n)
	}
	return "circular dependency detected: " + strings.Join(names, " → ")
}

// Unwrap returns asset.ErrCircularDependency and the underlying graph error.
func (e *CircularDependencyError) Unwrap() []error {
	if e.cause == nil {
		return []error{asset.ErrCircularDependency}
	}
	return []error{asset.ErrCircularDependency, e.cause}
}

// FilterDependencies returns the subset of declared dependencies to follow.
// ForceAll keeps everything. Otherwise a dependency is kept when it is
// required or InstallOptional is set, and its condition holds.
func FilterDependencies(declared *asset.DependencyMap, opts Options) *asset.DependencyMap {
	eval := opts.evaluator()
	kept := asset.NewDependencyMap()
	for name, cfg := range declared.All() {
		if opts.ForceAll {
			kept.Set(name, cfg)
			continue
		}
		if !cfg.Required && !opts.InstallOptional {
			continue
		}
		if !cfg.Condition.IsAlways() && !eval.Evaluate(cfg.Condition) {
			continue
		}
		kept.Set(name, cfg)
	}
	return kept
}

// BuildTree walks the dependency declarations of roots depth-first and
// returns every visited module ordered so each dependency precedes its
// dependents. Modules missing from the catalog are treated as leaves and
// left out of the result. A cycle fails the whole resolution with a
// *CircularDependencyError.
func BuildTree(catalog asset.Catalog, roots []asset.ModuleName, opts Options) (*Tree, error) {
	visited := make(map[asset.ModuleName]bool)
	var discovered []asset.ModuleName
	configs := make(map[asset.ModuleName]*asset.DependencyMap)

	var visit func(name asset.ModuleName)
	visit = func(name asset.ModuleName) {
		if visited[name] {
			return
		}
		visited[name] = true

		descs, ok := catalog.Descriptors(name)
		if !ok {
			return
		}
		discovered = append(discovered, name)

		filtered := asset.NewDependencyMap()
		if d, found := asset.FindDependencies(descs); found {
			filtered = FilterDependencies(d.Dependencies, opts)
		}
		configs[name] = filtered
		for _, dep := range filtered.Names() {
			visit(dep)
		}
	}
	for _, root := range roots {
		visit(root)
	}

	g := dag.New[asset.ModuleName]()
	for _, name := range discovered {
		g.AddNode(name)
	}
	for _, name := range discovered {
		for _, dep := range configs[name].Names() {
			if _, present := configs[dep]; !present {
				continue
			}
			g.AddEdge(dep, name)
		}
	}

	if cycle := g.FindCycle(); cycle != nil {
		return nil, newCircularDependencyError(cycle)
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("ordering dependencies: %w", err)
	}

	return &Tree{roots: slices.Clone(roots), order: order, configs: configs}, nil
}

// newCircularDependencyError converts a cycle found on the dependency →
// dependent graph into declaration direction.
func newCircularDependencyError(cycle []asset.ModuleName) *CircularDependencyError {
	names := slices.Clone(cycle)
	slices.Reverse(names)
	return &CircularDependencyError{Cycle: names, cause: &dag.CycleError[asset.ModuleName]{Cycle: cycle}}
}

// Order returns the modules in install order.
func (t *Tree) Order() []asset.ModuleName { return slices.Clone(t.order) }

// Len returns the number of resolved modules.
func (t *Tree) Len() int { return len(t.order) }

// Contains reports whether name was resolved.
func (t *Tree) Contains(name asset.ModuleName) bool {
	_, ok := t.configs[name]
	return ok
}

// Config returns the filtered dependency declarations of name.
func (t *Tree) Config(name asset.ModuleName) *asset.DependencyMap {
	return t.configs[name]
}

// Render writes the tree below each root, one module per line.
func (t *Tree) Render(w io.Writer) error {
	var sb strings.Builder
	for _, root := range t.roots {
		if !t.Contains(root) {
			fmt.Fprintf(&sb, "%s (not available)\n", root)
			continue
		}
		sb.WriteString(string(root) + "\n")
		t.renderChildren(&sb, root, "")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (t *Tree) renderChildren(sb *strings.Builder, name asset.ModuleName, prefix string) {
	deps := t.configs[name].Names()
	for i, dep := range deps {
		branch, next := "├── ", "│   "
		if i == len(deps)-1 {
			branch, next = "└── ", "    "
		}
		cfg, _ := t.configs[name].Get(dep)
		sb.WriteString(prefix + branch + string(dep) + describe(cfg, t.Contains(dep)) + "\n")
		if t.Contains(dep) {
			t.renderChildren(sb, dep, prefix+next)
		}
	}
}

func describe(cfg asset.DependencyConfig, available bool) string {
	var notes []string
	if cfg.Required {
		notes = append(notes, "required")
	} else {
		notes = append(notes, "optional")
	}
	if !cfg.Condition.IsAlways() {
		notes = append(notes, cfg.Condition.String())
	}
	if len(cfg.Tags) > 0 {
		notes = append(notes, "tags: "+strings.Join(cfg.Tags, ","))
	}
	if !available {
		notes = append(notes, "not available")
	}
	s := " (" + strings.Join(notes, ", ") + ")"
	if cfg.Reason != "" {
		s += " " + cfg.Reason
	}
	return s
}

func (o Options) evaluator() ConditionEvaluator {
	if o.Conditions != nil {
		return o.Conditions
	}
	return NewEvaluator("", "")
}
