// SPDX-License-Identifier: MPL-2.0

// Package depinstall installs the modules a dependencies descriptor declares.
//
// The Orchestrator selects candidates (required ones always, optional ones by
// prompt or by InstallAllDependencies), expands the selection through the
// dependency resolver so nested dependencies are pulled in without further
// prompts, asks once for confirmation and installs each module in resolver
// order. A failing required module stops the run; nothing already applied is
// rolled back.
package depinstall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/assetctl/internal/depgraph"
	"github.com/invowk/assetctl/internal/installer"
	"github.com/invowk/assetctl/internal/ledger"
	"github.com/invowk/assetctl/pkg/asset"
)

type (
	// ModuleInstaller installs one module's descriptors as a batch.
	ModuleInstaller interface {
		InstallAll(ctx context.Context, module asset.ModuleName, descs []asset.Descriptor, opts installer.Options) asset.Result
	}

	// Candidate is a declared dependency as presented to the user.
	Candidate struct {
		Name         asset.ModuleName
		Config       asset.DependencyConfig
		ConditionMet bool
	}

	// Orchestrator implements installer.DependencyHandler.
	Orchestrator struct {
		catalog    asset.Catalog
		installer  ModuleInstaller
		ledger     *ledger.Registry
		conditions depgraph.ConditionEvaluator
		logger     *log.Logger

		// installed holds the modules installed during this session. It
		// collapses diamond-shaped duplicates and is never persisted.
		installed map[asset.ModuleName]bool
	}

	// Option configures an Orchestrator.
	Option func(*Orchestrator)
)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithConditions sets the condition evaluator shared with the resolver.
func WithConditions(c depgraph.ConditionEvaluator) Option {
	return func(o *Orchestrator) { o.conditions = c }
}

// New creates an Orchestrator. reg may be nil, in which case no dependency
// edges are recorded.
func New(catalog asset.Catalog, inst ModuleInstaller, reg *ledger.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:   catalog,
		installer: inst,
		ledger:    reg,
		logger:    log.New(io.Discard),
		installed: make(map[asset.ModuleName]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.conditions == nil {
		o.conditions = depgraph.NewEvaluator("", "")
	}
	return o
}

// MarkInstalled adds name to the session's installed set, so later
// dependency installs treat it as done. The CLI calls it for modules it
// installs directly.
func (o *Orchestrator) MarkInstalled(name asset.ModuleName) {
	o.installed[name] = true
}

// Candidates returns the declared dependencies of desc in declaration order,
// with their conditions evaluated.
func (o *Orchestrator) Candidates(desc asset.Descriptor) []Candidate {
	out := make([]Candidate, 0, desc.Dependencies.Len())
	for name, cfg := range desc.Dependencies.All() {
		met := cfg.Condition.IsAlways() || o.conditions.Evaluate(cfg.Condition)
		out = append(out, Candidate{Name: name, Config: cfg, ConditionMet: met})
	}
	return out
}

// InstallDependencies implements installer.DependencyHandler.
func (o *Orchestrator) InstallDependencies(ctx context.Context, desc asset.Descriptor, opts installer.Options) asset.Result {
	parent := desc.Module
	if !opts.InstallDependencies {
		return asset.Skipped(string(parent), "", "dependency installation not requested")
	}
	if opts.Session == nil {
		return asset.Failed(string(parent), "", fmt.Errorf("installing dependencies of %s requires an interactive session: %w", parent, asset.ErrCapabilityMissing))
	}

	selected, err := o.selectCandidates(o.Candidates(desc), opts)
	if err != nil {
		return cancelled(parent, err)
	}
	if len(selected) == 0 {
		return asset.Skipped(string(parent), "", "no dependencies selected")
	}

	tree, err := depgraph.BuildTree(o.catalog, selected, depgraph.Options{ForceAll: true, Conditions: o.conditions})
	if err != nil {
		return asset.Failed(string(parent), "", err)
	}
	order := slices.DeleteFunc(tree.Order(), func(n asset.ModuleName) bool { return n == parent })

	if !opts.DryRun {
		opts.Session.Println(fmt.Sprintf("Dependencies of %s to install: %s", parent, joinNames(order)))
		ok, err := opts.Session.Confirm(fmt.Sprintf("Install %d dependencies?", len(order)), true)
		if err != nil {
			return cancelled(parent, err)
		}
		if !ok {
			return cancelled(parent, nil)
		}
	}

	declarers := o.declarers(parent, desc.Dependencies, tree)
	children := make([]asset.Result, 0, len(order))
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			children = append(children, asset.Result{Source: string(name), Status: asset.StatusCancelled, Message: "cancelled", Err: err})
			break
		}
		if o.installed[name] {
			children = append(children, asset.Skipped(string(name), "", "already installed in this run"))
			continue
		}

		r := o.installModule(ctx, name, declarers[name], opts)
		children = append(children, r)
		if !r.Success {
			if required(declarers[name]) {
				o.logger.Error("required dependency failed, stopping", "parent", parent, "module", name)
				break
			}
			o.logger.Warn("optional dependency failed", "parent", parent, "module", name)
			continue
		}

		o.installed[name] = true
		if !opts.DryRun {
			o.recordEdges(name, declarers[name])
		}
	}

	result := asset.Batch(string(parent), "", children)
	applied, skipped, failed := result.Counts()
	result.Message = fmt.Sprintf("dependencies of %s: %d installed, %d skipped, %d failed", parent, applied, skipped, failed)
	return result
}

func (o *Orchestrator) selectCandidates(candidates []Candidate, opts installer.Options) ([]asset.ModuleName, error) {
	var selected []asset.ModuleName
	for _, c := range candidates {
		switch {
		case c.Config.Required:
			selected = append(selected, c.Name)
		case !c.ConditionMet:
			o.logger.Debug("optional dependency condition not met", "module", c.Name, "condition", c.Config.Condition)
		case opts.InstallAllDependencies:
			selected = append(selected, c.Name)
		default:
			if c.Config.Reason != "" {
				opts.Session.Println(fmt.Sprintf("%s: %s", c.Name, c.Config.Reason))
			}
			question := c.Config.Prompt
			if question == "" {
				question = fmt.Sprintf("Install optional dependency %s?", c.Name)
			}
			ok, err := opts.Session.Confirm(question, false)
			if err != nil {
				return nil, err
			}
			if ok {
				selected = append(selected, c.Name)
			}
		}
	}
	return selected, nil
}

func (o *Orchestrator) installModule(ctx context.Context, name asset.ModuleName, decl []declaration, opts installer.Options) asset.Result {
	descs, ok := o.catalog.Descriptors(name)
	if !ok {
		return asset.Failed(string(name), "", fmt.Errorf("module %s: %w", name, asset.ErrNotFound))
	}
	modOpts := opts
	modOpts.Tags = tagsFor(decl)
	r := o.installer.InstallAll(ctx, name, asset.WithoutDependencies(descs), modOpts)
	r.Source = string(name)
	// The dependency batch nests one level, so the module's own children are
	// flattened: the first failure's cause moves up onto the module result.
	if failed, ok := firstFailure(r.BatchResults); ok {
		r.Err = fmt.Errorf("module %s: %w", name, failed.Err)
		r.Message = fmt.Sprintf("%s; %s: %s", r.Message, failureTarget(failed), failed.Message)
	}
	r.BatchResults = nil
	return r
}

func firstFailure(results []asset.Result) (asset.Result, bool) {
	for _, c := range results {
		if !c.Success && c.Err != nil {
			return c, true
		}
	}
	for _, c := range results {
		if !c.Success {
			c.Err = errors.New(c.Message)
			return c, true
		}
	}
	return asset.Result{}, false
}

func failureTarget(r asset.Result) string {
	if r.Destination != "" {
		return r.Destination
	}
	return r.Source
}

func (o *Orchestrator) recordEdges(dep asset.ModuleName, decl []declaration) {
	if o.ledger == nil {
		return
	}
	for _, d := range decl {
		if err := o.ledger.RecordDependency(d.parent, dep, d.config); err != nil {
			o.logger.Error("failed to record dependency", "parent", d.parent, "module", dep, "err", err)
		}
	}
}

// declaration is one parent's declared config for a dependency.
type declaration struct {
	parent asset.ModuleName
	config asset.DependencyConfig
}

// declarers maps every module of the tree to the configs its dependents
// declared for it, the top-level parent first.
func (o *Orchestrator) declarers(parent asset.ModuleName, top *asset.DependencyMap, tree *depgraph.Tree) map[asset.ModuleName][]declaration {
	out := make(map[asset.ModuleName][]declaration)
	add := func(p asset.ModuleName, deps *asset.DependencyMap) {
		for name, cfg := range deps.All() {
			out[name] = append(out[name], declaration{parent: p, config: cfg})
		}
	}
	add(parent, top)
	for _, name := range tree.Order() {
		if name != parent {
			add(name, tree.Config(name))
		}
	}
	return out
}

func required(decl []declaration) bool {
	return slices.ContainsFunc(decl, func(d declaration) bool { return d.config.Required })
}

// tagsFor unions the tags the dependents asked for. A dependent asking for
// everything (no tags) wins.
func tagsFor(decl []declaration) []string {
	var tags []string
	for _, d := range decl {
		if len(d.config.Tags) == 0 {
			return nil
		}
		for _, t := range d.config.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func cancelled(parent asset.ModuleName, err error) asset.Result {
	return asset.Result{Source: string(parent), Status: asset.StatusCancelled, Message: "dependency installation cancelled", Err: err}
}

func joinNames(names []asset.ModuleName) string {
	s := make([]string, len(names))
	for i, n := range names {
		s[i] = string(n)
	}
	return strings.Join(s, ", ")
}
