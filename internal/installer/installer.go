// SPDX-License-Identifier: MPL-2.0

// Package installer applies asset descriptors to an application tree.
//
// Install dispatches on the descriptor's operation type and reports the
// outcome as an asset.Result; it does not return Go errors. Once-only
// operations (see ledger.CanReinstall) are looked up in the ledger first and
// skipped when already completed, unless forced. Successful applications are
// recorded in the ledger. Dependencies descriptors are handed to the
// DependencyHandler bound with SetDependencyHandler.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/invowk/assetctl/internal/ledger"
	"github.com/invowk/assetctl/internal/session"
	"github.com/invowk/assetctl/pkg/asset"
)

// DefaultMaxTargetSize caps the size of append and merge targets.
const DefaultMaxTargetSize int64 = 1 << 20

type (
	// Options controls one install run.
	Options struct {
		// Force reapplies once-only operations and overwrites copy targets.
		Force bool
		// DryRun computes results without touching the filesystem or ledger.
		DryRun bool
		// Existing lets copy overwrite an existing destination as an update.
		Existing bool
		// InstallDependencies opts into dependency installation.
		InstallDependencies bool
		// InstallAllDependencies selects every optional dependency whose
		// condition holds instead of prompting.
		InstallAllDependencies bool
		// Tags narrows InstallAll to descriptors with these tags.
		Tags []string
		// Session answers dependency prompts. Dependencies descriptors fail
		// with asset.ErrCapabilityMissing without one.
		Session session.Session
	}

	// DependencyHandler installs the modules a dependencies descriptor declares.
	DependencyHandler interface {
		InstallDependencies(ctx context.Context, desc asset.Descriptor, opts Options) asset.Result
	}

	// Installer applies descriptors under an application root.
	Installer struct {
		root          string
		fs            afero.Afero
		ledger        *ledger.Registry
		deps          DependencyHandler
		logger        *log.Logger
		maxTargetSize int64
	}

	// Option configures an Installer.
	Option func(*Installer)

	// applied is what an applier hands back: the result and the ledger
	// records to write when the result is a real (non dry-run) success.
	applied struct {
		result  asset.Result
		records []ledger.Record
	}
)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(i *Installer) { i.logger = logger }
}

// WithFs sets the filesystem. The default is the host filesystem.
func WithFs(fs afero.Fs) Option {
	return func(i *Installer) { i.fs = afero.Afero{Fs: fs} }
}

// WithMaxTargetSize sets the size ceiling for append and merge targets.
func WithMaxTargetSize(n int64) Option {
	return func(i *Installer) {
		if n > 0 {
			i.maxTargetSize = n
		}
	}
}

// New creates an Installer. reg may be nil, in which case nothing is looked
// up or recorded. The dependency handler is bound later with
// SetDependencyHandler.
func New(root string, reg *ledger.Registry, opts ...Option) *Installer {
	i := &Installer{
		root:          root,
		fs:            afero.Afero{Fs: afero.NewOsFs()},
		ledger:        reg,
		logger:        log.New(io.Discard),
		maxTargetSize: DefaultMaxTargetSize,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SetDependencyHandler binds the handler for dependencies descriptors.
func (i *Installer) SetDependencyHandler(h DependencyHandler) {
	i.deps = h
}

// Ledger returns the registry the installer records into.
func (i *Installer) Ledger() *ledger.Registry { return i.ledger }

// Install applies one descriptor.
func (i *Installer) Install(ctx context.Context, desc asset.Descriptor, opts Options) asset.Result {
	if err := ctx.Err(); err != nil {
		return cancelled(desc, err)
	}
	if err := desc.Type.Validate(); err != nil {
		return asset.Failed(desc.Source, desc.Destination, err)
	}

	if desc.Type == asset.OpDependencies {
		if opts.Session == nil || i.deps == nil {
			return asset.Failed("", "", fmt.Errorf("installing dependencies of %s requires an interactive session: %w", desc.Module, asset.ErrCapabilityMissing))
		}
		return i.deps.InstallDependencies(ctx, desc, opts)
	}

	if i.ledger != nil && !opts.Force && !ledger.CanReinstall(desc.Type) {
		done, err := i.ledger.IsOperationCompleted(desc.Module, desc.Type, desc.Tag, desc)
		if err != nil {
			return asset.Failed(desc.Source, desc.Destination, err)
		}
		if done {
			i.logger.Debug("already completed", "module", desc.Module, "op", desc.Type, "destination", desc.Destination)
			return asset.Completed(desc.Source, desc.Destination)
		}
	}

	var out applied
	switch desc.Type {
	case asset.OpCopy:
		out = i.applyCopy(desc, opts, false)
	case asset.OpCopySafe:
		out = i.applyCopy(desc, opts, true)
	case asset.OpAppend:
		out = i.applyAppend(desc, opts)
	case asset.OpAppendEnv:
		out = i.applyAppendEnv(desc, opts)
	case asset.OpMerge:
		out = i.applyMerge(desc, opts)
	}

	i.logResult(desc, out.result)
	if !opts.DryRun && i.ledger != nil {
		i.record(desc, out.records)
	}
	return out.result
}

// InstallAll installs a module's descriptors and aggregates the results into
// one batch. Dependencies descriptors run first so a module's dependencies
// precede its own assets. Tags in opts narrow the other descriptors; the
// dependencies descriptor is kept whatever its tag. A cancelled context stops
// the remainder.
func (i *Installer) InstallAll(ctx context.Context, module asset.ModuleName, descs []asset.Descriptor, opts Options) asset.Result {
	ordered := make([]asset.Descriptor, 0, len(descs))
	if d, ok := asset.FindDependencies(descs); ok {
		ordered = append(ordered, d)
	}
	ordered = append(ordered, asset.FilterByTags(asset.WithoutDependencies(descs), opts.Tags)...)

	children := make([]asset.Result, 0, len(ordered))
	for _, d := range ordered {
		if d.Module == "" {
			d.Module = module
		}
		r := i.Install(ctx, d, opts)
		children = append(children, r)
		if r.Status == asset.StatusCancelled {
			break
		}
	}
	return asset.Batch(string(module), "", children)
}

func (i *Installer) record(desc asset.Descriptor, records []ledger.Record) {
	for _, rec := range records {
		if err := i.ledger.RecordInstalled(desc.Module, desc.Type, desc.Tag, rec); err != nil {
			i.logger.Error("failed to update ledger", "module", desc.Module, "op", desc.Type, "err", err)
		}
	}
}

func (i *Installer) logResult(desc asset.Descriptor, r asset.Result) {
	kv := []any{"module", desc.Module, "op", desc.Type, "status", r.Status}
	if r.Destination != "" {
		kv = append(kv, "destination", r.Destination)
	}
	switch {
	case !r.Success:
		i.logger.Warn(r.Message, kv...)
	case r.Status == asset.StatusSkipped:
		i.logger.Debug(r.Message, kv...)
	default:
		i.logger.Info(r.Message, kv...)
	}
}

func (i *Installer) resolve(path string) string {
	return asset.ResolvePath(i.root, path)
}

func (i *Installer) exists(path string) bool {
	ok, err := i.fs.Exists(path)
	return err == nil && ok
}

func cancelled(desc asset.Descriptor, err error) asset.Result {
	return asset.Result{
		Source:      desc.Source,
		Destination: desc.Destination,
		Status:      asset.StatusCancelled,
		Message:     "cancelled",
		Err:         err,
	}
}

func single(r asset.Result, rec ledger.Record) applied {
	if !r.Success || !r.Status.Applied() {
		return applied{result: r}
	}
	return applied{result: r, records: []ledger.Record{rec}}
}

func failed(src, dst string, err error) applied {
	return applied{result: asset.Failed(src, dst, err)}
}

func notFound(what, path string) error {
	return fmt.Errorf("%s %s: %w", what, path, asset.ErrNotFound)
}

func isNotFound(err error) bool {
	return errors.Is(err, afero.ErrFileNotFound)
}
