// SPDX-License-Identifier: MPL-2.0

// Package ledger persists which asset operations have been applied.
//
// The ledger is a single YAML file holding completion records keyed by
// module, operation type and tag, plus the parent → dependency edges recorded
// by dependency installs. Every mutation reloads the whole file, changes it in
// memory and rewrites it. There is no locking: concurrent invocations against
// the same ledger are not safe.
package ledger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/invowk/assetctl/pkg/asset"
)

// FormatVersion is written to every ledger file.
const FormatVersion = "1"

// ErrInvalidPath is returned by Open for an empty ledger path.
var ErrInvalidPath = errors.New("invalid ledger path")

type (
	// Record is one completed operation instance. Paths are relative to the
	// application root with forward slashes.
	Record struct {
		Destination string    `yaml:"destination,omitempty"`
		Source      string    `yaml:"source,omitempty"`
		Marker      string    `yaml:"marker,omitempty"`
		Key         string    `yaml:"key,omitempty"`
		EnvVars     []string  `yaml:"env_vars,omitempty"`
		Completed   bool      `yaml:"completed"`
		InstalledAt time.Time `yaml:"installed_at"`
	}

	// EdgeRecord snapshots the dependency config a parent installed a
	// dependency with.
	EdgeRecord struct {
		Required    bool      `yaml:"required"`
		Tags        []string  `yaml:"tags,omitempty"`
		Reason      string    `yaml:"reason,omitempty"`
		Prompt      string    `yaml:"prompt,omitempty"`
		Condition   string    `yaml:"condition,omitempty"`
		InstalledAt time.Time `yaml:"installed_at"`
	}

	// Entries maps operation type and tag to the records of one module.
	Entries map[asset.OperationType]map[string][]Record

	// Registry reads and writes the ledger file. Construct it once per
	// session with Open and pass it to the components that need it.
	Registry struct {
		path   string
		root   string
		fs     afero.Afero
		now    func() time.Time
		logger *log.Logger
	}

	// Option configures a Registry.
	Option func(*Registry)

	document struct {
		Version      string                                               `yaml:"version"`
		Modules      map[asset.ModuleName]Entries                         `yaml:"modules,omitempty"`
		Dependencies map[asset.ModuleName]map[asset.ModuleName]EdgeRecord `yaml:"dependencies,omitempty"`
	}
)

// WithNow sets the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithFs sets the filesystem. The default is the host filesystem.
func WithFs(fs afero.Fs) Option {
	return func(r *Registry) { r.fs = afero.Afero{Fs: fs} }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// Open returns a Registry for the ledger at path. A relative path is resolved
// against root. The file is read once to surface a corrupt ledger early; a
// missing file is an empty ledger.
func Open(path, root string, opts ...Option) (*Registry, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	r := &Registry{
		path:   asset.ResolvePath(root, path),
		root:   root,
		fs:     afero.Afero{Fs: afero.NewOsFs()},
		now:    time.Now,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the absolute ledger file path.
func (r *Registry) Path() string { return r.path }

// Root returns the application root.
func (r *Registry) Root() string { return r.root }

// CanReinstall reports whether an operation type may run again after it
// completed. Reinstallable operations are never looked up in the ledger.
func CanReinstall(op asset.OperationType) bool {
	switch op {
	case asset.OpCopy, asset.OpAppendEnv:
		return true
	default:
		return false
	}
}

// RecordInstalled appends a completion record for module/op/tag. Path fields
// are normalized and the record is stamped with the current time.
func (r *Registry) RecordInstalled(module asset.ModuleName, op asset.OperationType, tag string, rec Record) error {
	if err := module.Validate(); err != nil {
		return err
	}
	rec.Destination = r.Normalize(rec.Destination)
	rec.Source = r.Normalize(rec.Source)
	rec.Completed = true
	rec.InstalledAt = r.now().UTC()

	return r.update(func(doc *document) {
		if doc.Modules == nil {
			doc.Modules = make(map[asset.ModuleName]Entries)
		}
		entries := doc.Modules[module]
		if entries == nil {
			entries = make(Entries)
			doc.Modules[module] = entries
		}
		if entries[op] == nil {
			entries[op] = make(map[string][]Record)
		}
		entries[op][tag] = append(entries[op][tag], rec)
		r.logger.Debug("recorded operation", "module", module, "op", op, "tag", tag, "destination", rec.Destination)
	})
}

// IsOperationCompleted reports whether desc was already applied for
// module/op/tag:
//   - append: a record with the same destination and marker exists
//   - merge: a record with the same destination and key exists
//   - append_env: never; variables are checked individually on apply
//   - copy, copy_safe: the destination exists, or for a batch source every
//     qualifying source file has a record
func (r *Registry) IsOperationCompleted(module asset.ModuleName, op asset.OperationType, tag string, desc asset.Descriptor) (bool, error) {
	switch op {
	case asset.OpAppendEnv:
		return false, nil
	case asset.OpCopy, asset.OpCopySafe:
		return r.isCopyCompleted(module, op, tag, desc)
	}

	records, err := r.records(module, op, tag)
	if err != nil {
		return false, err
	}
	dest := r.Normalize(desc.Destination)
	for _, rec := range records {
		if rec.Destination != dest {
			continue
		}
		switch op {
		case asset.OpAppend:
			if rec.Marker == desc.Marker {
				return true, nil
			}
		case asset.OpMerge:
			if rec.Key == desc.Key {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *Registry) isCopyCompleted(module asset.ModuleName, op asset.OperationType, tag string, desc asset.Descriptor) (bool, error) {
	src := asset.ResolvePath(r.root, desc.Source)
	if info, err := r.fs.Stat(src); err == nil && info.IsDir() {
		files, err := asset.BatchSources(r.fs, src)
		if err != nil {
			return false, fmt.Errorf("listing %s: %w", src, err)
		}
		if len(files) > 0 {
			return r.batchCompleted(module, op, tag, files)
		}
	}
	exists, err := r.fs.Exists(asset.ResolvePath(r.root, desc.Destination))
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *Registry) batchCompleted(module asset.ModuleName, op asset.OperationType, tag string, files []string) (bool, error) {
	records, err := r.records(module, op, tag)
	if err != nil {
		return false, err
	}
	recorded := make(map[string]bool, len(records))
	for _, rec := range records {
		recorded[rec.Source] = true
	}
	for _, f := range files {
		if !recorded[r.Normalize(f)] {
			return false, nil
		}
	}
	return true, nil
}

// RecordDependency records that parent installed dep with cfg, replacing any
// earlier edge for the pair.
func (r *Registry) RecordDependency(parent, dep asset.ModuleName, cfg asset.DependencyConfig) error {
	if err := parent.Validate(); err != nil {
		return err
	}
	if err := dep.Validate(); err != nil {
		return err
	}
	edge := EdgeRecord{
		Required:    cfg.Required,
		Tags:        slices.Clone(cfg.Tags),
		Reason:      cfg.Reason,
		Prompt:      cfg.Prompt,
		InstalledAt: r.now().UTC(),
	}
	if !cfg.Condition.IsAlways() {
		edge.Condition = cfg.Condition.String()
	}
	return r.update(func(doc *document) {
		if doc.Dependencies == nil {
			doc.Dependencies = make(map[asset.ModuleName]map[asset.ModuleName]EdgeRecord)
		}
		if doc.Dependencies[parent] == nil {
			doc.Dependencies[parent] = make(map[asset.ModuleName]EdgeRecord)
		}
		doc.Dependencies[parent][dep] = edge
		r.logger.Debug("recorded dependency", "parent", parent, "dependency", dep)
	})
}

// Dependencies returns the recorded dependency edges of parent.
func (r *Registry) Dependencies(parent asset.ModuleName) (map[asset.ModuleName]EdgeRecord, error) {
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make(map[asset.ModuleName]EdgeRecord, len(doc.Dependencies[parent]))
	for dep, edge := range doc.Dependencies[parent] {
		out[dep] = edge
	}
	return out, nil
}

// Dependents returns the modules that recorded dep as a dependency, sorted.
func (r *Registry) Dependents(dep asset.ModuleName) ([]asset.ModuleName, error) {
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	var parents []asset.ModuleName
	for parent, deps := range doc.Dependencies {
		if _, ok := deps[dep]; ok {
			parents = append(parents, parent)
		}
	}
	slices.Sort(parents)
	return parents, nil
}

// HasDependencies reports whether parent has recorded dependency edges.
func (r *Registry) HasDependencies(parent asset.ModuleName) (bool, error) {
	doc, err := r.load()
	if err != nil {
		return false, err
	}
	return len(doc.Dependencies[parent]) > 0, nil
}

// Modules returns every module with records or dependency edges, sorted.
func (r *Registry) Modules() ([]asset.ModuleName, error) {
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	var names []asset.ModuleName
	for name := range doc.Modules {
		names = append(names, name)
	}
	for name := range doc.Dependencies {
		if _, ok := doc.Modules[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Entries returns the records of module.
func (r *Registry) Entries(module asset.ModuleName) (Entries, error) {
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	if doc.Modules[module] == nil {
		return Entries{}, nil
	}
	return doc.Modules[module], nil
}

// Normalize converts path to the ledger form: relative to the application
// root with forward slashes. Paths outside the root keep their ".." prefix.
func (r *Registry) Normalize(path string) string {
	if path == "" {
		return ""
	}
	abs := asset.ResolvePath(r.root, path)
	rootAbs, err := filepath.Abs(r.root)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	if absPath, err := filepath.Abs(abs); err == nil {
		abs = absPath
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (r *Registry) records(module asset.ModuleName, op asset.OperationType, tag string) ([]Record, error) {
	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	return doc.Modules[module][op][tag], nil
}

func (r *Registry) update(mutate func(*document)) error {
	doc, err := r.load()
	if err != nil {
		return err
	}
	mutate(doc)
	return r.save(doc)
}

func (r *Registry) load() (*document, error) {
	data, err := r.fs.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{Version: FormatVersion}, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", r.path, err)
	}
	if doc.Version == "" {
		doc.Version = FormatVersion
	}
	return &doc, nil
}

func (r *Registry) save(doc *document) error {
	if err := r.fs.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := r.fs.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}
