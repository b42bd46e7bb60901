// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"path/filepath"
	"slices"
)

const (
	// OptionRenameWithModule switches a copy descriptor into batch mode: every
	// timestamp-named file in the source directory is copied with the owning
	// module's namespace injected into its name and declared type.
	OptionRenameWithModule = "rename_with_plugin"

	// BatchLockFile is ignored when scanning a batch copy source directory.
	// Its zero timestamp sorts it before every real batch file.
	BatchLockFile = "00000000000000_assets.lock"
)

type (
	// EnvVar is a single variable declared by an append_env descriptor.
	EnvVar struct {
		Name  string
		Value string
	}

	// Descriptor is a declarative unit of installable effect produced by a module.
	// Which fields are meaningful depends on Type.
	Descriptor struct {
		// Type selects the operation.
		Type OperationType
		// Tag groups descriptors for selective install.
		Tag string
		// Source is the file or directory to copy (copy, copy_safe).
		Source string
		// Destination is the target path, relative to the application root
		// unless absolute.
		Destination string
		// Content is the text appended by an append descriptor.
		Content string
		// Marker is a line that identifies an append block; when present in the
		// destination the append is skipped.
		Marker string
		// Comment is written above newly appended env variables (append_env).
		Comment string
		// EnvVars are the variables an append_env descriptor declares, in order.
		EnvVars []EnvVar
		// Key is the dot-path of the config entry to merge ("A.B.C").
		Key string
		// Value is the config value to merge. Wrap call-like expressions in Raw.
		Value any
		// Dependencies declares the modules this module depends on (dependencies).
		Dependencies *DependencyMap
		// Options carries operation flags such as OptionRenameWithModule.
		Options map[string]any
		// Module is the owning module.
		Module ModuleName
	}
)

// Option reports whether the boolean option name is set on the descriptor.
func (d Descriptor) Option(name string) bool {
	v, ok := d.Options[name]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// EnvVarNames returns the names of the declared env variables in order.
func (d Descriptor) EnvVarNames() []string {
	names := make([]string, 0, len(d.EnvVars))
	for _, v := range d.EnvVars {
		names = append(names, v.Name)
	}
	return names
}

// FindDependencies returns the first dependencies descriptor in descs.
// At most one is expected per module.
func FindDependencies(descs []Descriptor) (Descriptor, bool) {
	for _, d := range descs {
		if d.Type == OpDependencies {
			return d, true
		}
	}
	return Descriptor{}, false
}

// FilterByTags returns the descriptors whose tag is in tags. An empty tags
// slice selects everything.
func FilterByTags(descs []Descriptor, tags []string) []Descriptor {
	if len(tags) == 0 {
		return slices.Clone(descs)
	}
	out := make([]Descriptor, 0, len(descs))
	for _, d := range descs {
		if slices.Contains(tags, d.Tag) {
			out = append(out, d)
		}
	}
	return out
}

// WithoutDependencies returns descs minus any dependencies descriptor.
func WithoutDependencies(descs []Descriptor) []Descriptor {
	out := make([]Descriptor, 0, len(descs))
	for _, d := range descs {
		if d.Type != OpDependencies {
			out = append(out, d)
		}
	}
	return out
}

// ResolvePath resolves a descriptor path against the application root.
// Relative paths use forward slashes; absolute paths are only cleaned.
func ResolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, filepath.FromSlash(path))
}
