// SPDX-License-Identifier: MPL-2.0

// Package manifest loads module manifests written as YAML.
//
// A manifest file is named "<module>.assets.yaml" and lives anywhere under the
// plugins directory:
//
//	module: blog
//	assets:
//	  - type: copy
//	    tag: config
//	    source: stubs/blog.php
//	    destination: config/blog.php
//	  - type: append_env
//	    destination: .env
//	    comment: Blog
//	    env:
//	      BLOG_PER_PAGE: "10"
//	  - type: merge
//	    destination: config/app.php
//	    key: providers.blog
//	    raw: "Blog\\Provider::class"
//	  - type: dependencies
//	    dependencies:
//	      cache:
//	        required: true
//	        tags: [config]
//	      search:
//	        condition:
//	          file_exists: config/scout.php
//
// Relative source paths are resolved against the manifest's directory; the
// destination stays relative to the application root. The env and
// dependencies mappings keep their declaration order.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/invowk/assetctl/pkg/asset"
)

// Pattern selects manifest files under the plugins directory.
const Pattern = "**/*.assets.yaml"

// ErrInvalidManifest is wrapped by every manifest validation error.
var ErrInvalidManifest = errors.New("invalid manifest")

// skipDirs are never descended into during discovery.
var skipDirs = []string{"**/.git", "**/node_modules", "**/vendor"}

type (
	// File is the YAML shape of a manifest.
	File struct {
		Module asset.ModuleName `yaml:"module"`
		Assets []Asset          `yaml:"assets"`
	}

	// Asset is the YAML shape of one descriptor.
	Asset struct {
		Type         asset.OperationType `yaml:"type"`
		Tag          string              `yaml:"tag"`
		Source       string              `yaml:"source"`
		Destination  string              `yaml:"destination"`
		Content      string              `yaml:"content"`
		Marker       string              `yaml:"marker"`
		Comment      string              `yaml:"comment"`
		Env          yaml.Node           `yaml:"env"`
		Key          string              `yaml:"key"`
		Value        yaml.Node           `yaml:"value"`
		Raw          string              `yaml:"raw"`
		Dependencies yaml.Node           `yaml:"dependencies"`
		Options      map[string]any      `yaml:"options"`
	}

	// Dependency is the YAML shape of one declared dependency.
	Dependency struct {
		Required  bool      `yaml:"required"`
		Tags      []string  `yaml:"tags"`
		Reason    string    `yaml:"reason"`
		Prompt    string    `yaml:"prompt"`
		Condition Condition `yaml:"condition"`
	}

	// Condition is the YAML shape of a dependency condition. At most one
	// field may be set; none means always.
	Condition struct {
		FileExists      string `yaml:"file_exists"`
		ConfigKeyExists string `yaml:"config_key_exists"`
	}
)

// Discover returns the manifest files under dir in lexical order. A missing
// directory yields no manifests.
func Discover(fsys afero.Fs, dir string) ([]string, error) {
	if ok, err := afero.DirExists(fsys, dir); err != nil || !ok {
		return nil, err
	}
	var paths []string
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			if rel != "." && matchAny(skipDirs, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := doublestar.Match(Pattern, rel); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: discover %s: %w", dir, err)
	}
	return paths, nil
}

// Load discovers and parses every manifest under dir into a catalog.
func Load(fsys afero.Fs, dir string) (*asset.MapCatalog, error) {
	paths, err := Discover(fsys, dir)
	if err != nil {
		return nil, err
	}
	catalog := asset.NewCatalog()
	for _, path := range paths {
		name, descs, err := LoadFile(fsys, path)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(name, func() []asset.Descriptor { return descs }); err != nil {
			return nil, fmt.Errorf("manifest: %s: %w", path, err)
		}
	}
	return catalog, nil
}

// LoadFile parses one manifest file.
func LoadFile(fsys afero.Fs, path string) (asset.ModuleName, []asset.Descriptor, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return "", nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	name, descs, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return "", nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	if name == "" {
		name = asset.ModuleName(strings.TrimSuffix(filepath.Base(path), ".assets.yaml"))
	}
	for i := range descs {
		descs[i].Module = name
	}
	return name, descs, nil
}

// Parse decodes a manifest. Relative sources are joined to baseDir. The
// returned module name is empty when the manifest does not declare one.
func Parse(data []byte, baseDir string) (asset.ModuleName, []asset.Descriptor, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("decode: %w", err)
	}
	descs := make([]asset.Descriptor, 0, len(f.Assets))
	for i, a := range f.Assets {
		d, err := a.descriptor(baseDir)
		if err != nil {
			return "", nil, fmt.Errorf("assets[%d]: %w", i, err)
		}
		d.Module = f.Module
		descs = append(descs, d)
	}
	return f.Module, descs, nil
}

func (a Asset) descriptor(baseDir string) (asset.Descriptor, error) {
	if err := a.Type.Validate(); err != nil {
		return asset.Descriptor{}, err
	}
	d := asset.Descriptor{
		Type:        a.Type,
		Tag:         a.Tag,
		Source:      a.Source,
		Destination: a.Destination,
		Content:     a.Content,
		Marker:      a.Marker,
		Comment:     a.Comment,
		Key:         a.Key,
		Options:     a.Options,
	}
	if d.Source != "" && !filepath.IsAbs(d.Source) && baseDir != "" {
		d.Source = filepath.Join(baseDir, filepath.FromSlash(d.Source))
	}

	var missing []string
	need := func(field, v string) {
		if v == "" {
			missing = append(missing, field)
		}
	}
	switch a.Type {
	case asset.OpCopy, asset.OpCopySafe:
		need("source", a.Source)
		need("destination", a.Destination)
	case asset.OpAppend:
		need("destination", a.Destination)
		need("content", a.Content)
	case asset.OpAppendEnv:
		need("destination", a.Destination)
		vars, err := envVars(&a.Env)
		if err != nil {
			return asset.Descriptor{}, err
		}
		if len(vars) == 0 {
			missing = append(missing, "env")
		}
		d.EnvVars = vars
	case asset.OpMerge:
		need("destination", a.Destination)
		need("key", a.Key)
		v, err := mergeValue(a)
		if err != nil {
			return asset.Descriptor{}, err
		}
		d.Value = v
	case asset.OpDependencies:
		deps, err := dependencies(&a.Dependencies)
		if err != nil {
			return asset.Descriptor{}, err
		}
		d.Dependencies = deps
	}
	if len(missing) > 0 {
		return asset.Descriptor{}, fmt.Errorf("%w: %s requires %s", ErrInvalidManifest, a.Type, strings.Join(missing, ", "))
	}
	return d, nil
}

func mergeValue(a Asset) (any, error) {
	hasValue := !a.Value.IsZero()
	switch {
	case a.Raw != "" && hasValue:
		return nil, fmt.Errorf("%w: merge takes value or raw, not both", ErrInvalidManifest)
	case a.Raw != "":
		return asset.Raw(a.Raw), nil
	case !hasValue:
		return nil, fmt.Errorf("%w: merge requires value or raw", ErrInvalidManifest)
	}
	var v any
	if err := a.Value.Decode(&v); err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	return v, nil
}

// envVars decodes an ordered KEY: value mapping.
func envVars(n *yaml.Node) ([]asset.EnvVar, error) {
	if n.IsZero() {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: env must be a mapping (line %d)", ErrInvalidManifest, n.Line)
	}
	vars := make([]asset.EnvVar, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: env %s must be a scalar (line %d)", ErrInvalidManifest, k.Value, v.Line)
		}
		vars = append(vars, asset.EnvVar{Name: k.Value, Value: v.Value})
	}
	return vars, nil
}

// dependencies decodes an ordered name: config mapping.
func dependencies(n *yaml.Node) (*asset.DependencyMap, error) {
	deps := asset.NewDependencyMap()
	if n.IsZero() {
		return deps, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: dependencies must be a mapping (line %d)", ErrInvalidManifest, n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		var dep Dependency
		if v.Kind != yaml.ScalarNode || v.Tag != "!!null" {
			if err := v.Decode(&dep); err != nil {
				return nil, fmt.Errorf("dependency %s: %w", k.Value, err)
			}
		}
		cond, err := dep.Condition.condition()
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", k.Value, err)
		}
		name := asset.ModuleName(k.Value)
		if err := name.Validate(); err != nil {
			return nil, err
		}
		deps.Set(name, asset.DependencyConfig{
			Required:  dep.Required,
			Tags:      dep.Tags,
			Reason:    dep.Reason,
			Prompt:    dep.Prompt,
			Condition: cond,
		})
	}
	return deps, nil
}

func (c Condition) condition() (asset.Condition, error) {
	switch {
	case c.FileExists != "" && c.ConfigKeyExists != "":
		return asset.Condition{}, fmt.Errorf("%w: condition sets both file_exists and config_key_exists", ErrInvalidManifest)
	case c.FileExists != "":
		return asset.FileExists(c.FileExists), nil
	case c.ConfigKeyExists != "":
		return asset.ConfigKeyExists(c.ConfigKeyExists), nil
	default:
		return asset.Always(), nil
	}
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
