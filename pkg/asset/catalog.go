// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"fmt"
	"slices"
	"sync"
)

type (
	// ManifestFunc is the module manifest contract: a no-argument function
	// returning the module's descriptors in install order.
	ManifestFunc func() []Descriptor

	// Catalog exposes the modules available for installation.
	Catalog interface {
		// Modules returns the available module names in registration order.
		Modules() []ModuleName
		// Descriptors invokes the module's manifest. The second return value is
		// false when the module is not available.
		Descriptors(name ModuleName) ([]Descriptor, bool)
	}

	// MapCatalog is a Catalog backed by registered manifest functions.
	MapCatalog struct {
		mu        sync.RWMutex
		names     []ModuleName
		manifests map[ModuleName]ManifestFunc
	}
)

var defaultCatalog = NewCatalog()

// NewCatalog creates an empty MapCatalog.
func NewCatalog() *MapCatalog {
	return &MapCatalog{manifests: make(map[ModuleName]ManifestFunc)}
}

// Register adds a manifest to the process-wide catalog. It is intended to be
// called from init functions of compiled-in modules and panics on an invalid
// name or a duplicate registration.
func Register(name ModuleName, fn ManifestFunc) {
	if err := defaultCatalog.Add(name, fn); err != nil {
		panic(err)
	}
}

// Default returns the process-wide catalog populated by Register.
func Default() *MapCatalog { return defaultCatalog }

// Add registers a manifest function for name.
func (c *MapCatalog) Add(name ModuleName, fn ManifestFunc) error {
	if err := name.Validate(); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("module %s: nil manifest", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.manifests[name]; ok {
		return fmt.Errorf("module %s: already registered", name)
	}
	c.names = append(c.names, name)
	c.manifests[name] = fn
	return nil
}

// Merge adds every module of other that is not yet present in c.
func (c *MapCatalog) Merge(other Catalog) {
	for _, name := range other.Modules() {
		c.mu.RLock()
		_, exists := c.manifests[name]
		c.mu.RUnlock()
		if exists {
			continue
		}
		_ = c.Add(name, func() []Descriptor {
			descs, _ := other.Descriptors(name)
			return descs
		})
	}
}

// Modules returns the registered module names in registration order.
func (c *MapCatalog) Modules() []ModuleName {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.names)
}

// Descriptors invokes the manifest for name and stamps the owning module on
// descriptors that do not carry one.
func (c *MapCatalog) Descriptors(name ModuleName) ([]Descriptor, bool) {
	c.mu.RLock()
	fn, ok := c.manifests[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	descs := slices.Clone(fn())
	for i := range descs {
		if descs[i].Module == "" {
			descs[i].Module = name
		}
	}
	return descs, true
}
