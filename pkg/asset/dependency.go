// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"fmt"
	"iter"
	"slices"
)

// Condition kinds.
const (
	ConditionAlways ConditionKind = iota
	ConditionFileExists
	ConditionConfigKeyExists
	ConditionPredicate
)

type (
	// ConditionKind identifies the arm of a Condition.
	ConditionKind int

	// Condition gates an optional dependency. It is a closed variant: Always,
	// FileExists(path), ConfigKeyExists(key) or Predicate(fn). The zero value
	// is Always. Evaluation lives with the resolver, which knows the
	// application root and host config file.
	Condition struct {
		kind ConditionKind
		arg  string
		fn   func() bool
	}

	// DependencyConfig describes one declared dependency.
	DependencyConfig struct {
		// Required dependencies are installed without prompting.
		Required bool
		// Tags narrows which of the dependency's descriptors are installed.
		// Empty means all of them.
		Tags []string
		// Reason explains why the dependency is wanted.
		Reason string
		// Prompt overrides the confirmation question for optional dependencies.
		Prompt string
		// Condition gates the dependency; see Condition.
		Condition Condition
	}

	// DependencyMap is an insertion-ordered map of module name to DependencyConfig.
	// Declaration order drives resolution order among independent dependencies.
	DependencyMap struct {
		names   []ModuleName
		configs map[ModuleName]DependencyConfig
	}
)

// Always returns the unconditional Condition.
func Always() Condition { return Condition{kind: ConditionAlways} }

// FileExists returns a Condition that holds when path exists under the application root.
func FileExists(path string) Condition { return Condition{kind: ConditionFileExists, arg: path} }

// ConfigKeyExists returns a Condition that holds when the dot-path key exists in
// the host config file.
func ConfigKeyExists(key string) Condition {
	return Condition{kind: ConditionConfigKeyExists, arg: key}
}

// Predicate returns a Condition backed by an injected function. A nil fn is
// treated as false.
func Predicate(fn func() bool) Condition { return Condition{kind: ConditionPredicate, fn: fn} }

// Kind returns the arm of the condition.
func (c Condition) Kind() ConditionKind { return c.kind }

// Arg returns the path or key argument of FileExists and ConfigKeyExists conditions.
func (c Condition) Arg() string { return c.arg }

// Func returns the predicate function, or nil for other kinds.
func (c Condition) Func() func() bool { return c.fn }

// IsAlways reports whether the condition is unconditional.
func (c Condition) IsAlways() bool { return c.kind == ConditionAlways }

// String renders the condition for display and ledger snapshots.
func (c Condition) String() string {
	switch c.kind {
	case ConditionFileExists:
		return fmt.Sprintf("file_exists(%s)", c.arg)
	case ConditionConfigKeyExists:
		return fmt.Sprintf("config_key_exists(%s)", c.arg)
	case ConditionPredicate:
		return "predicate"
	default:
		return "always"
	}
}

// NewDependencyMap creates an empty DependencyMap.
func NewDependencyMap() *DependencyMap {
	return &DependencyMap{configs: make(map[ModuleName]DependencyConfig)}
}

// Dependencies builds a DependencyMap from name/config pairs in argument order.
// It is a convenience for Go manifests.
func Dependencies(pairs ...DependencyPair) *DependencyMap {
	m := NewDependencyMap()
	for _, p := range pairs {
		m.Set(p.Name, p.Config)
	}
	return m
}

// DependencyPair is a name/config pair accepted by Dependencies.
type DependencyPair struct {
	Name   ModuleName
	Config DependencyConfig
}

// Set adds or replaces the config for name. Replacing keeps the original position.
func (m *DependencyMap) Set(name ModuleName, cfg DependencyConfig) {
	if m.configs == nil {
		m.configs = make(map[ModuleName]DependencyConfig)
	}
	if _, ok := m.configs[name]; !ok {
		m.names = append(m.names, name)
	}
	m.configs[name] = cfg
}

// Get returns the config for name.
func (m *DependencyMap) Get(name ModuleName) (DependencyConfig, bool) {
	if m == nil {
		return DependencyConfig{}, false
	}
	cfg, ok := m.configs[name]
	return cfg, ok
}

// Names returns the dependency names in declaration order.
func (m *DependencyMap) Names() []ModuleName {
	if m == nil {
		return nil
	}
	return slices.Clone(m.names)
}

// Len returns the number of dependencies.
func (m *DependencyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// All iterates name/config pairs in declaration order.
func (m *DependencyMap) All() iter.Seq2[ModuleName, DependencyConfig] {
	return func(yield func(ModuleName, DependencyConfig) bool) {
		if m == nil {
			return
		}
		for _, name := range m.names {
			if !yield(name, m.configs[name]) {
				return
			}
		}
	}
}
