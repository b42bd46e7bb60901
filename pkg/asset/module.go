// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"fmt"
	"strings"
	"unicode"
)

type (
	// ModuleName is the stable identifier of a module. It is the primary key
	// in catalogs, dependency maps and the ledger. Must not be empty.
	ModuleName string

	// InvalidModuleNameError is returned when a ModuleName is empty or whitespace-only.
	// It wraps ErrInvalidModuleName for errors.Is() compatibility.
	InvalidModuleNameError struct {
		Value ModuleName
	}

	// OperationType identifies the effect kind of a Descriptor.
	OperationType string

	// InvalidOperationTypeError is returned when an OperationType is not one of
	// the known operation kinds. It wraps ErrUnknownOperationType.
	InvalidOperationTypeError struct {
		Value OperationType
	}
)

const (
	// OpCopy copies a file or directory tree; reinstallable.
	OpCopy OperationType = "copy"
	// OpCopySafe copies a file but never overwrites an existing destination.
	OpCopySafe OperationType = "copy_safe"
	// OpAppend appends content (optionally behind a marker) to an existing text file.
	OpAppend OperationType = "append"
	// OpAppendEnv appends KEY=VALUE lines for variables not yet present in an env file.
	OpAppendEnv OperationType = "append_env"
	// OpMerge inserts a key into the host config file.
	OpMerge OperationType = "merge"
	// OpDependencies declares dependencies on other modules.
	OpDependencies OperationType = "dependencies"
)

// OperationTypes returns all known operation types in declaration order.
func OperationTypes() []OperationType {
	return []OperationType{OpCopy, OpCopySafe, OpAppend, OpAppendEnv, OpMerge, OpDependencies}
}

// String returns the string representation of the ModuleName.
func (n ModuleName) String() string { return string(n) }

// Validate returns nil if the ModuleName is non-empty.
func (n ModuleName) Validate() error {
	if strings.TrimSpace(string(n)) == "" {
		return &InvalidModuleNameError{Value: n}
	}
	return nil
}

// Namespace returns the module name in upper camel case with separators removed,
// e.g. "blog-posts" becomes "BlogPosts". It is injected into batch-copied file
// names and the type names declared inside them.
func (n ModuleName) Namespace() string {
	var sb strings.Builder
	upper := true
	for _, r := range string(n) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			sb.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Error implements the error interface for InvalidModuleNameError.
func (e *InvalidModuleNameError) Error() string {
	return fmt.Sprintf("invalid module name %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidModuleName for errors.Is() compatibility.
func (e *InvalidModuleNameError) Unwrap() error { return ErrInvalidModuleName }

// String returns the string representation of the OperationType.
func (t OperationType) String() string { return string(t) }

// Validate returns nil if the OperationType is a known operation kind.
func (t OperationType) Validate() error {
	switch t {
	case OpCopy, OpCopySafe, OpAppend, OpAppendEnv, OpMerge, OpDependencies:
		return nil
	default:
		return &InvalidOperationTypeError{Value: t}
	}
}

// Error implements the error interface for InvalidOperationTypeError.
func (e *InvalidOperationTypeError) Error() string {
	return fmt.Sprintf("unknown operation type %q", e.Value)
}

// Unwrap returns ErrUnknownOperationType for errors.Is() compatibility.
func (e *InvalidOperationTypeError) Unwrap() error { return ErrUnknownOperationType }
