// SPDX-License-Identifier: MPL-2.0

package asset

import "errors"

var (
	// ErrNotFound is returned when a source or destination the operation needs does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTooLarge is returned when a text target exceeds the configured size ceiling.
	// It requires manual intervention and is never retried.
	ErrTooLarge = errors.New("target too large")
	// ErrMalformedTarget is returned when a config file does not have the expected
	// returned nested-map shape, or a dot-path segment is not a map.
	ErrMalformedTarget = errors.New("malformed target")
	// ErrAlreadyCompleted marks a skip: the operation was applied before.
	ErrAlreadyCompleted = errors.New("already completed")
	// ErrCapabilityMissing is returned when a dependency install is requested
	// without an interactive session.
	ErrCapabilityMissing = errors.New("capability missing")
	// ErrCircularDependency is the sentinel wrapped by resolver cycle errors.
	ErrCircularDependency = errors.New("circular dependency")
	// ErrUnknownOperationType is the sentinel wrapped by InvalidOperationTypeError.
	ErrUnknownOperationType = errors.New("unknown operation type")
	// ErrInvalidModuleName is the sentinel wrapped by InvalidModuleNameError.
	ErrInvalidModuleName = errors.New("invalid module name")
)
