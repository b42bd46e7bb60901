// SPDX-License-Identifier: MPL-2.0

// Package asset defines the data model shared by module manifests and the
// installation engine.
//
// A module publishes an ordered list of Descriptor values through a ManifestFunc.
// Each descriptor names one operation (copy, protected copy, append, env append,
// config merge or a dependency set) together with the fields that operation needs.
// Descriptors are immutable once produced and are never persisted; the ledger
// stores only what was actually applied.
//
// The installation outcome of a descriptor is reported as a Result. Batch
// operations carry their children in Result.BatchResults, one level deep.
package asset
