// SPDX-License-Identifier: MPL-2.0

// Package testutil holds small fail-fast helpers shared by the package tests:
// file fixtures rooted at t.TempDir() and a deterministic clock for ledger
// timestamps.
package testutil
