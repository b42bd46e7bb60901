// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the markdown help pages the CLI
// renders for each failure class (missing files, dependency cycles, oversized
// or malformed targets, and so on).
package issue
