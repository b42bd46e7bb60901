// SPDX-License-Identifier: MPL-2.0

// Package config loads the assetctl configuration.
//
// Settings come from a TOML file layered over built-in defaults, with
// ASSETCTL_* environment variables taking precedence (for example
// ASSETCTL_LEDGER_PATH or ASSETCTL_LOG_LEVEL). The file is searched in order:
// the explicit --config path, config.toml in the platform configuration
// directory, then assetctl.toml in the working directory. A missing file is
// not an error; the defaults apply.
package config
