// SPDX-License-Identifier: MPL-2.0

package asset

// Raw is a config value emitted verbatim, unescaped, when merged into the
// host config file. Use it for call-like expressions such as `env('APP_KEY')`
// that must survive the round trip instead of being quoted.
type Raw string

// String returns the expression text.
func (r Raw) String() string { return string(r) }
