// SPDX-License-Identifier: MPL-2.0

// Package confmerge patches host config files in place.
//
// A config file is expected to hold exactly one returned nested-map literal,
// optionally preceded by an opening tag and comments:
//
//	<?php
//
//	// Application settings.
//	return [
//	    'name' => 'Demo',
//	    'services' => [
//	        'cache' => env('CACHE_DRIVER', 'file'),
//	    ],
//	];
//
// Parse builds a light syntax tree that records the byte offsets of every
// entry and closing bracket. Insert splices a serialized value in front of the
// closing bracket of the addressed map and leaves every other byte untouched,
// so comments, formatting and unrelated keys survive. Values that are not plain
// literals (calls, constants, arrow functions) are kept as opaque asset.Raw
// expressions.
//
// This is a best-effort transformer for that one file shape, not a general
// parser of the host language.
package confmerge
