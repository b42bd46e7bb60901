// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/assetctl/cmd/assetctl"

func main() {
	cmd.Execute()
}
