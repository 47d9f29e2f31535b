/*
Copyright © 2025 Arkon Labs
SPDX-License-Identifier: Apache-2.0
*/
package main

import (
	"os"

	"github.com/arkonlabs/arkon/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args))
}
