/*
SPDX-License-Identifier: Apache-2.0
*/

// Command tracectl submits traceability requests against a local world state.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
