// Command casedex is the entry point for the case knowledge engine CLI:
// corpus builds, case-scoped retrieval, letter generation, and the
// operational metrics listener.
package main

import (
	"fmt"
	"os"

	"github.com/kailas-cloud/casedex/cmd/casedex/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
