// Command vesper-lifecycle analyzes the lifecycle semantics of Vesper
// compilation units: operator binding, destructible-context
// validation, scope-exit destruction, and cross-thread deep-copy
// planning.
package main

import (
	"fmt"
	"os"

	"github.com/vesper-lang/vesper/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
