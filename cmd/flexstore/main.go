// Command flexstore queries flexible-schema collections stored in SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/flexstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
