// Command specconv batch-converts gamma-spectrometry files between vendor
// formats: parse, transform, then either combine or fan out to one or more
// output files, per the pipeline this module implements in pkg/pipeline,
// pkg/transform, pkg/combine and pkg/output.
package main

import (
	"fmt"
	"os"

	"specconv/pkg/cliopts"
)

func main() {
	code := Execute(os.Args[1:])
	os.Exit(int(code))
}

// Execute is the seam main() calls through; kept separate from main so the
// exit-code path is reachable without os.Exit in tests.
func Execute(args []string) cliopts.ExitCode {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if ce, ok := asExitError(err); ok {
			fmt.Fprintln(os.Stderr, err)
			return ce.code
		}
		fmt.Fprintln(os.Stderr, err)
		return cliopts.InvalidArgumentSyntax
	}
	return lastExitCode
}
