// Command j2kinfo inspects and decodes JPEG 2000 codestreams from the
// command line: header dumps, full decode, and windowed/ROI decode.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mrjoshuak/grokj2k/cmd/j2kinfo/cmd"
)

func main() {
	ctx := context.Background()
	root := cmd.NewRoot(ctx)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
