// Command tapestry installs, plays and serves storyworlds.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/tapestry/internal/cli"
)

func main() {
	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
