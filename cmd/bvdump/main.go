package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCommand().Execute(); err != nil {
		// A cancelled run already reported what it was doing.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "bvdump:", err)
		}
		return 1
	}
	return 0
}
