// Command hound is the operator CLI for the transcode pipeline daemon. It
// reads the daemon's durable documents directly; no running daemon is
// required for any read-only command.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
