// Package main provides Miru, a chat assistant that can read and drive the
// browser. It opens a terminal chat UI by default, a line-mode chat with
// "miru chat", and runs scripted prompt files with "miru run".
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
