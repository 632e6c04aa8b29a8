package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"xselect/internal/cli"
)

func main() {
	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		if cli.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
