package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/YasiruR/didcomm-envelope/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(initContainer).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
