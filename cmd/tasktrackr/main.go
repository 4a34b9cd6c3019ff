package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BuzzLyutic/tasktrackr/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
