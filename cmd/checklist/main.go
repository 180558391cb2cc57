package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/agalitsyn/checklist-bot/internal/cli"
	"github.com/agalitsyn/checklist-bot/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// store drivers log through the standard logger
	logging.Setup("info", os.Stderr)

	code := cli.NewDispatcher(nil, nil).Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
