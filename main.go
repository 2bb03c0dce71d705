package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stackrun-dev/stackrun/cmd"
	"github.com/stackrun-dev/stackrun/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		logger.Get().Error(err.Error())
		os.Exit(1)
	}
}
