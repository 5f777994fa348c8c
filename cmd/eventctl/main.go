package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/attendee-presence/internal/adapters/cli"
	"github.com/kirillkom/attendee-presence/internal/config"
	"github.com/kirillkom/attendee-presence/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stderr, "eventctl", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(cfg, logger).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
