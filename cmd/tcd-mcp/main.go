// tcd-mcp serves the TCD tools to MCP clients over stdio.
//
// Configuration is loaded the same way as the HTTP server. Logs go to
// stderr so they don't interfere with the protocol on stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/okian/tcd/internal/adapters/mcptools"
	"github.com/okian/tcd/internal/bootstrap"
	"github.com/okian/tcd/internal/config"
	"github.com/okian/tcd/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	log := logger.Get()

	svc, err := bootstrap.NewService(cfg, log)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			log.Error(ctx, "service shutdown failed", logger.Error(err))
		}
	}()

	return server.ServeStdio(mcptools.New(svc))
}
