package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gurmeharsomal/media-screening-tool/internal/server"
	"github.com/gurmeharsomal/media-screening-tool/internal/server/ratelimit"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  "Start an HTTP server exposing POST /match and GET /health (also mounted under /api).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8000, "Port to listen on (overrides SCREENER_PORT)")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	defer func() { _ = a.logger.Sync() }()

	p, err := buildPipeline(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	srv := server.New(server.Config{Port: a.cfg.Port}, p.orchestrator, ratelimit.NewLimiter(ratelimit.LoadConfig()), a.logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
