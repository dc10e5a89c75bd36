package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"slidealign/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lecture alignment HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := ctx.newRuntime(sigCtx, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			cfg := rt.cfg.Server
			if addr != "" {
				cfg.Addr = addr
			}
			var runs server.RunReader
			if rt.store != nil {
				runs = rt.store
			}
			srv := server.New(server.Config{
				Addr:           cfg.Addr,
				MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
				RequestTimeout: time.Duration(cfg.RequestTimeoutSecs) * time.Second,
				Version:        version,
			}, rt.svc, runs, rt.metrics, rt.logger)
			if err := srv.Run(sigCtx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
