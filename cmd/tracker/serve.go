package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/cbctracker/internal/application/positions"
	"github.com/alejandrodnm/cbctracker/internal/server"
	"github.com/alejandrodnm/cbctracker/internal/server/handler"
	"github.com/alejandrodnm/cbctracker/internal/server/ws"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Position API, price oracle and live updates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.Server.ListenAddr = addr
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger := slog.Default()
			hub := ws.NewHub(logger)

			a, err := newApp(ctx, cfg, cmd.OutOrStdout(), positions.WithPublisher(hub))
			if err != nil {
				slog.Error("failed to open storage", "err", err, "backend", cfg.Storage.Backend)
				return err
			}
			defer a.Close()

			srv := server.NewServer(server.Config{
				Addr:        cfg.Server.ListenAddr,
				CORSOrigins: cfg.Server.CORSOrigins,
				APIKey:      cfg.Server.APIKey,
			}, server.Handlers{
				Health:     handler.NewHealthHandler(logger, cfg.Storage.Backend),
				Positions:  handler.NewPositionHandler(a.engine, logger),
				Price:      handler.NewPriceHandler(a.engine, logger),
				Prediction: handler.NewPredictionHandler(a.predictor, logger),
			}, hub, logger)

			slog.Info("tracker starting",
				"config", opts.configPath,
				"addr", cfg.Server.ListenAddr,
				"backend", cfg.Storage.Backend,
				"auth", cfg.Server.APIKey != "",
			)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return hub.Run(ctx) })
			g.Go(srv.Start)
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				slog.Error("tracker exited with error", "err", err)
				return err
			}
			slog.Info("tracker stopped cleanly")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
