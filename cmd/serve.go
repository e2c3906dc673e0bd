// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"querydeck/cli/internal/bridge/grpcserver"
	"querydeck/cli/internal/engine"
	"querydeck/cli/internal/logging"
	"querydeck/cli/internal/relay"
)

const shutdownTimeout = 10 * time.Second

var (
	serveEngine engineFlags
	serveListen string
	serveGRPC   string
)

// serveCmd runs the relay until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the query relay",
	Long: `The serve command starts the HTTP relay (POST /api/data) in front of the
configured engine. With --grpc-listen the same relay is also served over gRPC.

Every failure is answered as {"error": ..., "kind": ..., "details": ...}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts, source, err := resolveEngine(serveEngine)
		if err != nil {
			return err
		}
		eng, err := engine.Open(ctx, opts)
		if err != nil {
			return err
		}
		defer eng.Close()

		svc := relay.New(eng, relay.WithTimeout(opts.Timeout), relay.WithLogger(logger))
		listen := cfg.Relay.ListenAddr
		if serveListen != "" {
			listen = serveListen
		}
		grpcAddr := cfg.Relay.GRPCAddr
		if serveGRPC != "" {
			grpcAddr = serveGRPC
		}

		httpSrv := &http.Server{
			Addr: listen,
			Handler: relay.NewHandler(svc, relay.HandlerOptions{
				AllowedOrigins: cfg.Relay.AllowedOrigins,
				Version:        Version,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		logger.Info("relay starting", logger.Args(
			"engine", eng.Name(),
			"target", logging.Mask(engineTarget(opts)),
			"source", source,
			"http", listen,
			"grpc", grpcAddr,
		))

		var (
			grpcSrv *grpcserver.Server
			grpcLis net.Listener
		)
		if grpcAddr != "" {
			if grpcLis, err = net.Listen("tcp", grpcAddr); err != nil {
				return fmt.Errorf("grpc relay: %w", err)
			}
			grpcSrv = grpcserver.New(svc, logger)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("http relay listening", logger.Args("addr", listen))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http relay: %w", err)
			}
			return nil
		})

		if grpcSrv != nil {
			g.Go(func() error {
				if err := grpcSrv.Serve(grpcLis); err != nil {
					return fmt.Errorf("grpc relay: %w", err)
				}
				return nil
			})
		}

		g.Go(func() error {
			<-gctx.Done()
			logger.Info("relay shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if grpcSrv != nil {
				grpcSrv.Stop()
			}
			return httpSrv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return err
		}
		pterm.Success.Println("Relay stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveEngine.register(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (default from config, :3001)")
	serveCmd.Flags().StringVar(&serveGRPC, "grpc-listen", "", "Also serve the relay over gRPC on this address")
}
