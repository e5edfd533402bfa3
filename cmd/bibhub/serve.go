package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"bibhub/internal/events"
	"bibhub/internal/grpcserver"
	"bibhub/internal/logging"
	"bibhub/internal/restaurants"
	"bibhub/internal/server"
)

func (a *app) serveCommand() *cobra.Command {
	var runAtStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API over HTTP and gRPC",
		Long: `serve starts the HTTP API, the gRPC service and, when events.addr is
set, the TCP event feed. The pipeline can be triggered with
POST /pipeline/run when both sources are configured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), runAtStart)
		},
	}
	cmd.Flags().BoolVar(&runAtStart, "run", false, "run the pipeline once at startup")
	return cmd
}

func (a *app) serve(ctx context.Context, runAtStart bool) error {
	backend, err := openStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	hub := events.NewHub()
	defer hub.Close()

	runner, err := buildRunner(a.cfg, backend, hub)
	if err != nil {
		a.logger.Warn().Err(err).Msg("pipeline disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(server.Deps{
		Store:  backend,
		Runner: runner,
		Hub:    hub,
		Base:   ctx,
		Logger: logging.Component("http"),
	})
	httpSrv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcLn net.Listener
	if addr := a.cfg.GRPC.Addr; addr != "" {
		if grpcLn, err = net.Listen("tcp", addr); err != nil {
			return err
		}
	}

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.logger.Info().Str("addr", httpSrv.Addr).Msg("HTTP API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	grpcSrv := grpcserver.New(restaurants.NewService(backend), logging.Component("grpc"))
	if grpcLn != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.logger.Info().Str("addr", grpcLn.Addr().String()).Msg("gRPC listening")
			if err := grpcSrv.Serve(grpcLn); err != nil {
				errCh <- err
			}
		}()
	}

	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if addr := a.cfg.Events.Addr; addr != "" {
		tcpSrv := events.NewServer(addr, hub)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.ListenAndServe(srvCtx); err != nil {
				errCh <- err
			}
		}()
	}

	if runAtStart && runner != nil {
		go func() {
			if _, err := runner.Run(ctx); err != nil {
				a.logger.Error().Err(err).Msg("startup pipeline run failed")
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error().Err(runErr).Msg("server error")
	}

	a.logger.Info().Msg("shutting down servers")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn().Err(err).Msg("http shutdown")
	}
	grpcSrv.GracefulStop()
	cancel()

	wg.Wait()
	a.logger.Info().Msg("servers stopped")
	return runErr
}
