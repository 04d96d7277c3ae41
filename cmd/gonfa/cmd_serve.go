package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"GoNFA/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the automaton API until SIGINT or SIGTERM, then drain
in-flight requests for up to server.shutdown_timeout.

Routes:
  POST   /v1/automata
  GET    /v1/automata
  GET    /v1/automata/:id
  DELETE /v1/automata/:id
  POST   /v1/automata/:id/simulate
  POST   /v1/automata/:id/verify
  POST   /v1/automata/:id/crosscheck
  POST   /v1/batch/:mode
  GET    /health, /ready, /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address; overrides config")
	return cmd
}

// serve runs the HTTP server until ctx ends.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	server.Version = Version

	svc, err := server.NewService(cfg, a.logger)
	if err != nil {
		return err
	}
	handlers := server.NewHandlers(svc, cfg.Server, a.logger.With("component", "http"))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.NewRouter(handlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting GoNFA",
			"version", Version,
			"addr", srv.Addr,
			"config", a.configPath,
			"analyzer", cfg.Analyzer,
			"epsilon_token", cfg.EpsilonToken,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}
