package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"workbridge/internal/platform/httpserver"
	httptransport "workbridge/internal/transport/http"
)

// expiryInterval is how often the in-process match expiry sweep runs. The
// sweep is idempotent; an external scheduler may run it as well.
const expiryInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, cfgFile)
		if err != nil {
			return err
		}
		defer a.close()

		router := httptransport.NewRouter(httptransport.Services{
			Profiles:    a.profiles,
			Jobs:        a.jobs,
			Matches:     a.matches,
			Connections: a.connections,
		}, a.logger)
		srv := httpserver.New(a.cfg.Addr, router)

		if a.publisher != nil {
			go func() {
				if err := a.publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("audit publisher stopped", zap.Error(err))
				}
			}()
		}

		go func() {
			ticker := time.NewTicker(expiryInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := a.matches.ExpireSweep(ctx, time.Now()); err != nil {
						a.logger.Error("match expiry sweep failed", zap.Error(err))
					}
				}
			}
		}()

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("http server listening", zap.String("addr", a.cfg.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.logger.Info("server stopped")
		return nil
	},
}
