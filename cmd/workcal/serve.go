package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/workcal/availability/internal/api"
	"github.com/workcal/availability/internal/store/sqlite"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the availability HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Fail fast on a broken calendar; handlers reload it per request
			source, err := buildCalendarSource(cfg.Calendar, logger)
			if err != nil {
				return err
			}
			if _, err := loadFrom(ctx, source); err != nil {
				return err
			}

			var runs api.RunStore
			if cfg.Store.Path != "" {
				store, err := sqlite.New(cfg.Store.Path)
				if err != nil {
					return fmt.Errorf("failed to open run store: %w", err)
				}
				defer store.Close()
				runs = store
			}

			handler := api.NewHandler(source, runs, api.Options{
				DefaultMode:       cfg.Engine.GetMode(),
				SkipInvalidRanges: cfg.Engine.SkipInvalidRanges,
				MaxBodyBytes:      cfg.Server.MaxBodyBytes,
				MaxRangeDays:      cfg.Server.MaxRangeDays,
			}, logger)

			srv := &http.Server{
				Addr:         addr,
				Handler:      api.NewRouter(handler, logger, cfg.Server.AllowedOrigins),
				ReadTimeout:  cfg.Server.GetReadTimeout(),
				WriteTimeout: cfg.Server.GetWriteTimeout(),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server listening",
					zap.String("addr", addr),
					zap.Bool("history", runs != nil))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}
