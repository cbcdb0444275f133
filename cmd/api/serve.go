package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"listingboard/cmd/app"
	"listingboard/internal/logging"
	"listingboard/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides SERVER_PORT)")
	serveCmd.Flags().Bool("migrate", false, "apply migrations before serving (overrides DB_AUTO_MIGRATE)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.ServerPort = port
	}
	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		cfg.DB.AutoMigrate = true
	}

	if len(cfg.JWTSecretKey) < service.MinSecretLength {
		logging.Warn().Msg("JWT_SECRET_KEY is missing or shorter than 20 characters; auth endpoints will fail")
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logging.Error().Err(err).Msg("close database")
		}
	}()

	if cfg.DB.AutoMigrate {
		if err := application.DB.RunMigrations(ctx, cfg.DB.MigrationsPath); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", server.Addr).
			Str("database", cfg.DB.DbNAME).
			Str("bucket", cfg.MinIO.BucketName).
			Msg("server started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logging.Info().Msg("server stopped")
	return nil
}
