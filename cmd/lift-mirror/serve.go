// ABOUTME: serve command: opens the configured store and runs the HTTP API until signalled.
// ABOUTME: Shuts down gracefully on SIGINT/SIGTERM.
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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/harperreed/lift/internal/mirror"
	"github.com/harperreed/lift/internal/mirror/mongo"
	"github.com/harperreed/lift/internal/mirror/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mirror API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger.Info("configuration loaded", "driver", cfg.Store.Driver, "address", cfg.Server.Address)

		store, err := openStore(context.Background(), cfg.Store)
		if err != nil {
			return err
		}
		defer func() {
			logger.Info("closing store")
			if err := store.Close(); err != nil {
				logger.Error("failed to close store", "err", err)
			}
		}()

		gin.SetMode(gin.ReleaseMode)
		server := &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      mirror.NewRouter(store, cfg.JWT.Secret, logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server starting", "address", cfg.Server.Address)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return fmt.Errorf("listen: %w", err)
		case <-quit:
		}
		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Info("server exiting")
		return nil
	},
}

// openStore builds the store named by cfg.Driver.
func openStore(ctx context.Context, cfg mirror.StoreConfig) (mirror.Store, error) {
	switch cfg.Driver {
	case mirror.DriverMemory:
		logger.Warn("using in-memory store; records are lost on restart")
		return mirror.NewMemoryStore(), nil
	case mirror.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.URI)
		if err != nil {
			return nil, err
		}
		logger.Info("postgres store ready")
		return store, nil
	case mirror.DriverMongo:
		store, err := mongo.Open(ctx, cfg.URI, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("mongo store ready", "database", cfg.Database)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
