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

	"github.com/CTAG07/Capyboard/pkg/herostore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the studio server",
	Long:  `Serves the layout previews, the mascot API and exports until shut down or restarted through the API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath(cmd)
		baseLogger := newLogger("info")

		actionChan := make(chan string, 1)

		go func() {
			osSignalChan := make(chan os.Signal, 1)
			signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
			<-osSignalChan // Wait for a signal
			baseLogger.Info("OS signal received, initiating shutdown.")
			actionChan <- actionShutdown
		}()

		for {
			action, err := run(path, actionChan)
			if err != nil {
				baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
				return err
			}
			if action != actionRestart {
				break
			}
			baseLogger.Info("--- Server Restarting ---")
		}

		baseLogger.Info("Capyboard has shut down.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// run hosts one server cycle and returns whenever the server is shut down or
// restarted. The configuration is reloaded on every cycle.
func run(path string, actionChan chan string) (string, error) {
	cm, err := NewConfigManager(path)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	config := cm.Get()

	logger := newLogger(config.Server.LogLevel)
	cm.SetLogger(logger)
	logger.Info("Starting server cycle...", "config", path)

	if err = os.MkdirAll(config.Server.DataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := initDB(config.Server.DatabasePath)
	if err != nil {
		return "", fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = herostore.SetupSchema(db); err != nil {
		_ = db.Close()
		return "", fmt.Errorf("failed to setup settings schema: %w", err)
	}

	server, err := NewServer(cm, logger, db, actionChan, Capture{})
	if err != nil {
		_ = db.Close()
		return "", fmt.Errorf("failed to create server object: %w", err)
	}

	httpServer := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting Capyboard server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			actionChan <- actionShutdown
		}
	}()

	action := <-actionChan // Block here until API or OS signal sends an action.

	logger.Info("Stopping server for " + action + "...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped.")
	server.Close()

	logger.Info("Closing database connection.")
	if err = db.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	}

	return action, nil
}
