// Package httpd implements the HTTP server command: the API, plus the
// recurring sync scheduler.
package httpd

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

	"github.com/jonesrussell/powerdraw/cmd/common"
	"github.com/jonesrussell/powerdraw/internal/api"
	"github.com/jonesrussell/powerdraw/internal/logger"
)

const (
	signalChannelBufferSize = 1
	errorChannelBufferSize  = 1
	defaultShutdownTimeout  = 30 * time.Second
)

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the HTTP server and sync scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Start(cmd.Context())
		},
	}
}

// Start starts the HTTP server and runs until interrupted.
func Start(ctx context.Context) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	app, err := common.NewApp(deps)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Close()

	schedulerCtx, cancelScheduler := context.WithCancel(ctx)
	defer cancelScheduler()

	if startErr := app.Runner.Start(schedulerCtx); startErr != nil {
		return fmt.Errorf("failed to start scheduler: %w", startErr)
	}

	handlers := api.NewHandlers(
		app.Repo,
		app.Engine,
		app.Runner,
		app.Resolver,
		app.Metrics,
		deps.Config.Sync.TrailingDays,
		deps.Logger.WithComponent("api"),
	)

	router := api.SetupRouter(handlers, deps.Logger.WithComponent("http"))
	server := api.NewServer(deps.Config.Server.Address, router)

	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		deps.Logger.Info("HTTP server starting", "address", deps.Config.Server.Address)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	return runUntilInterrupt(deps.Logger, server, app, errChan)
}

// runUntilInterrupt blocks until a signal or server error, then shuts
// down gracefully.
func runUntilInterrupt(
	log logger.Interface,
	server *http.Server,
	app *common.App,
	errChan <-chan error,
) error {
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("shutdown signal received", "signal", sig.String())
	case serveErr := <-errChan:
		return fmt.Errorf("http server failed: %w", serveErr)
	}

	app.Runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		return fmt.Errorf("http server shutdown failed: %w", shutdownErr)
	}

	log.Info("server stopped")
	return nil
}
