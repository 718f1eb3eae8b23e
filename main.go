package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transfer-status-backend/config"
	"transfer-status-backend/core"
	"transfer-status-backend/internal/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("TRANSFERSTATUS_CONFIG"), "path to a YAML config file")
	flag.Parse()

	utils.LogInfo("MAIN", "Starting transfer status backend...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appConfig, err := config.Load(*configPath)
	if err != nil {
		utils.LogError("MAIN", "Failed to load configuration: %v", err)
		os.Exit(1)
	}

	app := core.NewApp(appConfig)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start(ctx)
	}()

	utils.LogInfo("MAIN", "Listening on %s, press Ctrl+C to stop...", appConfig.Server.Addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		utils.LogInfo("MAIN", "Shutdown signal received...")
	case err := <-errCh:
		utils.LogError("MAIN", "Server error: %v", err)
		cancel()
		app.Stop()
		os.Exit(1)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		<-errCh
		app.Stop()
		close(done)
	}()

	select {
	case <-done:
		utils.LogInfo("MAIN", "Graceful shutdown completed")
	case <-time.After(appConfig.Server.ShutdownTimeout + 5*time.Second):
		utils.LogWarn("MAIN", "Shutdown timeout reached")
	}
}
