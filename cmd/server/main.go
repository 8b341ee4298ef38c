package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/supplement-advisor-server/internal/api"
	"github.com/supplement-advisor-server/internal/config"
	"github.com/supplement-advisor-server/internal/setup"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	app, err := setup.Build(configManager)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}
	defer app.Close()

	app.Logger.Infof("Starting supplement advisor server on %s:%d",
		app.Config.Server.Host, app.Config.Server.Port)

	server := api.NewServer(configManager, app.Pipeline, app.Engine, app.Refit, app.Users, app.Cache, app.DB, app.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		app.Logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	app.Logger.Info("Server stopped")
}
