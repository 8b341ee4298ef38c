// Command clusterjob runs one clustering refit over the stored user
// population and exits. Intended to be scheduled (cron, systemd timer)
// rather than run per request.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/supplement-advisor-server/internal/config"
	"github.com/supplement-advisor-server/internal/database"
	"github.com/supplement-advisor-server/internal/setup"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "run postgres schema migrations and exit")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall job timeout")
	flag.Parse()

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := setup.NewLogger(cfg.Logging)

	if *migrateOnly {
		runner, err := database.NewMigrationRunner(
			configManager.GetDatabaseURL(), cfg.Database.MigrationsPath, logger)
		if err != nil {
			log.Fatalf("Failed to create migration runner: %v", err)
		}
		defer runner.Close()

		if err := runner.Up(); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
		return
	}

	app, err := setup.Build(configManager)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := app.Refit.Run(ctx); err != nil {
		log.Fatalf("Cluster refit failed: %v", err)
	}

	app.Cache.Invalidate(ctx)
	app.Logger.Info("Cluster refit job finished")
}
