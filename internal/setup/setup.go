package setup

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/catalog"
	"github.com/supplement-advisor-server/internal/cluster"
	"github.com/supplement-advisor-server/internal/database"
	"github.com/supplement-advisor-server/internal/domain"
	"github.com/supplement-advisor-server/internal/service"
	"github.com/supplement-advisor-server/internal/storage"
)

// App bundles the wired application components shared by the server
// and the cluster job binaries.
type App struct {
	Config    *domain.Config
	Logger    *logrus.Logger
	Users     domain.UserStore
	Protocols domain.ProtocolStore
	Catalog   *catalog.Store
	Engine    *cluster.Engine
	Refit     *cluster.RefitJob
	Pipeline  *service.RecommendationPipeline
	Cache     *service.ResultCache

	// DB is the pgx pool behind the postgres driver, nil for sqlite.
	// The health endpoint pings it.
	DB *database.DB

	redisClient *redis.Client
}

// Build wires the full component graph from configuration. A catalog
// load failure is fatal; nothing in the pipeline can run without it.
func Build(configManager domain.ConfigManager) (*App, error) {
	cfg := configManager.GetConfig()
	logger := NewLogger(cfg.Logging)

	users, protocols, err := storage.Open(cfg.Storage, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	var db *database.DB
	if cfg.Storage.Driver == "postgres" {
		db, err = database.NewConnection(context.Background(), cfg.Database, logger)
		if err != nil {
			users.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
	}

	catalogStore, err := catalog.LoadStore(cfg.Catalog.Path, logger)
	if err != nil {
		users.Close()
		return nil, fmt.Errorf("loading nutrient catalog: %w", err)
	}
	interactions := catalog.LoadInteractionTable(cfg.Catalog.InteractionsPath, logger)

	scorer := service.NewNeedScorer(cfg.Scoring, logger)
	dosage := service.NewDosageCalculator(catalogStore, logger)
	feedback := service.NewFeedbackTrendEngine(scorer, cfg.Scoring, logger)
	safety := service.NewSafetyValidator(catalogStore, logger)
	drugs := service.NewDrugInteractionChecker(interactions, logger)

	engine := cluster.NewEngine(cfg.Cluster, scorer, dosage, feedback, protocols, logger)
	refit := cluster.NewRefitJob(engine, users, logger)

	pipeline := service.NewRecommendationPipeline(
		scorer, dosage, feedback, safety, drugs, engine, cfg.Cluster, logger,
	)

	var redisClient *redis.Client
	if cfg.Cache.Enabled && cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			users.Close()
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
	}

	cache, err := service.NewResultCache(cfg.Cache, redisClient, logger)
	if err != nil {
		users.Close()
		return nil, fmt.Errorf("creating result cache: %w", err)
	}

	return &App{
		Config:      cfg,
		Logger:      logger,
		Users:       users,
		Protocols:   protocols,
		Catalog:     catalogStore,
		Engine:      engine,
		Refit:       refit,
		Pipeline:    pipeline,
		Cache:       cache,
		DB:          db,
		redisClient: redisClient,
	}, nil
}

// Close releases store and cache connections.
func (a *App) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Logger.WithError(err).Warn("Failed to close redis client")
		}
	}
	if err := a.Users.Close(); err != nil {
		a.Logger.WithError(err).Warn("Failed to close user store")
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// NewLogger builds a logrus logger from the logging configuration.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}
