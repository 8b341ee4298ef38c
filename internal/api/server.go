package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/cluster"
	"github.com/supplement-advisor-server/internal/database"
	"github.com/supplement-advisor-server/internal/domain"
	"github.com/supplement-advisor-server/internal/middleware"
	"github.com/supplement-advisor-server/internal/service"
)

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	router        *gin.Engine
	server        *http.Server

	pipeline *service.RecommendationPipeline
	engine   *cluster.Engine
	refit    *cluster.RefitJob
	users    domain.UserStore
	cache    *service.ResultCache
	db       *database.DB
	log      *logrus.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(
	configManager domain.ConfigManager,
	pipeline *service.RecommendationPipeline,
	engine *cluster.Engine,
	refit *cluster.RefitJob,
	users domain.UserStore,
	cache *service.ResultCache,
	db *database.DB,
	logger *logrus.Logger,
) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(cfg.RateLimit))

	server := &Server{
		configManager: configManager,
		router:        router,
		pipeline:      pipeline,
		engine:        engine,
		refit:         refit,
		users:         users,
		cache:         cache,
		db:            db,
		log:           logger,
	}

	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.log.WithField("addr", addr).Info("HTTP server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/recommend", s.handleRecommend)
		v1.POST("/recluster", s.handleRecluster)
		v1.GET("/protocols", s.handleGetProtocols)
		v1.GET("/users/:id", s.handleGetUser)
	}
}
