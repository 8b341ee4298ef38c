package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supplement-advisor-server/internal/domain"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"fitted":    s.engine.Fitted(),
	}

	if s.db != nil {
		if err := s.db.Health(c.Request.Context()); err != nil {
			body["status"] = "degraded"
			body["database"] = "down"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "up"
	}

	c.JSON(http.StatusOK, body)
}

// handleRecommend runs the recommendation pipeline for one profile.
func (s *Server) handleRecommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}

	profile, err := req.ToProfile()
	if err != nil {
		s.badRequest(c, err.Error())
		return
	}

	// Returning users keep their longitudinal state and cluster
	// assignment across requests.
	if req.UserID != "" {
		if existing, err := s.users.Get(c.Request.Context(), req.UserID); err == nil {
			profile.SymptomHistory = existing.SymptomHistory
			profile.DoseResponseLog = existing.DoseResponseLog
			profile.ClusterID = existing.ClusterID
		}
	}

	cacheKey := s.cache.Key(profile)
	if output, ok := s.cache.Get(c.Request.Context(), cacheKey); ok {
		c.JSON(http.StatusOK, output)
		return
	}

	output, err := s.pipeline.Run(profile)
	if err != nil {
		s.internalError(c, err)
		return
	}

	if err := s.users.Save(c.Request.Context(), profile); err != nil {
		// The recommendation is still valid; persistence is retried on
		// the next request.
		s.log.WithError(err).WithField("user_id", profile.UserID).Error("Failed to persist user profile")
	}

	s.cache.Put(c.Request.Context(), cacheKey, output)

	c.JSON(http.StatusOK, output)
}

// handleRecluster runs a full refit over the stored population.
func (s *Server) handleRecluster(c *gin.Context) {
	if err := s.refit.Run(c.Request.Context()); err != nil {
		s.internalError(c, err)
		return
	}

	s.cache.Invalidate(c.Request.Context())

	protocols := s.engine.Protocols()
	c.JSON(http.StatusOK, gin.H{
		"status":        "reclustered",
		"cluster_count": len(protocols),
	})
}

// handleGetProtocols returns the current cluster protocol set.
func (s *Server) handleGetProtocols(c *gin.Context) {
	protocols := s.engine.Protocols()

	ids := make([]int, 0, len(protocols))
	for id := range protocols {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	ordered := make([]*domain.ClusterProtocol, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, protocols[id])
	}

	c.JSON(http.StatusOK, gin.H{"protocols": ordered})
}

// handleGetUser returns one stored profile.
func (s *Server) handleGetUser(c *gin.Context) {
	userID := c.Param("id")

	user, err := s.users.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":          "User not found",
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, domain.NewAPIError(
		domain.ErrInvalidInput, message, "", c.GetString("correlation_id"),
	))
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.WithError(err).WithField("correlation_id", c.GetString("correlation_id")).Error("Request failed")
	c.JSON(http.StatusInternalServerError, domain.NewAPIError(
		domain.ErrInternalServer, "Internal server error", "", c.GetString("correlation_id"),
	))
}
