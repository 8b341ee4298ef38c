package cluster

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/domain"
	"github.com/supplement-advisor-server/internal/service"
)

// Model is one immutable fitted snapshot: centroids, cluster sizes and
// derived protocols. Refits publish a fresh Model atomically so
// concurrent readers never observe a half-updated protocol set.
type Model struct {
	Centroids [][]float64
	Sizes     map[int]int
	Protocols map[int]*domain.ClusterProtocol
	FittedAt  time.Time
}

// Engine discovers user clusters and their representative protocols.
// Read operations work against the current snapshot and return
// NotFittedError until one has been published.
type Engine struct {
	cfg        domain.ClusterConfig
	vectorizer *Vectorizer
	generator  *protocolGenerator
	store      domain.ProtocolStore
	log        *logrus.Logger

	model atomic.Pointer[Model]
	fitMu sync.Mutex

	// staleProtocols serve cluster lookups between construction and the
	// first fit; they come from the previous process's persisted set.
	staleProtocols map[int]*domain.ClusterProtocol
}

// NewEngine creates an engine and attempts to load previously persisted
// protocols so cluster-sourced recommendations can be served before the
// first fresh fit completes. A load failure is non-fatal: the engine
// starts empty and the pipeline falls back to the rule-based path.
func NewEngine(cfg domain.ClusterConfig, scorer *service.NeedScorer, dosage *service.DosageCalculator, trends *service.FeedbackTrendEngine, store domain.ProtocolStore, logger *logrus.Logger) *Engine {
	e := &Engine{
		cfg:        cfg,
		vectorizer: NewVectorizer(cfg),
		generator:  newProtocolGenerator(scorer, dosage, trends, logger),
		store:      store,
		log:        logger,
	}

	if store != nil {
		if protocols, err := store.Load(context.Background()); err != nil {
			logger.WithError(err).Warn("Could not load persisted cluster protocols")
		} else if len(protocols) > 0 {
			e.staleProtocols = protocols
			logger.WithField("cluster_count", len(protocols)).Info("Loaded persisted cluster protocols")
		}
	}

	return e
}

// Fitted reports whether a snapshot has been published.
func (e *Engine) Fitted() bool {
	return e.model.Load() != nil
}

// Fit partitions the users, assigns each one a cluster id, regenerates
// and persists the protocol set, and publishes the new snapshot. Stale
// protocols for now-empty clusters are dropped. The persist failure
// aborts the publish so readers keep the previous consistent snapshot.
func (e *Engine) Fit(ctx context.Context, users []*domain.UserProfile) error {
	e.fitMu.Lock()
	defer e.fitMu.Unlock()

	if len(users) == 0 {
		e.log.Warn("No users provided for clustering")
		return nil
	}

	model, assignments := e.buildModel(users)

	for i, user := range users {
		id := assignments[i]
		user.ClusterID = &id
	}

	if e.store != nil {
		if err := e.store.Save(ctx, model.Protocols); err != nil {
			return &domain.PersistenceError{Op: "protocol save", Err: err}
		}
	}

	e.model.Store(model)

	e.log.WithFields(logrus.Fields{
		"user_count":    len(users),
		"cluster_count": e.cfg.NumClusters,
	}).Info("Cluster model fitted and protocols published")

	return nil
}

// buildModel runs the partitioning and protocol generation without
// touching engine state; the caller decides when to publish.
func (e *Engine) buildModel(users []*domain.UserProfile) (*Model, []int) {
	vectors := make([][]float64, len(users))
	for i, user := range users {
		vectors[i] = e.vectorizer.Vectorize(user)
	}

	km := newKMeans(e.cfg.NumClusters, e.cfg.RandomSeed, e.cfg.MaxIterations)
	centroids, assignments := km.fit(vectors)

	members := make(map[int][]*domain.UserProfile, e.cfg.NumClusters)
	sizes := make(map[int]int, e.cfg.NumClusters)
	for i, user := range users {
		c := assignments[i]
		members[c] = append(members[c], user)
		sizes[c]++
	}

	now := time.Now().UTC()
	protocols := make(map[int]*domain.ClusterProtocol)
	for c := 0; c < e.cfg.NumClusters; c++ {
		recs := e.generator.Generate(members[c])
		if len(recs) == 0 {
			continue
		}
		protocols[c] = &domain.ClusterProtocol{
			ClusterID:       c,
			Recommendations: recs,
			GeneratedAt:     now,
		}
	}

	return &Model{
		Centroids: centroids,
		Sizes:     sizes,
		Protocols: protocols,
		FittedAt:  now,
	}, assignments
}

// AssignCluster predicts the nearest centroid id for a user.
func (e *Engine) AssignCluster(user *domain.UserProfile) (int, error) {
	model := e.model.Load()
	if model == nil {
		return 0, &domain.NotFittedError{Operation: "AssignCluster"}
	}
	return nearestCentroid(e.vectorizer.Vectorize(user), model.Centroids), nil
}

// DistanceToCentroid returns the Euclidean distance between the user's
// feature vector and its assigned cluster's centroid.
func (e *Engine) DistanceToCentroid(user *domain.UserProfile) (float64, error) {
	model := e.model.Load()
	if model == nil {
		return 0, &domain.NotFittedError{Operation: "DistanceToCentroid"}
	}
	vec := e.vectorizer.Vectorize(user)
	return euclideanDistance(vec, model.Centroids[nearestCentroid(vec, model.Centroids)]), nil
}

// DistanceToAllCentroids returns distances to every centroid, indexed
// by cluster id.
func (e *Engine) DistanceToAllCentroids(user *domain.UserProfile) ([]float64, error) {
	model := e.model.Load()
	if model == nil {
		return nil, &domain.NotFittedError{Operation: "DistanceToAllCentroids"}
	}
	vec := e.vectorizer.Vectorize(user)
	distances := make([]float64, len(model.Centroids))
	for i, c := range model.Centroids {
		distances[i] = euclideanDistance(vec, c)
	}
	return distances, nil
}

// Protocol returns the recommendation list for a cluster. Before the
// first fit it serves the persisted (possibly stale) set.
func (e *Engine) Protocol(clusterID int) ([]*domain.SupplementRecommendation, bool) {
	if model := e.model.Load(); model != nil {
		p, ok := model.Protocols[clusterID]
		if !ok {
			return nil, false
		}
		return p.Recommendations, true
	}
	p, ok := e.staleProtocols[clusterID]
	if !ok {
		return nil, false
	}
	return p.Recommendations, true
}

// Protocols returns the full current protocol set.
func (e *Engine) Protocols() map[int]*domain.ClusterProtocol {
	if model := e.model.Load(); model != nil {
		return model.Protocols
	}
	return e.staleProtocols
}

// ClusterSize returns the member count of a cluster in the current
// snapshot, zero when unknown.
func (e *Engine) ClusterSize(clusterID int) int {
	model := e.model.Load()
	if model == nil {
		return 0
	}
	return model.Sizes[clusterID]
}
