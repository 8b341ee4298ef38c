package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/supplement-advisor-server/internal/domain"
)

// RefitJob recomputes the cluster model from the full persisted user
// population. Store access goes through a circuit breaker so a flapping
// backend fails the run fast instead of hammering it. The run is
// all-or-nothing: the new snapshot is published only after both the
// reassigned users and the regenerated protocols have been persisted.
type RefitJob struct {
	engine  *Engine
	users   domain.UserStore
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewRefitJob wires a refit job against the given engine and user store.
func NewRefitJob(engine *Engine, users domain.UserStore, logger *logrus.Logger) *RefitJob {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "user-store",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RefitJob{
		engine:  engine,
		users:   users,
		breaker: breaker,
		log:     logger,
	}
}

// Run performs one refit cycle. Concurrent runs serialize on the
// engine's fit lock.
func (j *RefitJob) Run(ctx context.Context) error {
	started := time.Now()

	loaded, err := j.breaker.Execute(func() (interface{}, error) {
		return j.users.LoadAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("loading users for refit: %w", err)
	}
	users := loaded.([]*domain.UserProfile)

	if len(users) == 0 {
		j.log.Warn("Refit skipped: no users in store")
		return nil
	}

	j.engine.fitMu.Lock()
	defer j.engine.fitMu.Unlock()

	previous := j.engine.Protocols()
	model, assignments := j.engine.buildModel(users)

	for i, user := range users {
		id := assignments[i]
		user.ClusterID = &id
	}

	// Protocols go first so a failure leaves the stale set and the old
	// cluster ids intact together. A user-save failure afterwards rolls
	// the protocol set back to the previous one before aborting.
	if j.engine.store != nil {
		if err := j.engine.store.Save(ctx, model.Protocols); err != nil {
			return &domain.PersistenceError{Op: "protocol save", Err: err}
		}
	}

	if _, err := j.breaker.Execute(func() (interface{}, error) {
		return nil, j.users.SaveAll(ctx, users)
	}); err != nil {
		if j.engine.store != nil {
			if restoreErr := j.engine.store.Save(ctx, previous); restoreErr != nil {
				j.log.WithError(restoreErr).Error("Failed to restore previous protocols after aborted user save")
			}
		}
		return fmt.Errorf("saving reassigned users: %w", err)
	}

	j.engine.model.Store(model)
	logProtocolChanges(j.log, previous, model.Protocols)

	j.log.WithFields(logrus.Fields{
		"user_count":    len(users),
		"cluster_count": len(model.Protocols),
		"duration":      time.Since(started).String(),
	}).Info("Cluster refit completed")

	return nil
}
