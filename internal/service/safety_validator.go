package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/catalog"
	"github.com/supplement-advisor-server/internal/domain"
)

// Flag texts appended by the validator.
const (
	FlagExceedsUpperLimit = "Exceeds upper limit"
)

// SafetyValidator runs the post-hoc multi-recommendation pass: upper
// limit, contraindication and pairwise interaction checks. Checks are
// independent and cumulative; one recommendation can carry several
// flags of different kinds.
type SafetyValidator struct {
	catalog *catalog.Store
	log     *logrus.Logger
}

// NewSafetyValidator creates a validator over the reference catalog.
func NewSafetyValidator(store *catalog.Store, logger *logrus.Logger) *SafetyValidator {
	return &SafetyValidator{
		catalog: store,
		log:     logger,
	}
}

// Validate appends flags to each recommendation in place and returns
// the same slice. Flags are never removed within a pipeline run.
func (v *SafetyValidator) Validate(user *domain.UserProfile, recs []*domain.SupplementRecommendation) []*domain.SupplementRecommendation {
	for _, rec := range recs {
		ref, ok := v.catalog.Lookup(rec.Name)
		if !ok {
			// Cluster and externally sourced recommendations may name
			// supplements outside the catalog; nothing to check.
			continue
		}

		if ref.UpperLimit > 0 && rec.Dosage > ref.UpperLimit {
			rec.ValidationFlags = append(rec.ValidationFlags, FlagExceedsUpperLimit)
		}

		for _, condition := range ref.Contraindications {
			if user.HasCondition(condition) {
				rec.ValidationFlags = append(rec.ValidationFlags, fmt.Sprintf("Contraindicated for: %s", condition))
			}
		}

		if interactions := v.pairwiseInteractions(rec, ref, recs); len(interactions) > 0 {
			rec.ValidationFlags = append(rec.ValidationFlags, fmt.Sprintf("May interact with: %s", strings.Join(interactions, ", ")))
		}
	}

	v.log.WithFields(logrus.Fields{
		"user_id":              user.UserID,
		"recommendation_count": len(recs),
	}).Debug("Completed safety validation")

	return recs
}

// pairwiseInteractions collects the names of other recommendations in
// the batch that interact with rec, checked in both directions,
// deduplicated and sorted.
func (v *SafetyValidator) pairwiseInteractions(rec *domain.SupplementRecommendation, ref *domain.NutrientReference, batch []*domain.SupplementRecommendation) []string {
	seen := make(map[string]bool)

	for _, other := range batch {
		if strings.EqualFold(other.Name, rec.Name) {
			continue
		}

		if containsFold(ref.Interactions, other.Name) {
			seen[other.Name] = true
			continue
		}

		if otherRef, ok := v.catalog.Lookup(other.Name); ok {
			if containsFold(otherRef.Interactions, rec.Name) {
				seen[other.Name] = true
			}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
