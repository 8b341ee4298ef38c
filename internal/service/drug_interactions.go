package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/catalog"
	"github.com/supplement-advisor-server/internal/domain"
)

// DrugInteractionChecker cross-checks final recommendations against the
// user's medications using a static interaction table. Unknown
// medications and supplements with no table entry produce no flags.
type DrugInteractionChecker struct {
	table catalog.InteractionTable
	log   *logrus.Logger
}

// NewDrugInteractionChecker creates a checker over a loaded table.
func NewDrugInteractionChecker(table catalog.InteractionTable, logger *logrus.Logger) *DrugInteractionChecker {
	return &DrugInteractionChecker{
		table: table,
		log:   logger,
	}
}

// AttachFlags appends "Interacts with <medication>" flags to every
// recommendation named in one of the user's medications' interaction
// lists, case-insensitively. Returns the same slice.
func (c *DrugInteractionChecker) AttachFlags(user *domain.UserProfile, recs []*domain.SupplementRecommendation) []*domain.SupplementRecommendation {
	flagged := 0

	for _, med := range user.Medications {
		interacting := c.table.Lookup(med)
		if len(interacting) == 0 {
			continue
		}

		for _, rec := range recs {
			if containsFold(interacting, rec.Name) {
				rec.ValidationFlags = append(rec.ValidationFlags, fmt.Sprintf("Interacts with %s", strings.ToLower(med)))
				flagged++
			}
		}
	}

	if flagged > 0 {
		c.log.WithFields(logrus.Fields{
			"user_id":    user.UserID,
			"flag_count": flagged,
		}).Info("Attached drug interaction flags")
	}

	return recs
}
