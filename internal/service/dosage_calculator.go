package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/catalog"
	"github.com/supplement-advisor-server/internal/domain"
)

// Need score breakpoints for the piecewise dose formula.
const (
	lowNeedThreshold  = 0.3
	highNeedThreshold = 0.7
	ironLabThreshold  = 60
	ironSymptomFloor  = 0.9
)

// DoseResult is the tagged outcome of a dosage determination. Found
// distinguishes "nutrient absent from the catalog" from a legitimate
// zero dose.
type DoseResult struct {
	Dose  float64
	Unit  string
	Notes []string
	Found bool
}

// DosageCalculator converts a need score plus demographics into a
// concrete dose bounded by the reference catalog. It never errors on
// missing data; every degenerate input degrades to a documented
// zero-dose outcome with an explanatory note.
type DosageCalculator struct {
	catalog *catalog.Store
	log     *logrus.Logger
}

// NewDosageCalculator creates a calculator over a reference catalog.
func NewDosageCalculator(store *catalog.Store, logger *logrus.Logger) *DosageCalculator {
	return &DosageCalculator{
		catalog: store,
		log:     logger,
	}
}

// DoseOptions tune a single determination.
type DoseOptions struct {
	// OtherSupplements are names already on the user's plan, checked
	// for textual overlap with the nutrient.
	OtherSupplements []string
	// BypassUpperLimit disables the upper-limit clamp (test/debug
	// mode). The safety validator still flags the overage.
	BypassUpperLimit bool
}

// Determine computes the dose for one nutrient. The iron/male policy
// override takes precedence over the generic piecewise formula.
func (c *DosageCalculator) Determine(nutrient string, needScore float64, user *domain.UserProfile, opts DoseOptions) DoseResult {
	if strings.EqualFold(nutrient, "iron") && user.Gender == domain.GenderMale {
		if result, overridden := c.ironMaleOverride(needScore, user); overridden {
			return result
		}
	}

	result := c.doseFromCatalog(nutrient, needScore, user, opts)

	// A recorded iron deficiency overrides the generic hemochromatosis
	// contraindication noise on iron results.
	if strings.EqualFold(nutrient, "iron") && user.HasMedicalCondition("iron deficiency") {
		kept := result.Notes[:0]
		for _, note := range result.Notes {
			if !strings.Contains(strings.ToLower(note), "hemochromatosis") {
				kept = append(kept, note)
			}
		}
		result.Notes = kept
	}

	return result
}

// ironMaleOverride restricts iron for males without deficiency
// evidence: normal labs, or no labs with a weak symptom score, both
// yield a zero dose with a specific note.
func (c *DosageCalculator) ironMaleOverride(needScore float64, user *domain.UserProfile) (DoseResult, bool) {
	if len(user.BloodTests) > 0 {
		deficient := false
		for _, bt := range catalog.NormalizeBloodTests(user.BloodTests) {
			marker := strings.ToLower(bt.Marker)
			if (strings.Contains(marker, "ferritin") || strings.Contains(marker, "iron")) && bt.Value < ironLabThreshold {
				deficient = true
				break
			}
		}
		if !deficient {
			return DoseResult{
				Unit:  "mg",
				Notes: []string{"Male without iron deficiency (labs normal)"},
				Found: true,
			}, true
		}
		return DoseResult{}, false
	}

	if needScore < ironSymptomFloor {
		return DoseResult{
			Unit:  "mg",
			Notes: []string{"Male without labs and low symptom score"},
			Found: true,
		}, true
	}
	return DoseResult{}, false
}

// doseFromCatalog applies the piecewise formula against the catalog
// entry. A missing entry is not an error; it returns a zero-value
// result with Found=false, signalling "no protocol defined".
func (c *DosageCalculator) doseFromCatalog(nutrient string, needScore float64, user *domain.UserProfile, opts DoseOptions) DoseResult {
	ref, ok := c.catalog.Lookup(nutrient)
	if !ok {
		c.log.WithField("nutrient", nutrient).Debug("Nutrient not in catalog, skipping")
		return DoseResult{}
	}

	rda := c.catalog.RDA(ref, user.Gender, user.Age)

	var dose float64
	switch {
	case needScore < lowNeedThreshold:
		dose = rda
	case needScore < highNeedThreshold:
		dose = (rda + ref.OptimalRange.Min) / 2
	default:
		dose = ref.OptimalRange.Max
	}

	if !opts.BypassUpperLimit && ref.UpperLimit > 0 && dose > ref.UpperLimit {
		dose = ref.UpperLimit
	}

	notes := append([]string(nil), ref.Contraindications...)
	for _, supp := range opts.OtherSupplements {
		if strings.Contains(strings.ToLower(supp), strings.ToLower(ref.Name)) {
			notes = append(notes, fmt.Sprintf("Overlap: already included in '%s'", supp))
		}
	}

	return DoseResult{
		Dose:  round2(dose),
		Unit:  ref.Unit,
		Notes: notes,
		Found: true,
	}
}
