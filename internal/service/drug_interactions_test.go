package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/supplement-advisor-server/internal/catalog"
	"github.com/supplement-advisor-server/internal/domain"
)

func newTestChecker(t *testing.T) *DrugInteractionChecker {
	t.Helper()
	table := catalog.LoadInteractionTable("", testLogger())
	return NewDrugInteractionChecker(table, testLogger())
}

func TestDrugInteractionChecker_WarfarinFlagsVitaminK(t *testing.T) {
	checker := newTestChecker(t)
	user := &domain.UserProfile{
		UserID:      "u1",
		Medications: []string{"Warfarin"},
	}

	recs := []*domain.SupplementRecommendation{
		{Name: "Vitamin K", Dosage: 90, Unit: "mcg"},
		{Name: "Omega-3", Dosage: 1000, Unit: "mg"},
		{Name: "Magnesium", Dosage: 300, Unit: "mg"},
	}

	checker.AttachFlags(user, recs)

	assert.Contains(t, recs[0].ValidationFlags, "Interacts with warfarin")
	assert.Contains(t, recs[1].ValidationFlags, "Interacts with warfarin")
	assert.Empty(t, recs[2].ValidationFlags)
}

func TestDrugInteractionChecker_UnknownMedicationIsIgnored(t *testing.T) {
	checker := newTestChecker(t)
	user := &domain.UserProfile{Medications: []string{"placebozine"}}

	recs := []*domain.SupplementRecommendation{
		{Name: "Iron", Dosage: 18, Unit: "mg"},
	}

	checker.AttachFlags(user, recs)
	assert.Empty(t, recs[0].ValidationFlags)
}

func TestDrugInteractionChecker_MultipleMedications(t *testing.T) {
	checker := newTestChecker(t)
	user := &domain.UserProfile{
		Medications: []string{"Levothyroxine", "Metformin"},
	}

	recs := []*domain.SupplementRecommendation{
		{Name: "Iron", Dosage: 18, Unit: "mg"},
		{Name: "Vitamin B12", Dosage: 500, Unit: "mcg"},
	}

	checker.AttachFlags(user, recs)

	assert.Contains(t, recs[0].ValidationFlags, "Interacts with levothyroxine")
	assert.Contains(t, recs[1].ValidationFlags, "Interacts with metformin")
}

func TestDrugInteractionChecker_NoMedications(t *testing.T) {
	checker := newTestChecker(t)
	user := &domain.UserProfile{}

	recs := []*domain.SupplementRecommendation{
		{Name: "Vitamin K", Dosage: 90, Unit: "mcg"},
	}

	checker.AttachFlags(user, recs)
	assert.Empty(t, recs[0].ValidationFlags)
}
