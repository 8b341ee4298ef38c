package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplement-advisor-server/internal/catalog"
	"github.com/supplement-advisor-server/internal/domain"
)

func newTestValidator(t *testing.T) *SafetyValidator {
	t.Helper()
	store, err := catalog.LoadStore("", testLogger())
	require.NoError(t, err)
	return NewSafetyValidator(store, testLogger())
}

func TestSafetyValidator_ExceedsUpperLimit(t *testing.T) {
	validator := newTestValidator(t)
	user := &domain.UserProfile{UserID: "u1", Age: 30, Gender: domain.GenderFemale}

	recs := []*domain.SupplementRecommendation{
		{Name: "Iron", Dosage: 50, Unit: "mg"},
		{Name: "Vitamin D", Dosage: 2000, Unit: "IU"},
	}

	validator.Validate(user, recs)

	assert.Contains(t, recs[0].ValidationFlags, FlagExceedsUpperLimit)
	assert.NotContains(t, recs[1].ValidationFlags, FlagExceedsUpperLimit)
}

func TestSafetyValidator_DoseAtLimitIsNotFlagged(t *testing.T) {
	validator := newTestValidator(t)
	user := &domain.UserProfile{Age: 30, Gender: domain.GenderFemale}

	recs := []*domain.SupplementRecommendation{
		{Name: "Iron", Dosage: 45, Unit: "mg"},
	}

	validator.Validate(user, recs)
	assert.NotContains(t, recs[0].ValidationFlags, FlagExceedsUpperLimit)
}

func TestSafetyValidator_Contraindication(t *testing.T) {
	validator := newTestValidator(t)
	user := &domain.UserProfile{
		UserID:         "u1",
		Age:            40,
		Gender:         domain.GenderFemale,
		MedicalHistory: map[string]bool{"Hemochromatosis": true, "asthma": true},
	}

	recs := []*domain.SupplementRecommendation{
		{Name: "Iron", Dosage: 18, Unit: "mg"},
	}

	validator.Validate(user, recs)
	assert.Contains(t, recs[0].ValidationFlags, "Contraindicated for: hemochromatosis")
}

func TestSafetyValidator_FalseHistoryEntryIsIgnored(t *testing.T) {
	validator := newTestValidator(t)
	user := &domain.UserProfile{
		Age:            40,
		Gender:         domain.GenderFemale,
		MedicalHistory: map[string]bool{"hemochromatosis": false},
	}

	recs := []*domain.SupplementRecommendation{
		{Name: "Iron", Dosage: 18, Unit: "mg"},
	}

	validator.Validate(user, recs)
	assert.Empty(t, recs[0].ValidationFlags)
}

func TestSafetyValidator_PairwiseInteractions(t *testing.T) {
	validator := newTestValidator(t)
	user := &domain.UserProfile{Age: 30, Gender: domain.GenderFemale}

	recs := []*domain.SupplementRecommendation{
		{Name: "Iron", Dosage: 18, Unit: "mg"},
		{Name: "Calcium", Dosage: 1000, Unit: "mg"},
		{Name: "Zinc", Dosage: 15, Unit: "mg"},
		{Name: "Vitamin C", Dosage: 200, Unit: "mg"},
	}

	validator.Validate(user, recs)

	// Interaction names are deduplicated and sorted.
	assert.Contains(t, recs[0].ValidationFlags, "May interact with: Calcium, Zinc")
	assert.Contains(t, recs[1].ValidationFlags, "May interact with: Iron, Zinc")
	assert.Contains(t, recs[2].ValidationFlags, "May interact with: Calcium, Iron")
	assert.Empty(t, recs[3].ValidationFlags)
}

func TestSafetyValidator_UnknownSupplementIsSkipped(t *testing.T) {
	validator := newTestValidator(t)
	user := &domain.UserProfile{
		Age:            30,
		Gender:         domain.GenderFemale,
		MedicalHistory: map[string]bool{"hemochromatosis": true},
	}

	recs := []*domain.SupplementRecommendation{
		{Name: "Proprietary Blend X", Dosage: 9999, Unit: "mg"},
	}

	validator.Validate(user, recs)
	assert.Empty(t, recs[0].ValidationFlags)
}

func TestSafetyValidator_FlagsAccumulate(t *testing.T) {
	validator := newTestValidator(t)
	user := &domain.UserProfile{
		Age:            30,
		Gender:         domain.GenderFemale,
		MedicalHistory: map[string]bool{"hemochromatosis": true},
	}

	recs := []*domain.SupplementRecommendation{
		{Name: "Iron", Dosage: 60, Unit: "mg"},
		{Name: "Calcium", Dosage: 1000, Unit: "mg"},
	}

	validator.Validate(user, recs)

	require.Len(t, recs[0].ValidationFlags, 3)
	assert.Equal(t, FlagExceedsUpperLimit, recs[0].ValidationFlags[0])
	assert.Equal(t, "Contraindicated for: hemochromatosis", recs[0].ValidationFlags[1])
	assert.Equal(t, "May interact with: Calcium", recs[0].ValidationFlags[2])
}
