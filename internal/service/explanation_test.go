package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/supplement-advisor-server/internal/domain"
)

func TestBuildExplanation_AllCategories(t *testing.T) {
	rec := &domain.SupplementRecommendation{
		Name:        "Vitamin D",
		TriggeredBy: []string{"fatigue", "low mood"},
		InputsTriggered: []string{
			"symptom: fatigue",
			"goal: more energy",
			"blood_test: Vitamin D=15 ng/mL",
			"wearable: sleep_hours",
			"feedback: mood=low",
		},
	}

	got := BuildExplanation(rec)

	assert.Contains(t, got, "symptoms: fatigue, low mood")
	assert.Contains(t, got, "goals: more energy")
	assert.Contains(t, got, "lab results: Vitamin D=15 ng/mL")
	assert.Contains(t, got, "wearable data: sleep_hours")
	assert.Contains(t, got, "recent feedback: mood=low")
	assert.Contains(t, got, "Recommended due to ")
	assert.Equal(t, byte('.'), got[len(got)-1])
}

func TestBuildExplanation_SunlightOverridesWearableList(t *testing.T) {
	rec := &domain.SupplementRecommendation{
		InputsTriggered: []string{
			"wearable: sunlight_exposure_minutes",
			"wearable: sleep_hours",
		},
	}

	got := BuildExplanation(rec)
	assert.Contains(t, got, "low sunlight exposure")
	assert.NotContains(t, got, "wearable data:")
}

func TestBuildExplanation_TruncatesToThree(t *testing.T) {
	rec := &domain.SupplementRecommendation{
		TriggeredBy: []string{"fatigue", "anxiety", "cramps", "brain fog", "hair loss"},
	}

	got := BuildExplanation(rec)
	assert.Contains(t, got, "symptoms: fatigue, anxiety, cramps")
	assert.NotContains(t, got, "brain fog")
}

func TestBuildExplanation_EmptyFallback(t *testing.T) {
	rec := &domain.SupplementRecommendation{}
	assert.Equal(t, "Recommended based on your profile.", BuildExplanation(rec))
}

func TestBuildExplanation_FeedbackSymptomTags(t *testing.T) {
	rec := &domain.SupplementRecommendation{
		InputsTriggered: []string{
			"feedback symptom: fatigue",
			"feedback: energy=low",
		},
	}

	got := BuildExplanation(rec)
	assert.Contains(t, got, "recent feedback: fatigue, energy=low")
}

func TestBuildStructuredExplanation(t *testing.T) {
	rec := &domain.SupplementRecommendation{
		TriggeredBy: []string{"fatigue"},
		InputsTriggered: []string{
			"goal: sleep better",
			"blood_test: Ferritin=20 µg/dL",
			"wearable: hrv",
			"feedback: stress=high",
		},
		ValidationFlags:   []string{FlagExceedsUpperLimit},
		Contraindications: []string{"hemochromatosis"},
	}

	out := BuildStructuredExplanation(rec)

	assert.Equal(t, []string{"fatigue"}, out.Symptoms)
	assert.Equal(t, []string{"sleep better"}, out.Goals)
	assert.Equal(t, []string{"Ferritin=20 µg/dL"}, out.LabResults)
	assert.Equal(t, []string{"hrv"}, out.WearableData)
	assert.Equal(t, []string{"stress=high"}, out.RecentFeedback)
	assert.Equal(t, []string{FlagExceedsUpperLimit}, out.Warnings)
	assert.Equal(t, []string{"hemochromatosis"}, out.Contraindications)
}
