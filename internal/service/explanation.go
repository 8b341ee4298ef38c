package service

import (
	"strings"

	"github.com/supplement-advisor-server/internal/domain"
)

// Provenance tag prefixes used in inputs_triggered.
const (
	tagSymptom         = "symptom: "
	tagGoal            = "goal: "
	tagBloodTest       = "blood_test: "
	tagWearable        = "wearable: "
	tagFeedback        = "feedback: "
	tagFeedbackSymptom = "feedback symptom: "
	tagLifestyle       = "lifestyle: "
	tagMedicalHistory  = "medical_history: "
)

const maxExplanationItems = 3

// BuildExplanation renders the concise human-readable explanation from
// a recommendation's triggers and provenance tags.
func BuildExplanation(rec *domain.SupplementRecommendation) string {
	var parts []string

	if symptoms := firstN(rec.TriggeredBy, maxExplanationItems); len(symptoms) > 0 {
		parts = append(parts, "symptoms: "+strings.Join(symptoms, ", "))
	}

	if goals := firstN(stripPrefix(rec.InputsTriggered, tagGoal), maxExplanationItems); len(goals) > 0 {
		parts = append(parts, "goals: "+strings.Join(goals, ", "))
	}

	if labs := stripPrefix(rec.InputsTriggered, tagBloodTest); len(labs) > 0 {
		parts = append(parts, "lab results: "+strings.Join(labs, ", "))
	}

	wearables := stripPrefix(rec.InputsTriggered, tagWearable)
	if hasTag(rec.InputsTriggered, "sunlight_exposure_minutes") {
		parts = append(parts, "low sunlight exposure")
	} else if len(wearables) > 0 {
		parts = append(parts, "wearable data: "+strings.Join(firstN(wearables, maxExplanationItems), ", "))
	}

	var feedbacks []string
	for _, tag := range rec.InputsTriggered {
		if strings.HasPrefix(tag, tagFeedbackSymptom) {
			feedbacks = append(feedbacks, strings.TrimPrefix(tag, tagFeedbackSymptom))
		} else if strings.HasPrefix(tag, tagFeedback) {
			feedbacks = append(feedbacks, strings.TrimPrefix(tag, tagFeedback))
		}
	}
	if len(feedbacks) > 0 {
		parts = append(parts, "recent feedback: "+strings.Join(firstN(feedbacks, maxExplanationItems), ", "))
	}

	if len(parts) == 0 {
		return "Recommended based on your profile."
	}
	return "Recommended due to " + strings.Join(parts, "; ") + "."
}

// StructuredExplanation breaks the explanation into display categories.
type StructuredExplanation struct {
	Symptoms          []string `json:"symptoms"`
	Goals             []string `json:"goals"`
	LabResults        []string `json:"lab_results"`
	WearableData      []string `json:"wearable_data"`
	RecentFeedback    []string `json:"recent_feedback"`
	Warnings          []string `json:"warnings"`
	Contraindications []string `json:"contraindications"`
}

// BuildStructuredExplanation renders the categorized variant.
func BuildStructuredExplanation(rec *domain.SupplementRecommendation) StructuredExplanation {
	out := StructuredExplanation{
		Symptoms:          firstN(rec.TriggeredBy, maxExplanationItems),
		Goals:             firstN(stripPrefix(rec.InputsTriggered, tagGoal), maxExplanationItems),
		LabResults:        stripPrefix(rec.InputsTriggered, tagBloodTest),
		Warnings:          rec.ValidationFlags,
		Contraindications: rec.Contraindications,
	}

	wearables := stripPrefix(rec.InputsTriggered, tagWearable)
	if hasTag(rec.InputsTriggered, "sunlight_exposure_minutes") {
		out.WearableData = append(out.WearableData, "low sunlight exposure")
	} else {
		out.WearableData = append(out.WearableData, firstN(wearables, maxExplanationItems)...)
	}

	for _, tag := range rec.InputsTriggered {
		if strings.HasPrefix(tag, tagFeedbackSymptom) {
			out.RecentFeedback = append(out.RecentFeedback, strings.TrimPrefix(tag, tagFeedbackSymptom))
		} else if strings.HasPrefix(tag, tagFeedback) {
			out.RecentFeedback = append(out.RecentFeedback, strings.TrimPrefix(tag, tagFeedback))
		}
	}
	out.RecentFeedback = firstN(out.RecentFeedback, maxExplanationItems)

	return out
}

func stripPrefix(tags []string, prefix string) []string {
	var out []string
	for _, tag := range tags {
		if strings.HasPrefix(tag, prefix) {
			out = append(out, strings.TrimPrefix(tag, prefix))
		}
	}
	return out
}

func hasTag(tags []string, substr string) bool {
	for _, tag := range tags {
		if strings.Contains(tag, substr) {
			return true
		}
	}
	return false
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
