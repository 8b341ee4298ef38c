// Package service implements the recommendation synthesis core: need
// scoring, dosage determination, feedback trend handling, safety
// validation, drug interaction checks and the orchestrating pipeline.
package service

import (
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/domain"
)

// NeedScorer maps a user's symptoms, lifestyle and feedback to a
// normalized per-nutrient need score in [0,1].
type NeedScorer struct {
	symptomWeights     map[string]map[string]float64
	lifestyleModifiers map[string]map[string]float64
	nutrients          []string
	log                *logrus.Logger
}

// NewNeedScorer creates a scorer from the configured weight maps.
// Empty maps fall back to the shipped defaults.
func NewNeedScorer(cfg domain.ScoringConfig, logger *logrus.Logger) *NeedScorer {
	symptomWeights := cfg.SymptomWeights
	if len(symptomWeights) == 0 {
		symptomWeights = DefaultSymptomWeights()
	}
	lifestyleModifiers := cfg.LifestyleModifiers
	if len(lifestyleModifiers) == 0 {
		lifestyleModifiers = DefaultLifestyleModifiers()
	}

	seen := make(map[string]bool)
	var nutrients []string
	for _, weights := range symptomWeights {
		for nutrient := range weights {
			if !seen[nutrient] {
				seen[nutrient] = true
				nutrients = append(nutrients, nutrient)
			}
		}
	}
	for _, bumps := range lifestyleModifiers {
		for nutrient := range bumps {
			if !seen[nutrient] {
				seen[nutrient] = true
				nutrients = append(nutrients, nutrient)
			}
		}
	}

	return &NeedScorer{
		symptomWeights:     lowerKeyed(symptomWeights),
		lifestyleModifiers: lowerKeyed(lifestyleModifiers),
		nutrients:          nutrients,
		log:                logger,
	}
}

// NutrientsForSymptom returns the nutrients associated with a symptom
// tag, used by the feedback trend engine to route adjustments.
func (s *NeedScorer) NutrientsForSymptom(symptom string) []string {
	weights, ok := s.symptomWeights[strings.ToLower(symptom)]
	if !ok {
		return nil
	}
	nutrients := make([]string, 0, len(weights))
	for nutrient := range weights {
		nutrients = append(nutrients, nutrient)
	}
	return nutrients
}

// Score accumulates symptom weights and lifestyle bumps per nutrient,
// then normalizes by the maximum raw score so the top need is exactly
// 1.0. All-zero output means nothing matched. Pure over the static
// maps and the profile snapshot; unknown tags contribute nothing.
func (s *NeedScorer) Score(user *domain.UserProfile) map[string]float64 {
	scores := make(map[string]float64, len(s.nutrients))
	for _, nutrient := range s.nutrients {
		scores[nutrient] = 0
	}

	symptoms := make([]string, 0, len(user.Symptoms))
	for _, sym := range user.Symptoms {
		symptoms = append(symptoms, strings.ToLower(sym))
	}
	if user.Feedback != nil {
		for _, sym := range user.Feedback.Symptoms {
			symptoms = append(symptoms, strings.ToLower(sym))
		}
	}

	for _, symptom := range symptoms {
		for nutrient, weight := range s.symptomWeights[symptom] {
			scores[nutrient] += weight
		}
	}

	for _, tag := range user.LifestyleTags() {
		for nutrient, bump := range s.lifestyleModifiers[strings.ToLower(tag)] {
			scores[nutrient] += bump
		}
	}

	var maxScore float64
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}

	for nutrient, score := range scores {
		if maxScore > 0 {
			scores[nutrient] = round3(math.Min(score/maxScore, 1.0))
		} else {
			scores[nutrient] = 0
		}
	}

	s.log.WithFields(logrus.Fields{
		"user_id":        user.UserID,
		"symptom_count":  len(symptoms),
		"nutrient_count": len(scores),
	}).Debug("Scored nutrient needs")

	return scores
}

func lowerKeyed(m map[string]map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DefaultSymptomWeights is the shipped symptom -> nutrient relevance
// map. Deployments override it through ScoringConfig.
func DefaultSymptomWeights() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"fatigue":        {"Vitamin B12": 0.9, "Iron": 0.8, "Vitamin D": 0.6, "Magnesium": 0.4},
		"low energy":     {"Iron": 0.7, "Vitamin B12": 0.6, "CoQ10": 0.4},
		"poor sleep":     {"Magnesium": 0.8, "Melatonin": 0.7, "Vitamin B6": 0.4},
		"anxiety":        {"Magnesium": 0.8, "Ashwagandha": 0.7, "Vitamin B6": 0.6},
		"low mood":       {"Omega-3": 0.8, "Vitamin D": 0.7, "Folate (B9)": 0.6},
		"brain fog":      {"Choline": 0.7, "Omega-3": 0.6, "Vitamin B12": 0.6},
		"frequent colds": {"Vitamin C": 0.7, "Zinc": 0.8, "Vitamin D": 0.6},
		"cramps":         {"Magnesium": 0.8, "Calcium": 0.6},
		"poor recovery":  {"Omega-3": 0.7, "Magnesium": 0.5},
		"hair loss":      {"Iron": 0.6, "Zinc": 0.6, "Biotin": 0.5},
	}
}

// DefaultLifestyleModifiers is the shipped lifestyle -> nutrient bump
// map.
func DefaultLifestyleModifiers() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"vegan":    {"Vitamin B12": 0.3, "Iron": 0.2, "Zinc": 0.2, "Omega-3": 0.2},
		"athlete":  {"Magnesium": 0.2, "CoQ10": 0.2, "Protein": 0.3},
		"pregnant": {"Folate (B9)": 0.4, "Iron": 0.3, "Calcium": 0.2, "DHA": 0.3},
	}
}
