// Package cluster groups users by profile similarity and derives
// population-level supplement protocols per cluster.
package cluster

import (
	"sort"
	"strings"

	"github.com/supplement-advisor-server/internal/domain"
)

var genderVocab = []domain.Gender{domain.GenderMale, domain.GenderFemale, domain.GenderOther}

// Vectorizer converts user profiles into fixed-length numeric feature
// vectors: normalized age, one-hot gender, then binary indicators over
// the configured symptom and lifestyle vocabularies.
type Vectorizer struct {
	symptomVocab   []string
	lifestyleVocab []string
}

// NewVectorizer builds a vectorizer from the configured vocabularies,
// sorted for a stable feature order. Empty vocabularies fall back to
// the shipped defaults.
func NewVectorizer(cfg domain.ClusterConfig) *Vectorizer {
	symptoms := cfg.SymptomVocab
	if len(symptoms) == 0 {
		symptoms = DefaultSymptomVocab()
	}
	lifestyles := cfg.LifestyleVocab
	if len(lifestyles) == 0 {
		lifestyles = DefaultLifestyleVocab()
	}

	symptoms = lowerSorted(symptoms)
	lifestyles = lowerSorted(lifestyles)

	return &Vectorizer{
		symptomVocab:   symptoms,
		lifestyleVocab: lifestyles,
	}
}

// Dim returns the feature vector length.
func (v *Vectorizer) Dim() int {
	return 1 + len(genderVocab) + len(v.symptomVocab) + len(v.lifestyleVocab)
}

// Vectorize encodes one profile.
func (v *Vectorizer) Vectorize(user *domain.UserProfile) []float64 {
	vec := make([]float64, 0, v.Dim())
	vec = append(vec, float64(user.Age)/100.0)

	for _, g := range genderVocab {
		if user.Gender == g {
			vec = append(vec, 1)
		} else {
			vec = append(vec, 0)
		}
	}

	symptoms := make(map[string]bool, len(user.Symptoms))
	for _, s := range user.Symptoms {
		symptoms[strings.ToLower(s)] = true
	}
	for _, s := range v.symptomVocab {
		if symptoms[s] {
			vec = append(vec, 1)
		} else {
			vec = append(vec, 0)
		}
	}

	lifestyles := make(map[string]bool)
	for _, tag := range user.LifestyleTags() {
		lifestyles[strings.ToLower(tag)] = true
	}
	for _, l := range v.lifestyleVocab {
		if lifestyles[l] {
			vec = append(vec, 1)
		} else {
			vec = append(vec, 0)
		}
	}

	return vec
}

func lowerSorted(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	sort.Strings(out)
	return out
}

// DefaultSymptomVocab is the shipped clustering symptom vocabulary.
func DefaultSymptomVocab() []string {
	return []string{
		"fatigue", "low energy", "poor sleep", "anxiety", "low mood",
		"brain fog", "frequent colds", "cramps", "poor recovery", "hair loss",
	}
}

// DefaultLifestyleVocab is the shipped clustering lifestyle vocabulary.
func DefaultLifestyleVocab() []string {
	return []string{"vegan", "athlete", "pregnant"}
}
