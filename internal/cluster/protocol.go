package cluster

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/domain"
	"github.com/supplement-advisor-server/internal/service"
)

// protocolGenerator derives a cluster's baseline recommendations. Each
// member's need scores are shifted by the trends in their recorded
// symptom history, averaged across the cluster, then dosed once against
// a synthetic representative: median age, modal gender and the
// cluster's three most common symptoms.
type protocolGenerator struct {
	scorer *service.NeedScorer
	dosage *service.DosageCalculator
	trends *service.FeedbackTrendEngine
	log    *logrus.Logger
}

func newProtocolGenerator(scorer *service.NeedScorer, dosage *service.DosageCalculator, trends *service.FeedbackTrendEngine, logger *logrus.Logger) *protocolGenerator {
	return &protocolGenerator{scorer: scorer, dosage: dosage, trends: trends, log: logger}
}

// Generate builds the recommendation list for one cluster's members.
// Empty clusters and clusters whose members need nothing yield an
// empty list. Zero-dose nutrients are skipped.
func (g *protocolGenerator) Generate(members []*domain.UserProfile) []*domain.SupplementRecommendation {
	if len(members) == 0 {
		return nil
	}

	totals := make(map[string]float64)
	for _, m := range members {
		scores := g.trends.AdjustFromHistory(m.SymptomHistory, g.scorer.Score(m))
		for nutrient, score := range scores {
			totals[nutrient] += score
		}
	}

	avgScores := make(map[string]float64, len(totals))
	for nutrient, total := range totals {
		avgScores[nutrient] = total / float64(len(members))
	}

	rep := g.representative(members)

	nutrients := make([]string, 0, len(avgScores))
	for nutrient := range avgScores {
		nutrients = append(nutrients, nutrient)
	}
	sort.Strings(nutrients)

	recs := make([]*domain.SupplementRecommendation, 0, len(nutrients))
	for _, nutrient := range nutrients {
		score := avgScores[nutrient]
		if score <= 0 {
			continue
		}
		result := g.dosage.Determine(nutrient, score, rep, service.DoseOptions{})
		if !result.Found || result.Dose <= 0 {
			continue
		}
		rec := &domain.SupplementRecommendation{
			Name:              nutrient,
			Dosage:            result.Dose,
			Unit:              result.Unit,
			Reason:            fmt.Sprintf("Cluster baseline need score: %s", formatScore(score)),
			TriggeredBy:       append([]string(nil), rep.Symptoms...),
			Contraindications: result.Notes,
			InputsTriggered:   []string{},
			Source:            domain.SourceCluster,
		}
		rec.Explanation = service.BuildExplanation(rec)
		recs = append(recs, rec)
	}

	g.log.WithFields(logrus.Fields{
		"member_count":         len(members),
		"recommendation_count": len(recs),
	}).Debug("Generated cluster protocol")

	return recs
}

// representative synthesizes a profile that stands in for the cluster.
func (g *protocolGenerator) representative(members []*domain.UserProfile) *domain.UserProfile {
	ages := make([]int, 0, len(members))
	genderCounts := make(map[domain.Gender]int)
	symptomCounts := make(map[string]int)

	for _, m := range members {
		ages = append(ages, m.Age)
		genderCounts[m.Gender]++
		for _, s := range m.Symptoms {
			symptomCounts[strings.ToLower(s)]++
		}
	}

	sort.Ints(ages)
	medianAge := ages[len(ages)/2]
	if len(ages)%2 == 0 {
		medianAge = (ages[len(ages)/2-1] + ages[len(ages)/2]) / 2
	}

	modalGender := domain.GenderFemale
	best := 0
	for _, gender := range []domain.Gender{domain.GenderFemale, domain.GenderMale, domain.GenderOther} {
		if genderCounts[gender] > best {
			best = genderCounts[gender]
			modalGender = gender
		}
	}

	return &domain.UserProfile{
		UserID:   "cluster-representative",
		Age:      medianAge,
		Gender:   modalGender,
		Symptoms: topSymptoms(symptomCounts, 3),
	}
}

// topSymptoms returns the n most frequent symptoms, ties broken
// alphabetically for determinism.
func topSymptoms(counts map[string]int, n int) []string {
	symptoms := make([]string, 0, len(counts))
	for s := range counts {
		symptoms = append(symptoms, s)
	}
	sort.Slice(symptoms, func(i, j int) bool {
		if counts[symptoms[i]] != counts[symptoms[j]] {
			return counts[symptoms[i]] > counts[symptoms[j]]
		}
		return symptoms[i] < symptoms[j]
	})
	if len(symptoms) > n {
		symptoms = symptoms[:n]
	}
	return symptoms
}

// formatScore renders a need score rounded to three decimals without
// trailing zeros, e.g. 0.85 rather than 0.850.
func formatScore(score float64) string {
	return strconv.FormatFloat(math.Round(score*1000)/1000, 'f', -1, 64)
}
