package service

import (
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/domain"
)

// Score adjustments per detected trend.
const (
	worseningBump      = 0.2
	improvingDrop      = 0.1
	stagnantBump       = 0.05
	defaultTrendWindow = 3
)

// Display flags appended by feedback labeling.
const (
	FlagImproved = "User reported improvement"
	FlagWorsened = "Symptom worsened"
	FlagNoChange = "No change reported"
)

// FeedbackTrendEngine maintains longitudinal per-symptom status history
// on the profile and adjusts need scores from detected trends.
type FeedbackTrendEngine struct {
	scorer      *NeedScorer
	trendWindow int
	now         func() time.Time
	log         *logrus.Logger
}

// NewFeedbackTrendEngine creates the engine. The scorer supplies the
// symptom -> nutrient routing for score adjustments.
func NewFeedbackTrendEngine(scorer *NeedScorer, cfg domain.ScoringConfig, logger *logrus.Logger) *FeedbackTrendEngine {
	window := cfg.TrendWindow
	if window <= 0 {
		window = defaultTrendWindow
	}
	return &FeedbackTrendEngine{
		scorer:      scorer,
		trendWindow: window,
		now:         time.Now,
		log:         logger,
	}
}

// NormalizeStatus folds raw feedback wording into the canonical status
// set. Unknown statuses pass through unchanged and never form a trend.
func NormalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "worse", "worsened", domain.StatusWorsening:
		return domain.StatusWorsening
	case "better", "improved", domain.StatusImproving:
		return domain.StatusImproving
	case domain.StatusSame:
		return domain.StatusSame
	}
	return strings.ToLower(strings.TrimSpace(status))
}

// AdjustScores appends today's normalized feedback statuses to the
// user's symptom history, detects trends over the last window, and
// shifts the associated nutrient scores: worsening +0.2, improving
// -0.1 floored at zero, stagnant +0.05. Adjustments are uncapped above
// 1.0; the caller re-normalizes if it needs to. Also logs one
// dose-response entry per active recommendation as a side effect.
func (e *FeedbackTrendEngine) AdjustScores(user *domain.UserProfile, scores map[string]float64) map[string]float64 {
	e.appendHistory(user)

	trends := e.DetectTrends(user.SymptomHistory)
	scores = e.applyTrends(trends, scores)

	if len(trends) > 0 {
		e.log.WithFields(logrus.Fields{
			"user_id":     user.UserID,
			"trend_count": len(trends),
		}).Info("Adjusted nutrient scores from feedback trends")
	}

	e.logDoseResponses(user)

	return scores
}

// AdjustFromHistory shifts nutrient scores from trends detected over an
// already recorded symptom history, without touching the history or the
// dose-response log. The cluster protocol generator runs it over each
// member's persisted history before averaging.
func (e *FeedbackTrendEngine) AdjustFromHistory(history map[string][]domain.SymptomStatus, scores map[string]float64) map[string]float64 {
	return e.applyTrends(e.DetectTrends(history), scores)
}

func (e *FeedbackTrendEngine) applyTrends(trends map[string]string, scores map[string]float64) map[string]float64 {
	for symptom, trend := range trends {
		for _, nutrient := range e.scorer.NutrientsForSymptom(symptom) {
			switch trend {
			case domain.StatusWorsening:
				scores[nutrient] = scores[nutrient] + worseningBump
			case domain.StatusImproving:
				scores[nutrient] = math.Max(scores[nutrient]-improvingDrop, 0)
			case domain.TrendStagnant:
				scores[nutrient] = scores[nutrient] + stagnantBump
			}
		}
	}
	return scores
}

// RecordFeedback appends today's feedback statuses to the symptom
// history and logs dose-response entries for active recommendations,
// leaving need scores untouched. This is the side-effect half of
// AdjustScores, used where feedback only labels the output.
func (e *FeedbackTrendEngine) RecordFeedback(user *domain.UserProfile) {
	e.appendHistory(user)
	e.logDoseResponses(user)
}

// appendHistory writes one dated status entry per symptom reported in
// the current feedback. Duplicate same-day calls append duplicates.
func (e *FeedbackTrendEngine) appendHistory(user *domain.UserProfile) {
	if user.Feedback == nil {
		return
	}

	today := e.now().Format("2006-01-02")
	for symptom, status := range user.Feedback.SymptomChanges {
		user.AppendSymptomStatus(symptom, domain.SymptomStatus{
			Date:   today,
			Status: NormalizeStatus(status),
		})
	}
}

// DetectTrends inspects the last window entries per symptom. A trend is
// reported only when all entries in the window are identical; any
// mixture omits the symptom from the output.
func (e *FeedbackTrendEngine) DetectTrends(history map[string][]domain.SymptomStatus) map[string]string {
	trends := make(map[string]string)

	for symptom, entries := range history {
		if len(entries) < e.trendWindow {
			continue
		}
		window := entries[len(entries)-e.trendWindow:]

		uniform := true
		for _, entry := range window[1:] {
			if entry.Status != window[0].Status {
				uniform = false
				break
			}
		}
		if !uniform {
			continue
		}

		switch window[0].Status {
		case domain.StatusWorsening:
			trends[symptom] = domain.StatusWorsening
		case domain.StatusImproving:
			trends[symptom] = domain.StatusImproving
		case domain.StatusSame:
			trends[symptom] = domain.TrendStagnant
		}
	}

	return trends
}

// logDoseResponses appends one dose-response entry per active
// recommendation, capturing per-targeted-symptom outcomes from the
// current feedback. No-op when no recommendations are attached; this
// side effect never fails the scoring call.
func (e *FeedbackTrendEngine) logDoseResponses(user *domain.UserProfile) {
	if len(user.Recommendations) == 0 {
		return
	}

	today := e.now().Format("2006-01-02")
	var changes map[string]string
	if user.Feedback != nil {
		changes = user.Feedback.SymptomChanges
	}

	for _, rec := range user.Recommendations {
		outcome := make(map[string]string, len(rec.TriggeredBy))
		for _, symptom := range rec.TriggeredBy {
			status, ok := changes[symptom]
			if !ok {
				status = "unknown"
			}
			outcome[symptom] = status
		}
		user.AppendDoseResponse(domain.DoseResponseEntry{
			Date:             today,
			Supplement:       rec.Name,
			Dose:             rec.Dosage,
			Unit:             rec.Unit,
			SymptomsTargeted: append([]string(nil), rec.TriggeredBy...),
			Outcome:          outcome,
		})
	}
}

// LabelRecommendations appends display-only feedback flags to
// recommendations whose triggers match reported symptom changes. It
// never alters dosage; this is the pipeline's one feedback contract.
func (e *FeedbackTrendEngine) LabelRecommendations(user *domain.UserProfile, recs []*domain.SupplementRecommendation) []*domain.SupplementRecommendation {
	if user.Feedback == nil || len(user.Feedback.SymptomChanges) == 0 {
		return recs
	}

	for _, rec := range recs {
		for symptom, change := range user.Feedback.SymptomChanges {
			var flag string
			switch NormalizeStatus(change) {
			case domain.StatusImproving:
				flag = FlagImproved
			case domain.StatusWorsening:
				flag = FlagWorsened
			case domain.StatusSame:
				flag = FlagNoChange
			default:
				continue
			}

			for _, trigger := range rec.TriggeredBy {
				if strings.EqualFold(trigger, symptom) {
					rec.ValidationFlags = append(rec.ValidationFlags, flag)
					break
				}
			}
		}
	}

	return recs
}
