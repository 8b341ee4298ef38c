package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/catalog"
	"github.com/supplement-advisor-server/internal/domain"
)

// Confidence attached to the pipeline output per recommendation path.
const (
	confidenceCluster   = 1.0
	confidenceRuleBased = 0.7
)

// Cluster usage gate defaults.
const (
	defaultMinClusterSize       = 3
	defaultMaxDistanceThreshold = 1.0
)

// ClusterSource is the narrow view of the cluster engine the pipeline
// needs. NotFittedError from DistanceToCentroid routes the request to
// the rule-based path.
type ClusterSource interface {
	DistanceToCentroid(user *domain.UserProfile) (float64, error)
	Protocol(clusterID int) ([]*domain.SupplementRecommendation, bool)
	ClusterSize(clusterID int) int
}

// RecommendationPipeline orchestrates one recommendation request:
// cluster protocol or rule-based scoring, then feedback labeling,
// safety validation and drug interaction flags.
type RecommendationPipeline struct {
	scorer   *NeedScorer
	dosage   *DosageCalculator
	feedback *FeedbackTrendEngine
	safety   *SafetyValidator
	drugs    *DrugInteractionChecker
	clusters ClusterSource

	minClusterSize int
	maxDistance    float64
	log            *logrus.Logger
}

// NewRecommendationPipeline wires the pipeline. clusters may be nil;
// every request then takes the rule-based path.
func NewRecommendationPipeline(
	scorer *NeedScorer,
	dosage *DosageCalculator,
	feedback *FeedbackTrendEngine,
	safety *SafetyValidator,
	drugs *DrugInteractionChecker,
	clusters ClusterSource,
	cfg domain.ClusterConfig,
	logger *logrus.Logger,
) *RecommendationPipeline {
	minSize := cfg.MinClusterSize
	if minSize <= 0 {
		minSize = defaultMinClusterSize
	}
	maxDistance := cfg.MaxDistanceThreshold
	if maxDistance <= 0 {
		maxDistance = defaultMaxDistanceThreshold
	}

	return &RecommendationPipeline{
		scorer:         scorer,
		dosage:         dosage,
		feedback:       feedback,
		safety:         safety,
		drugs:          drugs,
		clusters:       clusters,
		minClusterSize: minSize,
		maxDistance:    maxDistance,
		log:            logger,
	}
}

// Run produces the final recommendation set for a user. A failure on a
// single nutrient skips that nutrient rather than aborting the set.
func (p *RecommendationPipeline) Run(user *domain.UserProfile) (*domain.RecommendationOutput, error) {
	if user == nil {
		return nil, domain.NewValidationError("user", "user profile is required", nil)
	}

	recs, fromCluster := p.clusterRecommendations(user)
	confidence := confidenceCluster
	if !fromCluster {
		recs = p.ruleBasedRecommendations(user)
		confidence = confidenceRuleBased
	}

	recs = p.feedback.LabelRecommendations(user, recs)
	recs = p.safety.Validate(user, recs)
	recs = p.drugs.AttachFlags(user, recs)

	user.Recommendations = recs
	if user.Feedback != nil {
		p.feedback.RecordFeedback(user)
	}

	p.log.WithFields(logrus.Fields{
		"user_id":              user.UserID,
		"recommendation_count": len(recs),
		"from_cluster":         fromCluster,
		"confidence":           confidence,
	}).Info("Recommendation pipeline completed")

	return &domain.RecommendationOutput{
		UserID:          user.UserID,
		Recommendations: recs,
		ConfidenceScore: confidence,
		ClusterID:       user.ClusterID,
	}, nil
}

// clusterRecommendations returns a per-user clone of the user's cluster
// protocol when the usage gate passes: an assigned cluster id, at least
// minClusterSize members, and centroid distance within maxDistance.
func (p *RecommendationPipeline) clusterRecommendations(user *domain.UserProfile) ([]*domain.SupplementRecommendation, bool) {
	if p.clusters == nil || user.ClusterID == nil {
		return nil, false
	}

	clusterID := *user.ClusterID
	if p.clusters.ClusterSize(clusterID) < p.minClusterSize {
		return nil, false
	}

	distance, err := p.clusters.DistanceToCentroid(user)
	if err != nil {
		p.log.WithError(err).WithField("user_id", user.UserID).Debug("Cluster distance unavailable, using rule-based path")
		return nil, false
	}
	if distance > p.maxDistance {
		return nil, false
	}

	protocol, ok := p.clusters.Protocol(clusterID)
	if !ok || len(protocol) == 0 {
		return nil, false
	}

	recs := make([]*domain.SupplementRecommendation, 0, len(protocol))
	for _, rec := range protocol {
		clone := rec.Clone()
		clone.TriggeredBy = append([]string(nil), user.Symptoms...)
		clone.Source = domain.SourceCluster
		recs = append(recs, clone)
	}
	return recs, true
}

// ruleBasedRecommendations scores the user's needs and doses every
// nutrient with a positive score, attaching full provenance.
func (p *RecommendationPipeline) ruleBasedRecommendations(user *domain.UserProfile) []*domain.SupplementRecommendation {
	scores := p.scorer.Score(user)

	nutrients := make([]string, 0, len(scores))
	for nutrient := range scores {
		nutrients = append(nutrients, nutrient)
	}
	sort.Strings(nutrients)

	labs := catalog.NormalizeBloodTests(user.BloodTests)

	recs := make([]*domain.SupplementRecommendation, 0, len(nutrients))
	var planned []string
	for _, nutrient := range nutrients {
		score := scores[nutrient]
		if score <= 0 {
			continue
		}

		result := p.dosage.Determine(nutrient, score, user, DoseOptions{OtherSupplements: planned})
		if !result.Found {
			p.log.WithFields(logrus.Fields{
				"user_id":  user.UserID,
				"nutrient": nutrient,
			}).Debug("Nutrient absent from catalog, skipping")
			continue
		}
		if result.Dose <= 0 {
			continue
		}

		triggered := p.matchingSymptoms(user, nutrient)
		rec := &domain.SupplementRecommendation{
			Name:              nutrient,
			Dosage:            result.Dose,
			Unit:              result.Unit,
			Reason:            fmt.Sprintf("Need score: %.2f", score),
			TriggeredBy:       triggered,
			Contraindications: result.Notes,
			InputsTriggered:   p.provenance(user, nutrient, triggered, labs),
			Source:            domain.SourceRuleBased,
		}
		rec.Explanation = BuildExplanation(rec)

		recs = append(recs, rec)
		planned = append(planned, nutrient)
	}

	return recs
}

// matchingSymptoms returns the user's reported symptoms whose weight
// map includes the nutrient, lowercased, in reported order.
func (p *RecommendationPipeline) matchingSymptoms(user *domain.UserProfile, nutrient string) []string {
	var matched []string
	for _, symptom := range user.Symptoms {
		key := strings.ToLower(symptom)
		if _, ok := p.scorer.symptomWeights[key][nutrient]; ok {
			matched = append(matched, key)
		}
	}
	return matched
}

// provenance assembles the inputs_triggered tags for one rule-based
// recommendation: matched symptoms, goals, lifestyle bumps, recorded
// conditions, present wearable fields, feedback signals and related
// blood tests.
func (p *RecommendationPipeline) provenance(user *domain.UserProfile, nutrient string, triggered []string, labs []domain.BloodTestResult) []string {
	tags := make([]string, 0, len(triggered)+len(user.Goals))

	for _, symptom := range triggered {
		tags = append(tags, tagSymptom+symptom)
	}
	for _, goal := range user.Goals {
		tags = append(tags, tagGoal+goal)
	}

	for _, tag := range user.LifestyleTags() {
		if _, ok := p.scorer.lifestyleModifiers[strings.ToLower(tag)][nutrient]; ok {
			tags = append(tags, tagLifestyle+strings.ToLower(tag))
		}
	}

	conditions := make([]string, 0, len(user.MedicalHistory))
	for condition, present := range user.MedicalHistory {
		if present {
			conditions = append(conditions, condition)
		}
	}
	sort.Strings(conditions)
	for _, condition := range conditions {
		tags = append(tags, tagMedicalHistory+condition)
	}

	for _, lab := range labs {
		if markerMatchesNutrient(lab.Marker, nutrient) {
			tags = append(tags, fmt.Sprintf("%s%s=%g %s", tagBloodTest, lab.Marker, lab.Value, lab.Unit))
		}
	}

	tags = append(tags, wearableTags(user.WearableData)...)
	tags = append(tags, p.feedbackTags(user, nutrient)...)

	return tags
}

// wearableTags names the wearable fields present on the snapshot.
func wearableTags(w *domain.WearableMetrics) []string {
	if w == nil {
		return nil
	}
	var tags []string
	if w.SleepHours != nil {
		tags = append(tags, tagWearable+"sleep_hours")
	}
	if w.HRV != nil {
		tags = append(tags, tagWearable+"hrv")
	}
	if w.RestingHR != nil {
		tags = append(tags, tagWearable+"resting_hr")
	}
	if w.ActivityLevel != nil {
		tags = append(tags, tagWearable+"activity_level")
	}
	if w.TemperatureVariation != nil {
		tags = append(tags, tagWearable+"temperature_variation")
	}
	if w.SpO2 != nil {
		tags = append(tags, tagWearable+"spo2")
	}
	if w.SunlightExposureMinutes != nil {
		tags = append(tags, tagWearable+"sunlight_exposure_minutes")
	}
	return tags
}

// feedbackTags captures mood/energy/stress signals plus any feedback
// symptoms that route to this nutrient.
func (p *RecommendationPipeline) feedbackTags(user *domain.UserProfile, nutrient string) []string {
	if user.Feedback == nil {
		return nil
	}

	var tags []string
	if user.Feedback.Mood != "" {
		tags = append(tags, tagFeedback+"mood="+user.Feedback.Mood)
	}
	if user.Feedback.Energy != "" {
		tags = append(tags, tagFeedback+"energy="+user.Feedback.Energy)
	}
	if user.Feedback.Stress != "" {
		tags = append(tags, tagFeedback+"stress="+user.Feedback.Stress)
	}
	for _, symptom := range user.Feedback.Symptoms {
		key := strings.ToLower(symptom)
		if _, ok := p.scorer.symptomWeights[key][nutrient]; ok {
			tags = append(tags, tagFeedbackSymptom+key)
		}
	}
	return tags
}

// markerMatchesNutrient relates a normalized blood-test marker to a
// catalog nutrient, e.g. "b12" to "Vitamin B12" and "ferritin" to
// "Iron".
func markerMatchesNutrient(marker, nutrient string) bool {
	m := catalog.NormalizeKey(marker)
	n := catalog.NormalizeKey(nutrient)
	if m == n || strings.Contains(n, m) || strings.Contains(m, n) {
		return true
	}
	return m == "ferritin" && n == "iron"
}
