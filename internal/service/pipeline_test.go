package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplement-advisor-server/internal/catalog"
	"github.com/supplement-advisor-server/internal/domain"
)

// fakeClusterSource is a canned ClusterSource for pipeline tests.
type fakeClusterSource struct {
	distance float64
	err      error
	protocol []*domain.SupplementRecommendation
	size     int
}

func (f *fakeClusterSource) DistanceToCentroid(_ *domain.UserProfile) (float64, error) {
	return f.distance, f.err
}

func (f *fakeClusterSource) Protocol(_ int) ([]*domain.SupplementRecommendation, bool) {
	return f.protocol, len(f.protocol) > 0
}

func (f *fakeClusterSource) ClusterSize(_ int) int {
	return f.size
}

func newTestPipeline(t *testing.T, clusters ClusterSource) *RecommendationPipeline {
	t.Helper()

	store, err := catalog.LoadStore("", testLogger())
	require.NoError(t, err)

	scorer := NewNeedScorer(domain.ScoringConfig{}, testLogger())
	dosage := NewDosageCalculator(store, testLogger())
	feedback := NewFeedbackTrendEngine(scorer, domain.ScoringConfig{}, testLogger())
	safety := NewSafetyValidator(store, testLogger())
	drugs := NewDrugInteractionChecker(catalog.LoadInteractionTable("", testLogger()), testLogger())

	return NewRecommendationPipeline(scorer, dosage, feedback, safety, drugs, clusters, domain.ClusterConfig{}, testLogger())
}

func TestRecommendationPipeline_NilUser(t *testing.T) {
	pipeline := newTestPipeline(t, nil)

	out, err := pipeline.Run(nil)
	assert.Nil(t, out)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRecommendationPipeline_RuleBasedPath(t *testing.T) {
	pipeline := newTestPipeline(t, nil)

	user := &domain.UserProfile{
		UserID:   "u1",
		Age:      30,
		Gender:   domain.GenderFemale,
		Symptoms: []string{"fatigue"},
		Goals:    []string{"more energy"},
	}

	out, err := pipeline.Run(user)
	require.NoError(t, err)
	assert.Equal(t, "u1", out.UserID)
	assert.Equal(t, 0.7, out.ConfidenceScore)
	assert.Nil(t, out.ClusterID)

	// Nutrients are processed in name order.
	require.Len(t, out.Recommendations, 4)
	names := make([]string, len(out.Recommendations))
	for i, rec := range out.Recommendations {
		names[i] = rec.Name
	}
	assert.Equal(t, []string{"Iron", "Magnesium", "Vitamin B12", "Vitamin D"}, names)

	for _, rec := range out.Recommendations {
		assert.Greater(t, rec.Dosage, 0.0, rec.Name)
		assert.Equal(t, domain.SourceRuleBased, rec.Source)
		assert.Contains(t, rec.TriggeredBy, "fatigue")
		assert.Contains(t, rec.InputsTriggered, "symptom: fatigue")
		assert.Contains(t, rec.InputsTriggered, "goal: more energy")
		assert.NotEmpty(t, rec.Explanation)
	}

	iron := out.Recommendations[0]
	assert.Equal(t, 45.0, iron.Dosage)
	assert.Equal(t, "Need score: 0.89", iron.Reason)
}

func TestRecommendationPipeline_ClusterPath(t *testing.T) {
	clusterID := 2
	protocol := []*domain.SupplementRecommendation{
		{
			Name:        "Vitamin D",
			Dosage:      1500,
			Unit:        "IU",
			Reason:      "Cluster baseline need score: 0.8",
			TriggeredBy: []string{"low mood"},
			Source:      domain.SourceCluster,
		},
	}
	clusters := &fakeClusterSource{distance: 0.4, protocol: protocol, size: 5}
	pipeline := newTestPipeline(t, clusters)

	user := &domain.UserProfile{
		UserID:    "u2",
		Age:       42,
		Gender:    domain.GenderMale,
		Symptoms:  []string{"fatigue", "brain fog"},
		ClusterID: &clusterID,
	}

	out, err := pipeline.Run(user)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.ConfidenceScore)
	require.NotNil(t, out.ClusterID)
	assert.Equal(t, 2, *out.ClusterID)

	require.Len(t, out.Recommendations, 1)
	rec := out.Recommendations[0]
	assert.Equal(t, "Vitamin D", rec.Name)
	assert.Equal(t, domain.SourceCluster, rec.Source)
	// Protocol triggers are re-stamped with the user's own symptoms.
	assert.Equal(t, []string{"fatigue", "brain fog"}, rec.TriggeredBy)
	// The shared protocol template stays untouched.
	assert.Equal(t, []string{"low mood"}, protocol[0].TriggeredBy)
}

func TestRecommendationPipeline_SmallClusterFallsBack(t *testing.T) {
	clusterID := 0
	clusters := &fakeClusterSource{
		distance: 0.1,
		protocol: []*domain.SupplementRecommendation{{Name: "Zinc", Dosage: 15, Unit: "mg"}},
		size:     2,
	}
	pipeline := newTestPipeline(t, clusters)

	user := &domain.UserProfile{
		UserID:    "u3",
		Age:       25,
		Gender:    domain.GenderFemale,
		Symptoms:  []string{"fatigue"},
		ClusterID: &clusterID,
	}

	out, err := pipeline.Run(user)
	require.NoError(t, err)
	assert.Equal(t, 0.7, out.ConfidenceScore)
	for _, rec := range out.Recommendations {
		assert.Equal(t, domain.SourceRuleBased, rec.Source)
	}
}

func TestRecommendationPipeline_DistantUserFallsBack(t *testing.T) {
	clusterID := 0
	clusters := &fakeClusterSource{
		distance: 1.7,
		protocol: []*domain.SupplementRecommendation{{Name: "Zinc", Dosage: 15, Unit: "mg"}},
		size:     10,
	}
	pipeline := newTestPipeline(t, clusters)

	user := &domain.UserProfile{
		UserID:    "u4",
		Age:       25,
		Gender:    domain.GenderFemale,
		Symptoms:  []string{"fatigue"},
		ClusterID: &clusterID,
	}

	out, err := pipeline.Run(user)
	require.NoError(t, err)
	assert.Equal(t, 0.7, out.ConfidenceScore)
}

func TestRecommendationPipeline_ValidationFlagsFlowThrough(t *testing.T) {
	pipeline := newTestPipeline(t, nil)

	user := &domain.UserProfile{
		UserID:         "u5",
		Age:            30,
		Gender:         domain.GenderFemale,
		Symptoms:       []string{"fatigue"},
		MedicalHistory: map[string]bool{"hemochromatosis": true},
		Medications:    []string{"Levothyroxine"},
	}

	out, err := pipeline.Run(user)
	require.NoError(t, err)

	var iron *domain.SupplementRecommendation
	for _, rec := range out.Recommendations {
		if rec.Name == "Iron" {
			iron = rec
		}
	}
	require.NotNil(t, iron)
	assert.Contains(t, iron.ValidationFlags, "Contraindicated for: hemochromatosis")
	assert.Contains(t, iron.ValidationFlags, "Interacts with levothyroxine")
}

func TestRecommendationPipeline_FeedbackSideEffects(t *testing.T) {
	pipeline := newTestPipeline(t, nil)

	user := &domain.UserProfile{
		UserID:   "u6",
		Age:      30,
		Gender:   domain.GenderFemale,
		Symptoms: []string{"fatigue"},
		Feedback: &domain.UserFeedback{
			SymptomChanges: map[string]string{"fatigue": "worse"},
		},
	}

	out, err := pipeline.Run(user)
	require.NoError(t, err)

	require.Len(t, user.SymptomHistory["fatigue"], 1)
	assert.Equal(t, domain.StatusWorsening, user.SymptomHistory["fatigue"][0].Status)
	assert.Len(t, user.DoseResponseLog, len(out.Recommendations))

	// Feedback labels land on recommendations triggered by the symptom.
	for _, rec := range out.Recommendations {
		assert.Contains(t, rec.ValidationFlags, FlagWorsened, rec.Name)
	}
}

func TestRecommendationPipeline_NoSignalsNoRecommendations(t *testing.T) {
	pipeline := newTestPipeline(t, nil)

	user := &domain.UserProfile{
		UserID: "u7",
		Age:    50,
		Gender: domain.GenderOther,
	}

	out, err := pipeline.Run(user)
	require.NoError(t, err)
	assert.Empty(t, out.Recommendations)
	assert.Equal(t, 0.7, out.ConfidenceScore)
}
