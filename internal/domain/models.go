package domain

import (
	"strings"
	"time"
)

// Gender is the demographic band selector used for RDA lookups.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUnspecified Gender = "unspecified"
)

// Source identifies which path produced a recommendation.
type Source string

const (
	SourceRuleBased Source = "rule-based"
	SourceCluster   Source = "cluster"
	SourceLLM       Source = "llm"
)

// Normalized trend statuses for longitudinal symptom feedback.
const (
	StatusWorsening = "worsening"
	StatusImproving = "improving"
	StatusSame      = "same"
	TrendStagnant   = "stagnant"
)

// Retention caps for the append-only logs on a profile.
const (
	MaxSymptomHistory  = 100
	MaxDoseResponseLog = 500
)

// BloodTestResult is a single lab marker reading. Values must be
// normalized to the marker's canonical unit before scoring uses them.
type BloodTestResult struct {
	Marker string  `json:"marker"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
}

// WearableMetrics is a single snapshot from a wearable integration.
type WearableMetrics struct {
	SleepHours              *float64 `json:"sleep_hours,omitempty"`
	HRV                     *float64 `json:"hrv,omitempty"`
	RestingHR               *float64 `json:"resting_hr,omitempty"`
	ActivityLevel           *float64 `json:"activity_level,omitempty"`
	TemperatureVariation    *float64 `json:"temperature_variation,omitempty"`
	SpO2                    *float64 `json:"spo2,omitempty"`
	SunlightExposureMinutes *int     `json:"sunlight_exposure_minutes,omitempty"`
}

// UserFeedback is the latest self-reported check-in.
type UserFeedback struct {
	Mood           string            `json:"mood,omitempty"`
	Energy         string            `json:"energy,omitempty"`
	Stress         string            `json:"stress,omitempty"`
	Symptoms       []string          `json:"symptoms,omitempty"`
	SymptomChanges map[string]string `json:"symptom_changes,omitempty"`
}

// SymptomStatus is one dated entry in a symptom's history time series.
type SymptomStatus struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

// DoseResponseEntry records what was recommended and how the targeted
// symptoms responded, one entry per active recommendation per run.
type DoseResponseEntry struct {
	Date             string            `json:"date"`
	Supplement       string            `json:"supplement"`
	Dose             float64           `json:"dose"`
	Unit             string            `json:"unit"`
	SymptomsTargeted []string          `json:"symptoms_targeted"`
	Outcome          map[string]string `json:"outcome"`
}

// UserProfile is the core user entity. Mutated by the feedback engine
// (history appends) and the cluster engine (cluster id); persisted
// externally after every pipeline run.
type UserProfile struct {
	UserID   string   `json:"user_id"`
	Age      int      `json:"age"`
	Gender   Gender   `json:"gender"`
	WeightKG *float64 `json:"weight_kg,omitempty"`
	HeightCM *float64 `json:"height_cm,omitempty"`
	DietType string   `json:"diet_type,omitempty"`
	Location string   `json:"location,omitempty"`

	Lifestyle         map[string]string `json:"lifestyle,omitempty"`
	MedicalHistory    map[string]bool   `json:"medical_history,omitempty"`
	Goals             []string          `json:"goals,omitempty"`
	Symptoms          []string          `json:"symptoms,omitempty"`
	MedicalConditions []string          `json:"medical_conditions,omitempty"`
	Medications       []string          `json:"medications,omitempty"`

	WearableData *WearableMetrics  `json:"wearable_data,omitempty"`
	BloodTests   []BloodTestResult `json:"blood_tests,omitempty"`
	Feedback     *UserFeedback     `json:"feedback,omitempty"`
	ClusterID    *int              `json:"cluster_id,omitempty"`

	SymptomHistory  map[string][]SymptomStatus `json:"symptom_history,omitempty"`
	DoseResponseLog []DoseResponseEntry        `json:"dose_response_log,omitempty"`

	// Recommendations is populated at runtime by the pipeline so the
	// feedback engine can log dose responses. Not persisted.
	Recommendations []*SupplementRecommendation `json:"-"`
}

// LifestyleTags returns the user's lifestyle tags. Intake may supply
// lifestyle as a map or a plain list; lists are stored as map keys with
// empty values, so the keys are the tag set either way.
func (u *UserProfile) LifestyleTags() []string {
	tags := make([]string, 0, len(u.Lifestyle))
	for k := range u.Lifestyle {
		tags = append(tags, k)
	}
	return tags
}

// HasCondition reports whether a condition is recorded true in the
// medical history, case-insensitively.
func (u *UserProfile) HasCondition(condition string) bool {
	for k, v := range u.MedicalHistory {
		if v && strings.EqualFold(k, condition) {
			return true
		}
	}
	return false
}

// HasMedicalCondition checks the diagnosed-conditions list.
func (u *UserProfile) HasMedicalCondition(condition string) bool {
	for _, c := range u.MedicalConditions {
		if strings.EqualFold(c, condition) {
			return true
		}
	}
	return false
}

// AppendSymptomStatus appends one dated status to a symptom's history,
// pruning oldest entries past the retention cap. Duplicate same-day
// appends are accepted.
func (u *UserProfile) AppendSymptomStatus(symptom string, entry SymptomStatus) {
	if u.SymptomHistory == nil {
		u.SymptomHistory = make(map[string][]SymptomStatus)
	}
	history := append(u.SymptomHistory[symptom], entry)
	if len(history) > MaxSymptomHistory {
		history = history[len(history)-MaxSymptomHistory:]
	}
	u.SymptomHistory[symptom] = history
}

// AppendDoseResponse appends to the dose-response log under the same
// retention policy.
func (u *UserProfile) AppendDoseResponse(entry DoseResponseEntry) {
	u.DoseResponseLog = append(u.DoseResponseLog, entry)
	if len(u.DoseResponseLog) > MaxDoseResponseLog {
		u.DoseResponseLog = u.DoseResponseLog[len(u.DoseResponseLog)-MaxDoseResponseLog:]
	}
}

// SupplementRecommendation is the output entity carried through the
// validation pipeline. Validation flags are append-only within a run.
type SupplementRecommendation struct {
	Name              string   `json:"name"`
	Dosage            float64  `json:"dosage"`
	Unit              string   `json:"unit"`
	Reason            string   `json:"reason,omitempty"`
	TriggeredBy       []string `json:"triggered_by"`
	Contraindications []string `json:"contraindications"`
	InputsTriggered   []string `json:"inputs_triggered"`
	Source            Source   `json:"source"`
	ValidationFlags   []string `json:"validation_flags"`
	Explanation       string   `json:"explanation,omitempty"`
}

// Clone returns a deep copy so cluster protocol templates can be
// re-stamped per user without mutating the shared protocol.
func (r *SupplementRecommendation) Clone() *SupplementRecommendation {
	c := *r
	c.TriggeredBy = append([]string(nil), r.TriggeredBy...)
	c.Contraindications = append([]string(nil), r.Contraindications...)
	c.InputsTriggered = append([]string(nil), r.InputsTriggered...)
	c.ValidationFlags = append([]string(nil), r.ValidationFlags...)
	return &c
}

// RecommendationOutput is the structured pipeline result.
type RecommendationOutput struct {
	UserID          string                      `json:"user_id"`
	Recommendations []*SupplementRecommendation `json:"recommendations"`
	ConfidenceScore float64                     `json:"confidence_score"`
	ClusterID       *int                        `json:"cluster_id"`
}

// OptimalRange is the dosing window between RDA and upper limit.
type OptimalRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NutrientReference is a static catalog entry keyed by normalized
// nutrient name.
type NutrientReference struct {
	Name              string             `json:"name"`
	Unit              string             `json:"unit"`
	RDAByGenderAge    map[string]float64 `json:"rda_by_gender_age"`
	OptimalRange      OptimalRange       `json:"optimal_range"`
	UpperLimit        float64            `json:"upper_limit"`
	Contraindications []string           `json:"contraindications"`
	Interactions      []string           `json:"interactions"`
}

// ClusterProtocol is the persisted per-cluster aggregate plan.
type ClusterProtocol struct {
	ClusterID       int                         `json:"cluster_id"`
	Recommendations []*SupplementRecommendation `json:"recommendations"`
	GeneratedAt     time.Time                   `json:"generated_at"`
}
