package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/supplement-advisor-server/internal/domain"
)

// RecommendRequest is the intake payload for a recommendation run.
// Lifestyle is accepted as either a tag->value mapping or a plain list
// of tags.
type RecommendRequest struct {
	UserID            string                 `json:"user_id"`
	Age               int                    `json:"age" binding:"required,min=1,max=120"`
	Gender            string                 `json:"gender" binding:"required"`
	Symptoms          []string               `json:"symptoms"`
	Lifestyle         json.RawMessage        `json:"lifestyle"`
	MedicalHistory    map[string]interface{} `json:"medical_history"`
	MedicalConditions []string               `json:"medical_conditions"`
	Medications       []string               `json:"medications"`
	Goals             []string               `json:"goals"`
	BloodTests        []BloodTestInput       `json:"blood_tests"`
	WearableData      *WearableInput         `json:"wearable_data"`
	Feedback          *FeedbackInput         `json:"feedback"`
}

// BloodTestInput is one lab reading in intake form.
type BloodTestInput struct {
	Marker string  `json:"marker" binding:"required"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit" binding:"required"`
}

// WearableInput mirrors WearableMetrics but tolerates activity_level
// arriving as a "low"/"moderate"/"high" string.
type WearableInput struct {
	SleepHours              *float64    `json:"sleep_hours"`
	HRV                     *float64    `json:"hrv"`
	RestingHR               *float64    `json:"resting_hr"`
	ActivityLevel           interface{} `json:"activity_level"`
	TemperatureVariation    *float64    `json:"temperature_variation"`
	SpO2                    *float64    `json:"spo2"`
	SunlightExposureMinutes *int        `json:"sunlight_exposure_minutes"`
}

// FeedbackInput is the latest self-reported check-in.
type FeedbackInput struct {
	Mood           string            `json:"mood"`
	Energy         string            `json:"energy"`
	Stress         string            `json:"stress"`
	Symptoms       []string          `json:"symptoms"`
	SymptomChanges map[string]string `json:"symptom_changes"`
}

var activityLevels = map[string]float64{
	"low":      0.0,
	"moderate": 0.5,
	"high":     1.0,
}

// ToProfile converts the request to a domain profile. A missing user_id
// gets a generated one.
func (r *RecommendRequest) ToProfile() (*domain.UserProfile, error) {
	gender, err := parseGender(r.Gender)
	if err != nil {
		return nil, err
	}

	lifestyle, err := parseLifestyle(r.Lifestyle)
	if err != nil {
		return nil, err
	}

	userID := r.UserID
	if userID == "" {
		userID = uuid.New().String()
	}

	profile := &domain.UserProfile{
		UserID:            userID,
		Age:               r.Age,
		Gender:            gender,
		Symptoms:          r.Symptoms,
		Lifestyle:         lifestyle,
		MedicalHistory:    parseMedicalHistory(r.MedicalHistory),
		MedicalConditions: r.MedicalConditions,
		Medications:       r.Medications,
		Goals:             r.Goals,
	}

	for _, bt := range r.BloodTests {
		profile.BloodTests = append(profile.BloodTests, domain.BloodTestResult{
			Marker: bt.Marker,
			Value:  bt.Value,
			Unit:   bt.Unit,
		})
	}

	if r.WearableData != nil {
		profile.WearableData = r.WearableData.toMetrics()
	}

	if r.Feedback != nil {
		profile.Feedback = &domain.UserFeedback{
			Mood:           r.Feedback.Mood,
			Energy:         r.Feedback.Energy,
			Stress:         r.Feedback.Stress,
			Symptoms:       r.Feedback.Symptoms,
			SymptomChanges: r.Feedback.SymptomChanges,
		}
	}

	return profile, nil
}

func (w *WearableInput) toMetrics() *domain.WearableMetrics {
	metrics := &domain.WearableMetrics{
		SleepHours:              w.SleepHours,
		HRV:                     w.HRV,
		RestingHR:               w.RestingHR,
		TemperatureVariation:    w.TemperatureVariation,
		SpO2:                    w.SpO2,
		SunlightExposureMinutes: w.SunlightExposureMinutes,
	}

	switch level := w.ActivityLevel.(type) {
	case string:
		v := activityLevels[strings.ToLower(level)]
		metrics.ActivityLevel = &v
	case float64:
		v := level
		metrics.ActivityLevel = &v
	}

	return metrics
}

func parseGender(raw string) (domain.Gender, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male":
		return domain.GenderMale, nil
	case "female":
		return domain.GenderFemale, nil
	case "other":
		return domain.GenderOther, nil
	case "", "unspecified":
		return domain.GenderUnspecified, nil
	}
	return "", fmt.Errorf("unknown gender %q", raw)
}

// parseLifestyle accepts {"vegan": true} style mappings or ["vegan"]
// style lists; values are lowercased strings either way.
func parseLifestyle(raw json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err == nil {
		lifestyle := make(map[string]string, len(asMap))
		for k, v := range asMap {
			lifestyle[k] = strings.ToLower(fmt.Sprint(v))
		}
		return lifestyle, nil
	}

	var asList []string
	if err := json.Unmarshal(raw, &asList); err == nil {
		lifestyle := make(map[string]string, len(asList))
		for _, tag := range asList {
			lifestyle[tag] = ""
		}
		return lifestyle, nil
	}

	return nil, fmt.Errorf("lifestyle must be a mapping or a list of tags")
}

func parseMedicalHistory(raw map[string]interface{}) map[string]bool {
	if len(raw) == 0 {
		return nil
	}
	history := make(map[string]bool, len(raw))
	for condition, value := range raw {
		switch v := value.(type) {
		case bool:
			history[condition] = v
		case string:
			lowered := strings.ToLower(v)
			history[condition] = lowered == "true" || lowered == "yes"
		case float64:
			history[condition] = v != 0
		default:
			history[condition] = false
		}
	}
	return history
}
