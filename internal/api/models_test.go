package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplement-advisor-server/internal/domain"
)

func TestRecommendRequest_ToProfile(t *testing.T) {
	req := RecommendRequest{
		UserID:   "u1",
		Age:      30,
		Gender:   "Female",
		Symptoms: []string{"fatigue"},
		Goals:    []string{"more energy"},
		BloodTests: []BloodTestInput{
			{Marker: "Ferritin", Value: 20, Unit: "ng/mL"},
		},
		Feedback: &FeedbackInput{
			Mood:           "low",
			SymptomChanges: map[string]string{"fatigue": "worse"},
		},
	}

	profile, err := req.ToProfile()
	require.NoError(t, err)

	assert.Equal(t, "u1", profile.UserID)
	assert.Equal(t, domain.GenderFemale, profile.Gender)
	assert.Equal(t, []string{"fatigue"}, profile.Symptoms)
	require.Len(t, profile.BloodTests, 1)
	assert.Equal(t, "Ferritin", profile.BloodTests[0].Marker)
	require.NotNil(t, profile.Feedback)
	assert.Equal(t, "low", profile.Feedback.Mood)
	assert.Equal(t, "worse", profile.Feedback.SymptomChanges["fatigue"])
}

func TestRecommendRequest_ToProfileGeneratesUserID(t *testing.T) {
	req := RecommendRequest{Age: 30, Gender: "male"}

	profile, err := req.ToProfile()
	require.NoError(t, err)
	assert.NotEmpty(t, profile.UserID)

	second, err := req.ToProfile()
	require.NoError(t, err)
	assert.NotEqual(t, profile.UserID, second.UserID)
}

func TestRecommendRequest_ToProfileRejectsUnknownGender(t *testing.T) {
	req := RecommendRequest{Age: 30, Gender: "yes"}

	_, err := req.ToProfile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown gender")
}

func TestParseGender(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Gender
	}{
		{"male", domain.GenderMale},
		{" FEMALE ", domain.GenderFemale},
		{"Other", domain.GenderOther},
		{"", domain.GenderUnspecified},
		{"unspecified", domain.GenderUnspecified},
	}

	for _, tt := range tests {
		got, err := parseGender(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseLifestyle_Mapping(t *testing.T) {
	lifestyle, err := parseLifestyle(json.RawMessage(`{"Vegan": true, "sleep": "Poor"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Vegan": "true", "sleep": "poor"}, lifestyle)
}

func TestParseLifestyle_List(t *testing.T) {
	lifestyle, err := parseLifestyle(json.RawMessage(`["vegan", "athlete"]`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"vegan": "", "athlete": ""}, lifestyle)
}

func TestParseLifestyle_Empty(t *testing.T) {
	lifestyle, err := parseLifestyle(nil)
	require.NoError(t, err)
	assert.Nil(t, lifestyle)
}

func TestParseLifestyle_Invalid(t *testing.T) {
	_, err := parseLifestyle(json.RawMessage(`42`))
	require.Error(t, err)
}

func TestParseMedicalHistory(t *testing.T) {
	history := parseMedicalHistory(map[string]interface{}{
		"hemochromatosis": true,
		"asthma":          "yes",
		"diabetes":        "True",
		"migraines":       float64(1),
		"eczema":          float64(0),
		"allergies":       "no",
		"other":           []interface{}{"x"},
	})

	assert.True(t, history["hemochromatosis"])
	assert.True(t, history["asthma"])
	assert.True(t, history["diabetes"])
	assert.True(t, history["migraines"])
	assert.False(t, history["eczema"])
	assert.False(t, history["allergies"])
	assert.False(t, history["other"])
}

func TestWearableInput_ToMetricsActivityLevel(t *testing.T) {
	sleep := 6.5

	str := &WearableInput{SleepHours: &sleep, ActivityLevel: "High"}
	metrics := str.toMetrics()
	require.NotNil(t, metrics.ActivityLevel)
	assert.Equal(t, 1.0, *metrics.ActivityLevel)
	assert.Equal(t, &sleep, metrics.SleepHours)

	num := &WearableInput{ActivityLevel: 0.7}
	metrics = num.toMetrics()
	require.NotNil(t, metrics.ActivityLevel)
	assert.Equal(t, 0.7, *metrics.ActivityLevel)

	absent := &WearableInput{}
	assert.Nil(t, absent.toMetrics().ActivityLevel)
}
