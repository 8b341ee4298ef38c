package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/supplement-advisor-server/internal/domain"
)

func TestNormalizeMarker(t *testing.T) {
	tests := []struct {
		name     string
		input    domain.BloodTestResult
		expected domain.BloodTestResult
	}{
		{
			name:     "vitamin d nmol/L to ng/mL",
			input:    domain.BloodTestResult{Marker: "Vitamin D", Value: 50, Unit: "nmol/L"},
			expected: domain.BloodTestResult{Marker: "Vitamin D", Value: 20, Unit: "ng/mL"},
		},
		{
			name:     "iron mg/L to µg/dL",
			input:    domain.BloodTestResult{Marker: "Iron", Value: 0.5, Unit: "mg/L"},
			expected: domain.BloodTestResult{Marker: "Iron", Value: 50, Unit: "µg/dL"},
		},
		{
			name:     "b12 pmol/L to pg/mL",
			input:    domain.BloodTestResult{Marker: "vitamin b12", Value: 100, Unit: "pmol/L"},
			expected: domain.BloodTestResult{Marker: "vitamin b12", Value: 135.5, Unit: "pg/mL"},
		},
		{
			name:     "folate nmol/L to ng/mL",
			input:    domain.BloodTestResult{Marker: "Folate", Value: 10, Unit: "nmol/L"},
			expected: domain.BloodTestResult{Marker: "Folate", Value: 4.54, Unit: "ng/mL"},
		},
		{
			name:     "already canonical",
			input:    domain.BloodTestResult{Marker: "Vitamin D", Value: 25, Unit: "ng/mL"},
			expected: domain.BloodTestResult{Marker: "Vitamin D", Value: 25, Unit: "ng/mL"},
		},
		{
			name:     "unknown marker passes through",
			input:    domain.BloodTestResult{Marker: "glucose", Value: 90, Unit: "mg/dL"},
			expected: domain.BloodTestResult{Marker: "glucose", Value: 90, Unit: "mg/dL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMarker(tt.input)
			assert.Equal(t, tt.expected.Marker, got.Marker)
			assert.InDelta(t, tt.expected.Value, got.Value, 1e-9)
			assert.Equal(t, tt.expected.Unit, got.Unit)
		})
	}
}

func TestNormalizeBloodTests_DoesNotMutateInput(t *testing.T) {
	input := []domain.BloodTestResult{
		{Marker: "Iron", Value: 0.4, Unit: "mg/L"},
	}
	out := NormalizeBloodTests(input)

	assert.Equal(t, 0.4, input[0].Value)
	assert.InDelta(t, 40.0, out[0].Value, 1e-9)
}

func TestInteractionTable_Lookup(t *testing.T) {
	table := defaultInteractions()

	assert.Contains(t, table.Lookup("warfarin"), "vitamin k")
	assert.Contains(t, table.Lookup("WARFARIN"), "vitamin k")
	assert.Contains(t, table.Lookup(" Metformin "), "vitamin b12")
	assert.Empty(t, table.Lookup("placebo"))
}

func TestLoadInteractionTable_FallsBackToDefaults(t *testing.T) {
	table := LoadInteractionTable("/nonexistent/interactions.json", testLogger())
	assert.Contains(t, table.Lookup("warfarin"), "vitamin k")
}
