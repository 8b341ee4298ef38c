package catalog

import (
	"strings"

	"github.com/supplement-advisor-server/internal/domain"
)

// standardUnits maps lowercased markers to their canonical unit.
var standardUnits = map[string]string{
	"vitamin d":   "ng/mL",
	"iron":        "µg/dL",
	"ferritin":    "ng/mL",
	"vitamin b12": "pg/mL",
	"folate":      "ng/mL",
}

type conversionKey struct {
	marker string
	unit   string
}

// conversions holds value transforms keyed by (marker, reported unit),
// both lowercased. Identity entries pin the canonical unit.
var conversions = map[conversionKey]func(float64) float64{
	{"vitamin d", "µg/l"}:     func(v float64) float64 { return v * 0.4 },
	{"vitamin d", "nmol/l"}:   func(v float64) float64 { return v * 0.4 },
	{"vitamin d", "ng/ml"}:    func(v float64) float64 { return v },
	{"iron", "µg/dl"}:         func(v float64) float64 { return v },
	{"iron", "mg/l"}:          func(v float64) float64 { return v * 100 },
	{"vitamin b12", "pmol/l"}: func(v float64) float64 { return v * 1.355 },
	{"vitamin b12", "pg/ml"}:  func(v float64) float64 { return v },
	{"folate", "nmol/l"}:      func(v float64) float64 { return v * 0.454 },
	{"folate", "ng/ml"}:       func(v float64) float64 { return v },
}

// NormalizeMarker converts a blood test reading to the marker's
// canonical unit. Unknown marker/unit pairs pass through unchanged;
// downstream scoring treats them as already canonical.
func NormalizeMarker(result domain.BloodTestResult) domain.BloodTestResult {
	marker := strings.ToLower(strings.TrimSpace(result.Marker))
	unit := strings.ToLower(strings.TrimSpace(result.Unit))

	convert, ok := conversions[conversionKey{marker, unit}]
	if !ok {
		return result
	}

	normalized := result
	normalized.Value = convert(result.Value)
	if canonical, ok := standardUnits[marker]; ok {
		normalized.Unit = canonical
	}
	return normalized
}

// NormalizeBloodTests normalizes a profile's readings in place order.
func NormalizeBloodTests(results []domain.BloodTestResult) []domain.BloodTestResult {
	normalized := make([]domain.BloodTestResult, len(results))
	for i, r := range results {
		normalized[i] = NormalizeMarker(r)
	}
	return normalized
}
