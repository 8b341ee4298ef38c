package catalog

import (
	"github.com/supplement-advisor-server/internal/domain"
)

// defaultCatalog is the built-in nutrient reference table, used when no
// catalog file is configured. Values are conventional adult reference
// intakes; a deployment overrides them with a reviewed catalog file.
func defaultCatalog() map[string]*domain.NutrientReference {
	return map[string]*domain.NutrientReference{
		"vitamin_b12": {
			Name: "Vitamin B12",
			Unit: "mcg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 2.4, BandMale18To50: 2.4,
				BandFemale50Plus: 2.4, BandMale50Plus: 2.4,
			},
			OptimalRange: domain.OptimalRange{Min: 250, Max: 1000},
			UpperLimit:   2000,
		},
		"iron": {
			Name: "Iron",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 18, BandMale18To50: 8,
				BandFemale50Plus: 8, BandMale50Plus: 8,
			},
			OptimalRange:      domain.OptimalRange{Min: 25, Max: 45},
			UpperLimit:        45,
			Contraindications: []string{"hemochromatosis"},
			Interactions:      []string{"Calcium", "Zinc"},
		},
		"vitamin_d": {
			Name: "Vitamin D",
			Unit: "IU",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 600, BandMale18To50: 600,
				BandFemale50Plus: 600, BandMale50Plus: 800,
			},
			OptimalRange:      domain.OptimalRange{Min: 1000, Max: 2000},
			UpperLimit:        4000,
			Contraindications: []string{"hypercalcemia", "sarcoidosis"},
		},
		"magnesium": {
			Name: "Magnesium",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 310, BandMale18To50: 400,
				BandFemale50Plus: 320, BandMale50Plus: 420,
			},
			OptimalRange:      domain.OptimalRange{Min: 300, Max: 400},
			UpperLimit:        350,
			Contraindications: []string{"kidney disease"},
			Interactions:      []string{"Calcium"},
		},
		"calcium": {
			Name: "Calcium",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 1000, BandMale18To50: 1000,
				BandFemale50Plus: 1200, BandMale50Plus: 1200,
			},
			OptimalRange:      domain.OptimalRange{Min: 1000, Max: 1200},
			UpperLimit:        2500,
			Contraindications: []string{"hypercalcemia", "kidney stones"},
			Interactions:      []string{"Iron", "Magnesium", "Zinc"},
		},
		"zinc": {
			Name: "Zinc",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 8, BandMale18To50: 11,
				BandFemale50Plus: 8, BandMale50Plus: 11,
			},
			OptimalRange: domain.OptimalRange{Min: 15, Max: 30},
			UpperLimit:   40,
			Interactions: []string{"Iron", "Calcium"},
		},
		"vitamin_c": {
			Name: "Vitamin C",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 75, BandMale18To50: 90,
				BandFemale50Plus: 75, BandMale50Plus: 90,
			},
			OptimalRange:      domain.OptimalRange{Min: 200, Max: 500},
			UpperLimit:        2000,
			Contraindications: []string{"kidney stones"},
		},
		"omega_3": {
			Name: "Omega-3",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 1100, BandMale18To50: 1600,
				BandFemale50Plus: 1100, BandMale50Plus: 1600,
			},
			OptimalRange:      domain.OptimalRange{Min: 1000, Max: 2000},
			UpperLimit:        3000,
			Contraindications: []string{"bleeding disorder"},
		},
		"melatonin": {
			Name: "Melatonin",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 0.5, BandMale18To50: 0.5,
				BandFemale50Plus: 0.5, BandMale50Plus: 0.5,
			},
			OptimalRange:      domain.OptimalRange{Min: 1, Max: 5},
			UpperLimit:        10,
			Contraindications: []string{"autoimmune disease"},
		},
		"vitamin_b6": {
			Name: "Vitamin B6",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 1.3, BandMale18To50: 1.3,
				BandFemale50Plus: 1.5, BandMale50Plus: 1.7,
			},
			OptimalRange:      domain.OptimalRange{Min: 10, Max: 25},
			UpperLimit:        100,
			Contraindications: []string{"peripheral neuropathy"},
		},
		"ashwagandha": {
			Name: "Ashwagandha",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 300, BandMale18To50: 300,
				BandFemale50Plus: 300, BandMale50Plus: 300,
			},
			OptimalRange:      domain.OptimalRange{Min: 300, Max: 600},
			UpperLimit:        1000,
			Contraindications: []string{"hyperthyroidism", "pregnancy"},
		},
		"folate_(b9)": {
			Name: "Folate (B9)",
			Unit: "mcg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 400, BandMale18To50: 400,
				BandFemale50Plus: 400, BandMale50Plus: 400,
			},
			OptimalRange: domain.OptimalRange{Min: 400, Max: 800},
			UpperLimit:   1000,
		},
		"choline": {
			Name: "Choline",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 425, BandMale18To50: 550,
				BandFemale50Plus: 425, BandMale50Plus: 550,
			},
			OptimalRange: domain.OptimalRange{Min: 500, Max: 1000},
			UpperLimit:   3500,
		},
		"coq10": {
			Name: "CoQ10",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 30, BandMale18To50: 30,
				BandFemale50Plus: 30, BandMale50Plus: 30,
			},
			OptimalRange: domain.OptimalRange{Min: 100, Max: 200},
			UpperLimit:   300,
		},
		"biotin": {
			Name: "Biotin",
			Unit: "mcg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 30, BandMale18To50: 30,
				BandFemale50Plus: 30, BandMale50Plus: 30,
			},
			OptimalRange: domain.OptimalRange{Min: 100, Max: 300},
			UpperLimit:   1000,
		},
		"protein": {
			Name: "Protein",
			Unit: "g",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 46, BandMale18To50: 56,
				BandFemale50Plus: 46, BandMale50Plus: 56,
			},
			OptimalRange:      domain.OptimalRange{Min: 60, Max: 90},
			UpperLimit:        150,
			Contraindications: []string{"kidney disease"},
		},
		"dha": {
			Name: "DHA",
			Unit: "mg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 200, BandMale18To50: 200,
				BandFemale50Plus: 200, BandMale50Plus: 200,
			},
			OptimalRange:      domain.OptimalRange{Min: 200, Max: 500},
			UpperLimit:        1000,
			Contraindications: []string{"bleeding disorder"},
		},
		"vitamin_k": {
			Name: "Vitamin K",
			Unit: "mcg",
			RDAByGenderAge: map[string]float64{
				BandFemale18To50: 90, BandMale18To50: 120,
				BandFemale50Plus: 90, BandMale50Plus: 120,
			},
			OptimalRange:      domain.OptimalRange{Min: 90, Max: 180},
			UpperLimit:        1000,
			Contraindications: []string{"warfarin therapy"},
		},
	}
}
