// Package catalog provides the nutrient reference store: RDA bands,
// optimal ranges, upper limits, contraindications and interactions for
// every nutrient the recommendation core can dose.
package catalog

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/domain"
)

// Canonical RDA band keys.
const (
	BandFemale18To50 = "female_18_50"
	BandMale18To50   = "male_18_50"
	BandFemale50Plus = "female_50_plus"
	BandMale50Plus   = "male_50_plus"
	fallbackBand     = BandFemale18To50
	bandAgeThreshold = 50
)

// Store is the in-memory nutrient reference catalog. It is read-only
// after construction and safe for concurrent readers.
type Store struct {
	nutrients map[string]*domain.NutrientReference
	log       *logrus.Logger
}

// NewStore creates a catalog store from a loaded reference mapping.
// Keys are re-normalized defensively so lookups never depend on the
// loader's key discipline.
func NewStore(nutrients map[string]*domain.NutrientReference, logger *logrus.Logger) *Store {
	normalized := make(map[string]*domain.NutrientReference, len(nutrients))
	for key, ref := range nutrients {
		normalized[NormalizeKey(key)] = ref
	}

	logger.WithField("nutrient_count", len(normalized)).Info("Nutrient catalog loaded")

	return &Store{
		nutrients: normalized,
		log:       logger,
	}
}

// NewDefaultStore creates a store backed by the built-in catalog.
func NewDefaultStore(logger *logrus.Logger) *Store {
	return NewStore(defaultCatalog(), logger)
}

// LoadStore builds a store from a JSON catalog file. An empty path
// selects the built-in catalog. A present-but-unreadable file is a hard
// CatalogError: the pipeline cannot run without reference data.
func LoadStore(path string, logger *logrus.Logger) (*Store, error) {
	if path == "" {
		return NewDefaultStore(logger), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.CatalogError{Path: path, Err: err}
	}

	nutrients := make(map[string]*domain.NutrientReference)
	if err := json.Unmarshal(data, &nutrients); err != nil {
		return nil, &domain.CatalogError{Path: path, Err: err}
	}

	return NewStore(nutrients, logger), nil
}

// NormalizeKey lowercases and space/underscore-normalizes a nutrient
// name so "Vitamin D", "vitamin d" and "vitamin_d" address one entry.
func NormalizeKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Lookup returns the reference entry for a nutrient name, or false if
// the catalog has no protocol for it. Absence is not an error.
func (s *Store) Lookup(name string) (*domain.NutrientReference, bool) {
	ref, ok := s.nutrients[NormalizeKey(name)]
	return ref, ok
}

// Names returns every catalog nutrient's display name.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.nutrients))
	for _, ref := range s.nutrients {
		names = append(names, ref.Name)
	}
	return names
}

// Len returns the number of catalog entries.
func (s *Store) Len() int {
	return len(s.nutrients)
}

// RDAKey maps demographics to one of the four canonical band keys.
// Unknown genders fall back to the female 18-50 band.
func RDAKey(gender domain.Gender, age int) string {
	group := "18_50"
	if age >= bandAgeThreshold {
		group = "50_plus"
	}

	key := strings.ToLower(string(gender)) + "_" + group
	switch key {
	case BandFemale18To50, BandMale18To50, BandFemale50Plus, BandMale50Plus:
		return key
	}
	return fallbackBand
}

// RDA returns the demographic-banded RDA for a reference entry.
func (s *Store) RDA(ref *domain.NutrientReference, gender domain.Gender, age int) float64 {
	return ref.RDAByGenderAge[RDAKey(gender, age)]
}
