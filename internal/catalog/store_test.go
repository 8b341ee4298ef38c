package catalog

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplement-advisor-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Vitamin D", "vitamin_d"},
		{"vitamin d", "vitamin_d"},
		{"vitamin_d", "vitamin_d"},
		{"  Iron  ", "iron"},
		{"Folate (B9)", "folate_(b9)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeKey(tt.input))
	}
}

func TestStore_Lookup(t *testing.T) {
	store := NewDefaultStore(testLogger())

	ref, ok := store.Lookup("Vitamin B12")
	require.True(t, ok)
	assert.Equal(t, "Vitamin B12", ref.Name)
	assert.Equal(t, "mcg", ref.Unit)

	// Case and separator variants address the same entry
	variants := []string{"vitamin b12", "VITAMIN_B12", " vitamin b12 "}
	for _, v := range variants {
		got, ok := store.Lookup(v)
		require.True(t, ok, "lookup %q", v)
		assert.Same(t, ref, got)
	}

	_, ok = store.Lookup("unobtainium")
	assert.False(t, ok)
}

func TestStore_LookupAbsenceIsNotError(t *testing.T) {
	store := NewDefaultStore(testLogger())
	ref, ok := store.Lookup("kryptonite")
	assert.False(t, ok)
	assert.Nil(t, ref)
}

func TestRDAKey(t *testing.T) {
	tests := []struct {
		gender   domain.Gender
		age      int
		expected string
	}{
		{domain.GenderFemale, 30, BandFemale18To50},
		{domain.GenderMale, 30, BandMale18To50},
		{domain.GenderFemale, 50, BandFemale50Plus},
		{domain.GenderMale, 65, BandMale50Plus},
		{domain.GenderFemale, 49, BandFemale18To50},
		// Unknown genders fall back to the female band
		{domain.GenderOther, 30, BandFemale18To50},
		{domain.GenderUnspecified, 70, BandFemale18To50},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RDAKey(tt.gender, tt.age), "gender=%s age=%d", tt.gender, tt.age)
	}
}

func TestStore_RDA(t *testing.T) {
	store := NewDefaultStore(testLogger())
	iron, ok := store.Lookup("iron")
	require.True(t, ok)

	assert.Equal(t, 18.0, store.RDA(iron, domain.GenderFemale, 30))
	assert.Equal(t, 8.0, store.RDA(iron, domain.GenderMale, 30))
	assert.Equal(t, 8.0, store.RDA(iron, domain.GenderFemale, 55))
}

func TestLoadStore_EmptyPathUsesDefaults(t *testing.T) {
	store, err := LoadStore("", testLogger())
	require.NoError(t, err)
	assert.Greater(t, store.Len(), 10)
}

func TestLoadStore_FileCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	content := `{
		"Vitamin D": {
			"name": "Vitamin D",
			"unit": "IU",
			"rda_by_gender_age": {"female_18_50": 600},
			"optimal_range": {"min": 1000, "max": 2000},
			"upper_limit": 4000
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	store, err := LoadStore(path, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	ref, ok := store.Lookup("vitamin_d")
	require.True(t, ok)
	assert.Equal(t, 4000.0, ref.UpperLimit)
}

func TestLoadStore_MissingFileIsHardFailure(t *testing.T) {
	_, err := LoadStore("/nonexistent/catalog.json", testLogger())
	require.Error(t, err)

	var catErr *domain.CatalogError
	assert.ErrorAs(t, err, &catErr)
}

func TestDefaultCatalog_IronContraindications(t *testing.T) {
	store := NewDefaultStore(testLogger())
	iron, ok := store.Lookup("iron")
	require.True(t, ok)
	assert.Contains(t, iron.Contraindications, "hemochromatosis")
	assert.Contains(t, iron.Interactions, "Calcium")
}
