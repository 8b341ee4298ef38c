package catalog

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InteractionTable maps lowercased medication names to the lowercased
// supplement names they are known to interact with.
type InteractionTable map[string][]string

// defaultInteractions is the built-in medication-supplement table.
func defaultInteractions() InteractionTable {
	return InteractionTable{
		"warfarin":      {"vitamin k", "omega-3", "dha", "coq10"},
		"levothyroxine": {"iron", "calcium", "magnesium"},
		"metformin":     {"vitamin b12"},
		"sertraline":    {"ashwagandha"},
		"fluoxetine":    {"ashwagandha"},
		"aspirin":       {"omega-3", "dha"},
		"ciprofloxacin": {"iron", "calcium", "zinc", "magnesium"},
		"prednisone":    {"calcium", "vitamin d"},
	}
}

// LoadInteractionTable reads a medication interaction table from a JSON
// file, falling back to the built-in table when no path is configured.
// A missing configured file is non-fatal: interactions degrade to the
// defaults with a warning, matching the checker's soft-failure policy.
func LoadInteractionTable(path string, logger *logrus.Logger) InteractionTable {
	if path == "" {
		return defaultInteractions()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("Interaction table not readable, using defaults")
		return defaultInteractions()
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.WithError(err).WithField("path", path).Warn("Interaction table not parseable, using defaults")
		return defaultInteractions()
	}

	table := make(InteractionTable, len(raw))
	for med, supps := range raw {
		lowered := make([]string, len(supps))
		for i, s := range supps {
			lowered[i] = strings.ToLower(s)
		}
		table[strings.ToLower(med)] = lowered
	}
	return table
}

// Lookup returns the interacting supplements for a medication.
func (t InteractionTable) Lookup(medication string) []string {
	return t[strings.ToLower(strings.TrimSpace(medication))]
}
