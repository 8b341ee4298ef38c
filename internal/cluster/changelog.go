package cluster

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/domain"
)

// logProtocolChanges records what a refit changed per cluster: nutrients
// added to the protocol, removed from it, and doses that moved. Purely
// informational; nothing reads it back.
func logProtocolChanges(log *logrus.Logger, previous, next map[int]*domain.ClusterProtocol) {
	ids := make(map[int]struct{}, len(previous)+len(next))
	for id := range previous {
		ids[id] = struct{}{}
	}
	for id := range next {
		ids[id] = struct{}{}
	}

	ordered := make([]int, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Ints(ordered)

	for _, id := range ordered {
		before := doseIndex(previous[id])
		after := doseIndex(next[id])

		var added, removed, modified []string
		for nutrient := range after {
			if _, ok := before[nutrient]; !ok {
				added = append(added, nutrient)
			} else if before[nutrient] != after[nutrient] {
				modified = append(modified, nutrient)
			}
		}
		for nutrient := range before {
			if _, ok := after[nutrient]; !ok {
				removed = append(removed, nutrient)
			}
		}

		if len(added) == 0 && len(removed) == 0 && len(modified) == 0 {
			continue
		}

		sort.Strings(added)
		sort.Strings(removed)
		sort.Strings(modified)

		log.WithFields(logrus.Fields{
			"cluster_id": id,
			"added":      added,
			"removed":    removed,
			"modified":   modified,
		}).Info("Cluster protocol changed")
	}
}

func doseIndex(p *domain.ClusterProtocol) map[string]float64 {
	if p == nil {
		return map[string]float64{}
	}
	index := make(map[string]float64, len(p.Recommendations))
	for _, rec := range p.Recommendations {
		index[rec.Name] = rec.Dosage
	}
	return index
}
