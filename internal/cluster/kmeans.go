package cluster

import (
	"math"
	"math/rand"
)

// kmeans partitions vectors into k clusters with Lloyd's algorithm and
// k-means++ seeding. The random source is seeded explicitly so refits
// over the same population are reproducible.
type kmeans struct {
	k        int
	maxIters int
	rng      *rand.Rand
}

func newKMeans(k int, seed int64, maxIters int) *kmeans {
	if maxIters <= 0 {
		maxIters = 100
	}
	return &kmeans{
		k:        k,
		maxIters: maxIters,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// fit returns centroids and per-vector assignments. When there are
// fewer vectors than clusters, each vector seeds its own centroid and
// the remaining centroids duplicate the last vector.
func (km *kmeans) fit(vectors [][]float64) (centroids [][]float64, assignments []int) {
	if len(vectors) == 0 {
		return nil, nil
	}

	centroids = km.seedCentroids(vectors)
	assignments = make([]int, len(vectors))

	for iter := 0; iter < km.maxIters; iter++ {
		changed := false
		for i, vec := range vectors {
			best := nearestCentroid(vec, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}

		if iter > 0 && !changed {
			break
		}

		centroids = recomputeCentroids(vectors, assignments, centroids)
	}

	return centroids, assignments
}

// seedCentroids implements k-means++ initialization: the first centroid
// is uniform-random, each later one is drawn proportionally to squared
// distance from the nearest chosen centroid.
func (km *kmeans) seedCentroids(vectors [][]float64) [][]float64 {
	centroids := make([][]float64, 0, km.k)
	centroids = append(centroids, cloneVec(vectors[km.rng.Intn(len(vectors))]))

	for len(centroids) < km.k {
		distances := make([]float64, len(vectors))
		var total float64
		for i, vec := range vectors {
			d := math.Inf(1)
			for _, c := range centroids {
				if dist := squaredDistance(vec, c); dist < d {
					d = dist
				}
			}
			distances[i] = d
			total += d
		}

		if total == 0 {
			// All points coincide with existing centroids; duplicate.
			centroids = append(centroids, cloneVec(vectors[len(vectors)-1]))
			continue
		}

		target := km.rng.Float64() * total
		var cumulative float64
		chosen := len(vectors) - 1
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, cloneVec(vectors[chosen]))
	}

	return centroids
}

func recomputeCentroids(vectors [][]float64, assignments []int, previous [][]float64) [][]float64 {
	k := len(previous)
	dim := len(vectors[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}

	for i, vec := range vectors {
		c := assignments[i]
		counts[c]++
		for j, v := range vec {
			sums[c][j] += v
		}
	}

	centroids := make([][]float64, k)
	for c := range centroids {
		if counts[c] == 0 {
			// Empty cluster keeps its previous centroid.
			centroids[c] = cloneVec(previous[c])
			continue
		}
		centroid := make([]float64, dim)
		for j := range centroid {
			centroid[j] = sums[c][j] / float64(counts[c])
		}
		centroids[c] = centroid
	}

	return centroids
}

func nearestCentroid(vec []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		if d := squaredDistance(vec, c); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func euclideanDistance(a, b []float64) float64 {
	return math.Sqrt(squaredDistance(a, b))
}

func cloneVec(v []float64) []float64 {
	return append([]float64(nil), v...)
}
