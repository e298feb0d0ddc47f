package topicengine

import (
	"math"
	"math/rand"
)

const kmeansSeed = 42
const kmeansMaxIterations = 50

// kmeans is the deterministic clustering substitute the engine uses
// uniformly, whatever the number of articles: Lloyd's algorithm
// with centroids initialized from a seeded RNG so identical inputs
// always produce identical assignments.
func kmeans(vectors [][]float32, k int) []int {
	n := len(vectors)
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	rng := rand.New(rand.NewSource(kmeansSeed))
	centroids := initCentroids(vectors, k, rng)
	assignments := make([]int, n)

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearestCentroid(v, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		centroids = recomputeCentroids(vectors, assignments, k, len(vectors[0]))

		if !changed && iter > 0 {
			break
		}
	}

	return assignments
}

// initCentroids picks k distinct starting points using a seeded
// shuffle of indices, so initialization is reproducible.
func initCentroids(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	indices := rng.Perm(len(vectors))
	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		src := vectors[indices[i%len(indices)]]
		centroids[i] = append([]float32(nil), src...)
	}
	return centroids
}

func nearestCentroid(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := squaredDistance(v, centroids[0])
	for i := 1; i < len(centroids); i++ {
		d := squaredDistance(v, centroids[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func squaredDistance(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func recomputeCentroids(vectors [][]float32, assignments []int, k, dim int) [][]float32 {
	sums := make([][]float64, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}

	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for j := 0; j < dim && j < len(v); j++ {
			sums[c][j] += float64(v[j])
		}
	}

	centroids := make([][]float32, k)
	for c := 0; c < k; c++ {
		centroids[c] = make([]float32, dim)
		if counts[c] == 0 {
			// Empty cluster: keep a zero centroid, it simply attracts
			// nothing further and is pruned by the minClusterSize filter.
			continue
		}
		for j := 0; j < dim; j++ {
			centroids[c][j] = float32(sums[c][j] / float64(counts[c]))
		}
	}
	return centroids
}

// chooseK implements the spec's k-selection rule: k(n) = sqrt(n/2),
// rounded, clamped to [1, n].
func chooseK(n int) int {
	if n <= 1 {
		return 1
	}
	k := int(math.Round(math.Sqrt(float64(n) / 2)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}
