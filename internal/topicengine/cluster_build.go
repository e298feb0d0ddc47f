package topicengine

import (
	"sort"

	"topicfind-backend/internal/models"
)

const keywordTopN = 10
const representativeDocCount = 3

// clusterBuild is one retained cluster on its way to becoming a Topic:
// the article indices it covers (into the caller's filtered slice),
// its top keywords, and its representative document texts.
type clusterBuild struct {
	internalID         int
	articleIndices     []int
	keywords           []models.Keyword
	representativeDocs []string
}

// groupByAssignment partitions [0,n) by cluster assignment, keyed by
// cluster id, dropping clusters smaller than minClusterSize. The map is
// unordered; buildClusters sorts the ids.
func groupByAssignment(assignments []int, minClusterSize int) map[int][]int {
	groups := make(map[int][]int)
	for i, c := range assignments {
		groups[c] = append(groups[c], i)
	}
	for c, indices := range groups {
		if len(indices) < minClusterSize {
			delete(groups, c)
		}
	}
	return groups
}

// buildClusters turns raw group assignments into clusterBuilds, with
// keywords and representative documents computed per cluster.
func buildClusters(docs []string, vectors [][]float32, groups map[int][]int) []clusterBuild {
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	builds := make([]clusterBuild, 0, len(ids))
	for _, id := range ids {
		indices := groups[id]

		texts := make([]string, len(indices))
		memberVectors := make([][]float32, len(indices))
		for i, idx := range indices {
			texts[i] = docs[idx]
			memberVectors[i] = vectors[idx]
		}

		builds = append(builds, clusterBuild{
			internalID:         id,
			articleIndices:     indices,
			keywords:           extractKeywords(texts, keywordTopN),
			representativeDocs: representativeDocs(texts, memberVectors, representativeDocCount),
		})
	}
	return builds
}

// representativeDocs picks up to n documents closest to the cluster's
// centroid, used to seed the LLM label prompt.
func representativeDocs(texts []string, vectors [][]float32, n int) []string {
	if len(vectors) == 0 {
		return nil
	}

	centroid := centroidOf(vectors)

	type ranked struct {
		text string
		dist float64
	}
	items := make([]ranked, len(texts))
	for i, v := range vectors {
		items[i] = ranked{text: texts[i], dist: squaredDistance(v, centroid)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].dist < items[j].dist
	})

	if len(items) > n {
		items = items[:n]
	}

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.text
	}
	return out
}

func centroidOf(vectors [][]float32) []float32 {
	dim := len(vectors[0])
	sums := make([]float64, dim)
	for _, v := range vectors {
		for j := 0; j < dim && j < len(v); j++ {
			sums[j] += float64(v[j])
		}
	}
	centroid := make([]float32, dim)
	for j := range sums {
		centroid[j] = float32(sums[j] / float64(len(vectors)))
	}
	return centroid
}
