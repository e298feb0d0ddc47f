package topicengine

const hierarchicalThreshold = 10
const subClusterMinSize = 2

// expandHierarchical re-clusters a cluster whose member count exceeds
// hierarchicalThreshold, replacing it with its child clusters. If
// sub-clustering yields at most one surviving child, the parent is
// kept intact.
func expandHierarchical(docs []string, vectors [][]float32, build clusterBuild) []clusterBuild {
	if len(build.articleIndices) <= hierarchicalThreshold {
		return []clusterBuild{build}
	}

	subVectors := make([][]float32, len(build.articleIndices))
	subDocs := make([]string, len(build.articleIndices))
	for i, idx := range build.articleIndices {
		subVectors[i] = vectors[idx]
		subDocs[i] = docs[idx]
	}

	k := chooseK(len(subVectors))
	assignments := kmeans(subVectors, k)
	groups := groupByAssignment(assignments, subClusterMinSize)
	if len(groups) <= 1 {
		return []clusterBuild{build}
	}

	localBuilds := buildClusters(subDocs, subVectors, groups)

	children := make([]clusterBuild, len(localBuilds))
	for i, cb := range localBuilds {
		originalIndices := make([]int, len(cb.articleIndices))
		for j, localIdx := range cb.articleIndices {
			originalIndices[j] = build.articleIndices[localIdx]
		}
		children[i] = clusterBuild{
			internalID:         build.internalID*100 + cb.internalID + 1,
			articleIndices:     originalIndices,
			keywords:           cb.keywords,
			representativeDocs: cb.representativeDocs,
		}
	}
	return children
}
