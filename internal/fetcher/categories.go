package fetcher

import "strings"

// arxivCategoryNames maps arXiv category codes to their readable
// names. Its keys are the catalog CategoriesByGroup serves; the Article
// model itself does not carry this label.
var arxivCategoryNames = map[string]string{
	"cs.AI": "Artificial Intelligence",
	"cs.CL": "Computation and Language",
	"cs.CV": "Computer Vision and Pattern Recognition",
	"cs.LG": "Machine Learning",
	"cs.DS": "Data Structures and Algorithms",
	"cs.DB": "Databases",
	"cs.DC": "Distributed, Parallel, and Cluster Computing",
	"cs.CR": "Cryptography and Security",
	"cs.GT": "Computer Science and Game Theory",
	"cs.HC": "Human-Computer Interaction",
	"cs.IR": "Information Retrieval",
	"cs.IT": "Information Theory",
	"cs.LO": "Logic in Computer Science",
	"cs.NE": "Neural and Evolutionary Computing",
	"cs.NI": "Networking and Internet Architecture",
	"cs.RO": "Robotics",
	"cs.SE": "Software Engineering",
	"cs.SY": "Systems and Control",
	"stat.ML": "Machine Learning (Statistics)",
	"math.OC": "Optimization and Control",
	"eess.IV": "Image and Video Processing",
	"eess.SP": "Signal Processing",
	"q-bio.NC": "Neurons and Cognition",
}

// CategoryName returns the human-readable name for an arXiv category
// code, or the code itself if unrecognized.
func CategoryName(code string) string {
	if name, ok := arxivCategoryNames[code]; ok {
		return name
	}
	return code
}

// IsValidArxivCategory reports whether code is a known category.
func IsValidArxivCategory(code string) bool {
	_, ok := arxivCategoryNames[code]
	return ok
}

// CategoriesByGroup returns the category catalog grouped by top-level
// discipline prefix (cs, math, stat, eess, q-bio, …), serving the
// `/sources/arxiv/categories` endpoint.
func CategoriesByGroup() map[string][]string {
	groups := make(map[string][]string)
	for code := range arxivCategoryNames {
		group := code
		if idx := strings.IndexByte(code, '.'); idx != -1 {
			group = code[:idx]
		}
		groups[group] = append(groups[group], code)
	}
	return groups
}
