package topicengine

import (
	"regexp"
	"sort"
	"strings"

	"topicfind-backend/internal/models"
)

// englishStopWords is the standard short stop-word list used by the
// bag-of-words weighting step.
var englishStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "this": true, "that": true,
	"these": true, "those": true, "it": true, "its": true, "as": true,
	"from": true, "into": true, "than": true, "then": true, "so": true,
	"we": true, "our": true, "their": true, "they": true, "has": true,
	"have": true, "had": true, "not": true, "can": true, "will": true,
	"which": true, "such": true, "also": true, "using": true, "use": true,
	"based": true, "via": true,
}

// genericResearchWords excludes terms that are generic to research
// writing rather than descriptive of any one topic — supplemented from
// the original Python service's keyword filter, which applies the same
// exclusion on top of plain stop words.
var genericResearchWords = map[string]bool{
	"paper": true, "papers": true, "study": true, "studies": true,
	"research": true, "method": true, "methods": true, "approach": true,
	"approaches": true, "result": true, "results": true, "show": true,
	"shows": true, "propose": true, "proposed": true, "novel": true,
	"new": true, "model": true, "models": true, "analysis": true,
	"data": true, "system": true, "systems": true, "work": true,
}

var tokenPattern = regexp.MustCompile(`[a-zA-Z]+`)

// extractKeywords builds a count-weighted bag-of-words over the given
// document texts, the same unigram/bigram split the original topic
// service's TfidfVectorizer(ngram_range=(1,2)) produces, excluding stop
// words, generic research words, and tokens shorter than 3 characters.
// It returns the top n terms by weight (ties broken by first-seen order
// for determinism).
func extractKeywords(texts []string, topN int) []models.Keyword {
	order := make([]string, 0)
	counts := make(map[string]int)

	add := func(term string) {
		if _, seen := counts[term]; !seen {
			order = append(order, term)
		}
		counts[term]++
	}

	for _, text := range texts {
		tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
		kept := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if len(tok) < 3 || englishStopWords[tok] || genericResearchWords[tok] {
				continue
			}
			kept = append(kept, tok)
			add(tok)
		}
		for i := 0; i+1 < len(kept); i++ {
			add(kept[i] + " " + kept[i+1])
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > topN {
		order = order[:topN]
	}

	keywords := make([]models.Keyword, len(order))
	for i, term := range order {
		keywords[i] = models.Keyword{Term: term, Weight: float64(counts[term])}
	}
	return keywords
}
