package topicengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords_CountsUnigramsAndBigrams(t *testing.T) {
	texts := []string{
		"graph neural networks for molecular property prediction",
		"graph neural networks outperform baseline classifiers",
	}

	got := extractKeywords(texts, 10)

	byTerm := make(map[string]float64, len(got))
	for _, kw := range got {
		byTerm[kw.Term] = kw.Weight
	}

	assert.Equal(t, 2.0, byTerm["graph"])
	assert.Equal(t, 2.0, byTerm["neural"])
	assert.Equal(t, 2.0, byTerm["networks"])
	assert.Equal(t, 2.0, byTerm["graph neural"])
	assert.Equal(t, 2.0, byTerm["neural networks"])
}

func TestExtractKeywords_ExcludesStopWordsAndShortTokens(t *testing.T) {
	texts := []string{"the study of graph neural networks is a new approach"}

	got := extractKeywords(texts, 20)

	for _, kw := range got {
		assert.NotContains(t, []string{"the", "of", "is", "a"}, kw.Term)
		assert.NotContains(t, []string{"study", "new", "approach"}, kw.Term)
	}
}

func TestExtractKeywords_BigramsOnlyBridgeSurvivingTokens(t *testing.T) {
	// "of" is filtered out, so "graph" and "neural" never became adjacent
	// through it in the original text, but the filtered token stream still
	// treats them as neighbors for bigram purposes.
	texts := []string{"graph of neural networks"}

	got := extractKeywords(texts, 20)

	var sawBigram bool
	for _, kw := range got {
		if kw.Term == "graph neural" {
			sawBigram = true
		}
	}
	assert.True(t, sawBigram)
}

func TestExtractKeywords_RespectsTopN(t *testing.T) {
	texts := []string{"alpha bravo charlie delta echo foxtrot golf hotel"}

	got := extractKeywords(texts, 3)

	assert.Len(t, got, 3)
}
