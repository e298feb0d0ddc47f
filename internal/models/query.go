package models

import (
	"strings"

	pipelineerrors "topicfind-backend/internal/errors"
)

// Query is the opaque free-form user string a discovery call starts from.
type Query string

const maxQueryBytes = 1024

// NewQuery trims the input and enforces the non-empty, ≤1KiB invariant.
func NewQuery(raw string) (Query, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", pipelineerrors.ErrEmptyQuery
	}
	if len(trimmed) > maxQueryBytes {
		return "", pipelineerrors.NewInvalidRequestError("query exceeds maximum length", "query", len(trimmed))
	}
	return Query(trimmed), nil
}

func (q Query) String() string {
	return string(q)
}

// SourceKind discriminates the two SourceSelection cases.
type SourceKind string

const (
	SourceArXiv   SourceKind = "arxiv"
	SourceReddit  SourceKind = "reddit"
)

// SourceSelection is a tagged variant: exactly one of the ArXiv or Reddit
// payloads is meaningful, discriminated by Kind. Constructing it only
// through NewArXivSelection/NewRedditSelection keeps "exactly one case" a
// construction-time invariant instead of a runtime check callers must
// remember to perform.
type SourceSelection struct {
	Kind SourceKind

	// ArXiv payload, valid iff Kind == SourceArXiv.
	Category      string
	AdvancedQuery string // optional

	// Reddit payload, valid iff Kind == SourceReddit.
	Subreddit string
}

func NewArXivSelection(category, advancedQuery string) SourceSelection {
	return SourceSelection{Kind: SourceArXiv, Category: category, AdvancedQuery: advancedQuery}
}

func NewRedditSelection(subreddit string) SourceSelection {
	return SourceSelection{Kind: SourceReddit, Subreddit: subreddit}
}

// IsArXiv reports whether this selection targets arXiv.
func (s SourceSelection) IsArXiv() bool {
	return s.Kind == SourceArXiv
}

// Expression returns the search expression to submit to the selected
// source: the advanced query if set, otherwise the bare category, or the
// subreddit name for Reddit.
func (s SourceSelection) Expression() string {
	if s.Kind == SourceReddit {
		return s.Subreddit
	}
	if s.AdvancedQuery != "" {
		return s.AdvancedQuery
	}
	return "cat:" + s.Category
}
