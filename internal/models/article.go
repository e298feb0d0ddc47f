package models

import (
	"strings"
	"time"
)

// ArticleSource identifies which upstream an Article was fetched from.
type ArticleSource string

const (
	ArticleSourceArXiv  ArticleSource = "arxiv"
	ArticleSourceReddit ArticleSource = "reddit"
)

// Article is a normalized document fetched from arXiv or Reddit. Once
// created by the fetcher it is never mutated as it flows through the
// pipeline.
type Article struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Link      string        `json:"link"`
	Summary   string        `json:"summary"`
	Authors   []string      `json:"authors"`
	Published *time.Time    `json:"published,omitempty"`
	Source    ArticleSource `json:"source"`
}

// DocumentText is the text the embedding provider and the keyword
// extractor operate on: trim(title + " " + summary).
func (a Article) DocumentText() string {
	s := a.Title
	if a.Summary != "" {
		if s != "" {
			s += " "
		}
		s += a.Summary
	}
	return strings.TrimSpace(s)
}
