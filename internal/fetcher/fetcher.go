// Package fetcher implements ArticleFetcher: retrieving articles from
// arXiv or Reddit for a classified source selection, with retry,
// inter-request throttling, and three-tier empty-result fallback on
// the arXiv path.
package fetcher

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"topicfind-backend/internal/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200

	defaultArxivBaseURL = "https://export.arxiv.org/api/query"
	arxivMaxRetries     = 3
	arxivBaseDelay      = 500 * time.Millisecond
	minInterRequestGap  = 1 * time.Second
	requestTimeout      = 30 * time.Second
)

// Fetcher is the concrete ArticleFetcher.
type Fetcher struct {
	httpClient      *http.Client
	arxivBaseURL    string
	redditUserAgent string
	logger          *slog.Logger

	arxivLimiter *rate.Limiter
}

func New(arxivBaseURL, redditUserAgent string, logger *slog.Logger) *Fetcher {
	if arxivBaseURL == "" {
		arxivBaseURL = defaultArxivBaseURL
	}
	return &Fetcher{
		httpClient:      &http.Client{Timeout: requestTimeout},
		arxivBaseURL:    arxivBaseURL,
		redditUserAgent: redditUserAgent,
		logger:          logger,
		arxivLimiter:    rate.NewLimiter(rate.Every(minInterRequestGap), 1),
	}
}

// Fetch dispatches to the arXiv or Reddit path based on the selection's
// kind, clamping limit into [1, MaxLimit] (default DefaultLimit).
func (f *Fetcher) Fetch(ctx context.Context, selection models.SourceSelection, limit int) ([]models.Article, error) {
	limit = clampLimit(limit)

	if selection.IsArXiv() {
		return f.fetchArXiv(ctx, selection, limit)
	}
	return f.fetchReddit(ctx, selection, limit)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// --- arXiv path ---

func (f *Fetcher) fetchArXiv(ctx context.Context, selection models.SourceSelection, limit int) ([]models.Article, error) {
	expr := selection.Expression()

	for tier, query := range buildArxivFallbackQueries(expr) {
		articles, err := f.fetchArxivQuery(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		if len(articles) > 0 {
			return articles, nil
		}
		f.logger.Debug("arxiv fetch tier returned no results", slog.Int("tier", tier), slog.String("query", query))
	}

	return []models.Article{}, nil
}

// buildArxivFallbackQueries implements the three-tier fallback: the
// original expression; if it is an advanced all:/AND/cat: expression,
// the category alone; then the quoted free-text terms unescaped.
func buildArxivFallbackQueries(expr string) []string {
	queries := []string{expr}

	hasAdvancedShape := strings.Contains(expr, "all:") && strings.Contains(expr, "AND") && strings.Contains(expr, "cat:")
	if !hasAdvancedShape {
		return queries
	}

	if idx := strings.LastIndex(expr, "cat:"); idx != -1 {
		category := strings.TrimSpace(expr[idx+len("cat:"):])
		if category != "" {
			queries = append(queries, "cat:"+category)
		}
	}

	if terms := extractQuotedTerms(expr); terms != "" {
		queries = append(queries, "all:"+terms)
	}

	return queries
}

func extractQuotedTerms(expr string) string {
	start := strings.Index(expr, `"`)
	if start == -1 {
		return ""
	}
	rest := expr[start+1:]
	end := strings.Index(rest, `"`)
	if end == -1 {
		return ""
	}
	return rest[:end]
}

func (f *Fetcher) fetchArxivQuery(ctx context.Context, query string, limit int) ([]models.Article, error) {
	reqURL := f.arxivBaseURL + "?" + buildArxivQueryString(query, limit)

	var lastErr error
	for attempt := 0; attempt <= arxivMaxRetries; attempt++ {
		if attempt > 0 {
			delay := arxivBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := f.arxivLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := f.doGet(ctx, reqURL, "")
		if err != nil {
			lastErr = err
			continue
		}

		return parseArxivFeed(body, limit)
	}

	return nil, &FetchError{Kind: FetchErrorTransient, Upstream: "arxiv", Err: lastErr}
}

// buildArxivQueryString builds the query string by hand rather than
// via url.Values, because arXiv treats ':', '+', and '"' as query
// operators that must survive percent-encoding literally.
func buildArxivQueryString(query string, limit int) string {
	var b strings.Builder
	b.WriteString("search_query=")
	b.WriteString(arxivEncode(query))
	b.WriteString("&sortBy=relevance&sortOrder=descending&start=0&max_results=")
	b.WriteString(strconv.Itoa(limit))
	return b.String()
}

func arxivEncode(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ':' || r == '+' || r == '"':
			b.WriteRune(r)
		case isArxivUnreserved(r):
			b.WriteRune(r)
		default:
			for _, c := range []byte(string(r)) {
				fmt.Fprintf(&b, "%%%02X", c)
			}
		}
	}
	return b.String()
}

func isArxivUnreserved(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.' || r == '~':
		return true
	}
	return false
}

func parseArxivFeed(body []byte, limit int) ([]models.Article, error) {
	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, &FetchError{Kind: FetchErrorInvalidQuery, Upstream: "arxiv", Err: err}
	}

	articles := make([]models.Article, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		articles = append(articles, convertArxivEntry(entry))
		if len(articles) >= limit {
			break
		}
	}
	return articles, nil
}

func convertArxivEntry(entry arxivEntry) models.Article {
	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, a.Name)
	}

	var pdfLink string
	for _, l := range entry.Links {
		if l.Type == "application/pdf" {
			pdfLink = l.Href
			break
		}
	}
	if pdfLink == "" {
		pdfLink = entry.ID
	}

	return models.Article{
		ID:        lastPathSegment(entry.ID),
		Title:     strings.TrimSpace(entry.Title),
		Link:      pdfLink,
		Summary:   strings.TrimSpace(entry.Summary),
		Authors:   authors,
		Published: parseAtomTime(entry.Published),
		Source:    models.ArticleSourceArXiv,
	}
}

func lastPathSegment(id string) string {
	parts := strings.Split(id, "/")
	return parts[len(parts)-1]
}

// parseAtomTime parses an ISO-8601 timestamp and forces it to UTC;
// naive (offset-less) timestamps are assumed UTC already.
func parseAtomTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// time.Parse reads a layout without a zone as UTC.
		t, err = time.Parse("2006-01-02T15:04:05", value)
		if err != nil {
			return nil
		}
	}
	t = t.UTC()
	return &t
}

// --- Reddit path ---

func (f *Fetcher) fetchReddit(ctx context.Context, selection models.SourceSelection, limit int) ([]models.Article, error) {
	reqURL := fmt.Sprintf("https://www.reddit.com/r/%s.rss", url.PathEscape(selection.Expression()))

	body, err := f.doGet(ctx, reqURL, f.redditUserAgent)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrorTransient, Upstream: "reddit", Err: err}
	}

	var feed redditRSS
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, &FetchError{Kind: FetchErrorInvalidQuery, Upstream: "reddit", Err: err}
	}

	articles := make([]models.Article, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if len(articles) >= limit {
			break
		}
		articles = append(articles, convertRedditEntry(entry))
	}
	return articles, nil
}

func convertRedditEntry(entry redditEntry) models.Article {
	var link string
	for _, l := range entry.Links {
		if l.Rel == "alternate" || l.Rel == "" {
			link = l.Href
			break
		}
	}

	published := parseAtomTime(entry.Published)
	if published == nil {
		published = parseAtomTime(entry.Updated)
	}

	return models.Article{
		ID:        lastPathSegment(entry.ID),
		Title:     strings.TrimSpace(entry.Title),
		Link:      link,
		Summary:   strings.TrimSpace(entry.Summary),
		Authors:   nil,
		Published: published,
		Source:    models.ArticleSourceReddit,
	}
}

// --- shared HTTP ---

func (f *Fetcher) doGet(ctx context.Context, reqURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	} else {
		req.Header.Set("User-Agent", "topicfind-backend/1.0")
	}

	// http.Client follows redirects (including a bare 301 to https)
	// automatically by default; no CheckRedirect override needed.
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
