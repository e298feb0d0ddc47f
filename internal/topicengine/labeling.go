package topicengine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"topicfind-backend/internal/llm"
)

const labelingDeadline = 60 * time.Second

type labelResponse struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// jsonGenerator is the downstream collaborator labeling depends on —
// an interface rather than *llm.Client directly so tests can supply a
// fake without making network calls.
type jsonGenerator interface {
	GenerateLabel(ctx context.Context, prompt string) (*labelResponse, string, error)
}

// clientLabelGenerator adapts *llm.Client's generic GenerateJSON
// function (generic methods aren't expressible in Go) to jsonGenerator.
type clientLabelGenerator struct {
	client *llm.Client
}

func (g clientLabelGenerator) GenerateLabel(ctx context.Context, prompt string) (*labelResponse, string, error) {
	return llm.GenerateJSON[labelResponse](ctx, g.client, "", prompt)
}

const labelPrompt = `Given the following keywords and representative documents from a cluster of related articles, produce a concise topic label and description.

Keywords: %s

Representative documents:
%s

Respond with a single raw JSON object, no markdown fences, with exactly these keys:
  "label": a topic title of about 5 words
  "description": about two sentences describing the topic`

// labelResult pairs a cluster's chosen title/description with the
// index of the clusterBuild it was produced for, so results can be
// reassembled in the caller's original order once the fan-out joins.
type labelResult struct {
	index       int
	title       string
	description string
}

// labelClusters issues one LLM request per cluster concurrently,
// sharing a single deadline so a slow/failed call degrades that
// cluster's label without blocking the others.
func labelClusters(ctx context.Context, client jsonGenerator, builds []clusterBuild) []labelResult {
	ctx, cancel := context.WithTimeout(ctx, labelingDeadline)
	defer cancel()

	results := make([]labelResult, len(builds))
	g, gctx := errgroup.WithContext(ctx)

	for i, build := range builds {
		i, build := i, build
		g.Go(func() error {
			title, description := labelOne(gctx, client, build)
			results[i] = labelResult{index: i, title: title, description: description}
			return nil
		})
	}

	// labelOne never returns an error (it degrades internally), so Wait
	// only ever reports context cancellation; either way the partially
	// filled results (with degraded defaults for not-yet-set entries)
	// are still usable.
	_ = g.Wait()

	for i := range results {
		if results[i].title == "" && results[i].description == "" {
			results[i] = labelResult{index: i, title: fallbackClusterTitle(builds[i]), description: "Could not generate a detailed description for this cluster."}
		}
	}

	return results
}

func labelOne(ctx context.Context, client jsonGenerator, build clusterBuild) (string, string) {
	prompt := buildLabelPrompt(build)

	resp, raw, err := client.GenerateLabel(ctx, prompt)
	if err != nil {
		return degradeLabel(raw)
	}
	return cleanTitle(resp.Label), resp.Description
}

func buildLabelPrompt(build clusterBuild) string {
	keywordTerms := make([]string, len(build.keywords))
	for i, k := range build.keywords {
		keywordTerms[i] = k.Term
	}

	var docs strings.Builder
	for i, doc := range build.representativeDocs {
		fmt.Fprintf(&docs, "%d. %s\n", i+1, truncateForPrompt(doc, 500))
	}

	return fmt.Sprintf(labelPrompt, strings.Join(keywordTerms, ", "), docs.String())
}

func truncateForPrompt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// degradeLabel implements the documented parse-failure fallback: the
// label becomes the first 50 characters of the raw response, the
// description the raw response verbatim.
func degradeLabel(raw string) (string, string) {
	label := raw
	if len(label) > 50 {
		label = label[:50]
	}
	if label == "" {
		label = "Untitled topic"
	}
	return label, raw
}

func fallbackClusterTitle(build clusterBuild) string {
	if len(build.keywords) > 0 {
		return build.keywords[0].Term
	}
	return "Untitled topic"
}

var (
	numericPrefixPattern = regexp.MustCompile(`^\d+_`)
	labelPrefixPattern   = regexp.MustCompile(`(?i)^(label|topic|name):\s*`)
)

// cleanTitle applies the documented title cleanup rules: strip a
// leading numeric prefix, replace underscores with spaces, strip a
// leading label:/topic:/name: prefix, trim surrounding quotes, and
// capitalize.
func cleanTitle(raw string) string {
	s := strings.TrimSpace(raw)
	s = numericPrefixPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "_", " ")
	s = labelPrefixPattern.ReplaceAllString(s, "")
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	return capitalize(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	r := []rune(lower)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
