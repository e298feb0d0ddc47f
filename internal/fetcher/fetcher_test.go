package fetcher

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArxivFallbackQueries(t *testing.T) {
	cases := []struct {
		name string
		expr string
		want []string
	}{
		{
			name: "plain category has no fallback tiers",
			expr: "cat:cs.CV",
			want: []string{"cat:cs.CV"},
		},
		{
			name: "advanced query yields category and unescaped tiers",
			expr: `all:"graph neural network"+AND+cat:cs.LG`,
			want: []string{
				`all:"graph neural network"+AND+cat:cs.LG`,
				"cat:cs.LG",
				"all:graph neural network",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, buildArxivFallbackQueries(tc.expr))
		})
	}
}

func TestArxivEncode(t *testing.T) {
	// ':' , '+' and '"' must survive literally; spaces and other
	// reserved characters are percent-encoded.
	got := arxivEncode(`all:"graph neural network"+AND+cat:cs.LG`)
	want := `all:"graph%20neural%20network"+AND+cat:cs.LG`
	assert.Equal(t, want, got)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, clampLimit(0))
	assert.Equal(t, DefaultLimit, clampLimit(-5))
	assert.Equal(t, 10, clampLimit(10))
	assert.Equal(t, MaxLimit, clampLimit(500))
}

func TestParseArxivFeed(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2101.00001v1</id>
    <title>  A Study of Something  </title>
    <summary>An abstract.</summary>
    <published>2021-01-01T00:00:00Z</published>
    <author><name>Jane Doe</name></author>
    <link href="http://arxiv.org/pdf/2101.00001v1" type="application/pdf"/>
  </entry>
</feed>`)

	articles, err := parseArxivFeed(body, 50)
	assert.NoError(t, err)
	assert.Len(t, articles, 1)
	assert.Equal(t, "2101.00001v1", articles[0].ID)
	assert.Equal(t, "A Study of Something", articles[0].Title)
	assert.Equal(t, []string{"Jane Doe"}, articles[0].Authors)
	assert.Equal(t, "http://arxiv.org/pdf/2101.00001v1", articles[0].Link)
	assert.NotNil(t, articles[0].Published)
}

func TestNew_ArxivLimiterMatchesInterRequestGap(t *testing.T) {
	f := New("", "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, 1, f.arxivLimiter.Burst())
	gotInterval := time.Duration(float64(time.Second) / float64(f.arxivLimiter.Limit()))
	assert.Equal(t, minInterRequestGap, gotInterval)
}

func TestArxivLimiter_AllowsFirstCallImmediately(t *testing.T) {
	f := New("", "", slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Now()
	require.NoError(t, f.arxivLimiter.Wait(context.Background()))
	assert.Less(t, time.Since(start), minInterRequestGap)
}

func TestParseArxivFeed_RespectsLimit(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry><id>http://arxiv.org/abs/1</id><title>one</title></entry>
  <entry><id>http://arxiv.org/abs/2</id><title>two</title></entry>
  <entry><id>http://arxiv.org/abs/3</id><title>three</title></entry>
</feed>`)

	articles, err := parseArxivFeed(body, 2)
	assert.NoError(t, err)
	assert.Len(t, articles, 2)
}
