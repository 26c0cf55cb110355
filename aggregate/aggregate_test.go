package aggregate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seotools/model"
)

func kw(keyword, source string, rel float64) model.KeywordCandidate {
	return model.KeywordCandidate{Keyword: keyword, Source: source, Relevance: rel}
}

func TestKeywords(t *testing.T) {
	results := [][]model.KeywordCandidate{
		{kw("Running Shoes", "reddit", 0.4), kw("go", "reddit", 1), kw("trail running", "reddit", 0.9)},
		{kw("running  shoes ", "google_autocomplete", 0.9), kw("best running shoes", "google_autocomplete", 0.8)},
		nil,
		{kw(strings.Repeat("x", 151), "pattern", 1)},
	}

	got := Keywords(results, nil, 0)
	require.Len(t, got, 3)

	// first occurrence keeps its source, relevance is the max seen
	assert.Equal(t, "running shoes", got[1].Keyword)
	assert.Equal(t, "reddit", got[1].Source)
	assert.Equal(t, 0.9, got[1].Relevance)

	// google 0.8 outweighs reddit 0.9*0.7, ties keep input order
	assert.Equal(t, "best running shoes", got[0].Keyword)
	assert.Equal(t, "trail running", got[2].Keyword)
}

func TestKeywordsStableAndLimited(t *testing.T) {
	var rs []model.KeywordCandidate
	for i := range 100 {
		rs = append(rs, kw(fmt.Sprintf("keyword %03d", i), "unknown_source", 0.5))
	}
	got := Keywords([][]model.KeywordCandidate{rs}, DefaultTrust, 0)
	require.Len(t, got, DefaultKeywordLimit)
	assert.Equal(t, "keyword 000", got[0].Keyword)
	assert.Equal(t, "keyword 079", got[79].Keyword)

	assert.Len(t, Keywords([][]model.KeywordCandidate{rs}, DefaultTrust, 5), 5)
}

func TestTrustWeight(t *testing.T) {
	assert.Equal(t, 1.0, DefaultTrust.Weight("google_autocomplete"))
	assert.Equal(t, UnknownTrust, DefaultTrust.Weight("nope"))
	assert.Equal(t, 0.2, TrustTable{"x": 0.2}.Weight("x"))
}

func TestCompetitors(t *testing.T) {
	results := [][]model.CompetitorCandidate{
		{
			{Domain: "a.com", URL: "https://a.com/", Position: 1},
			{Domain: "b.com", URL: "https://b.com/x", Position: 2},
		},
		{
			{Domain: "a.com", URL: "https://a.com", Position: 1},
			{Domain: "www.b.com", URL: "https://www.b.com/y", Position: 4},
			{URL: "https://c.com/z", Position: 5},
		},
	}
	got := Competitors(results, 0)
	require.Len(t, got, 4)
	assert.Equal(t, "https://a.com/", got[0].URL)
	assert.Equal(t, "https://b.com/x", got[1].URL)
	assert.Equal(t, "https://www.b.com/y", got[2].URL)
	assert.Equal(t, 4, got[2].Position)
	assert.Equal(t, "c.com", got[3].Domain)

	assert.Len(t, Competitors(results, 2), 2)
}

func TestFanOut(t *testing.T) {
	got := FanOut(context.Background(),
		func(context.Context) []int { return []int{1} },
		func(context.Context) []int { panic("boom") },
		func(context.Context) []int { return []int{3, 4} },
	)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1}, got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, []int{3, 4}, got[2])

	assert.Empty(t, FanOut[int](context.Background()))
}

func TestSourceCounts(t *testing.T) {
	got := SourceCounts([]model.KeywordCandidate{kw("a", "x", 1), kw("b", "x", 1), kw("c", "y", 1)})
	assert.Equal(t, map[string]int{"x": 2, "y": 1}, got)
}

type fakeSERP struct {
	mu      sync.Mutex
	name    string
	results map[string][]model.CompetitorCandidate
	pages   map[int][]model.CompetitorCandidate
	queries []string
}

func (f *fakeSERP) Name() string { return f.name }

func (f *fakeSERP) Competitors(_ context.Context, query string, _ model.Locale) []model.CompetitorCandidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results[query]
}

func (f *fakeSERP) CompetitorsPage(ctx context.Context, query string, loc model.Locale, page int) []model.CompetitorCandidate {
	if page <= 1 {
		return f.Competitors(ctx, query, loc)
	}
	return f.pages[page]
}

func (f *fakeSERP) SearchURL(query string, _ model.Locale) string { return "https://" + f.name + "/?q=" + query }

type fakeSuggester []string

func (f fakeSuggester) Suggest(context.Context, string, model.Locale) []string { return f }

type fakeRendered struct {
	fakeSERP
	available bool
}

func (f *fakeRendered) Available() bool { return f.available }

func hits(prefix string, n int) []model.CompetitorCandidate {
	out := make([]model.CompetitorCandidate, n)
	for i := range out {
		d := fmt.Sprintf("%s%d.example", prefix, i)
		out[i] = model.CompetitorCandidate{Domain: d, URL: "https://" + d + "/", Position: i + 1}
	}
	return out
}

func TestDiscoverPrimaryOnly(t *testing.T) {
	ddg := &fakeSERP{name: "ddg", results: map[string][]model.CompetitorCandidate{
		"seo tools":       hits("d", 10),
		"free seo tools":  hits("s", 3),
		"best seo tools":  hits("b", 2),
		"seo tools guide": hits("d", 2),
	}}
	bing := &fakeSERP{name: "bing", results: map[string][]model.CompetitorCandidate{"seo tools": hits("d", 5)}}
	d := NewDiscoverer(ddg, bing, fakeSuggester{"free seo tools", "seo tools online", "ignored"}, nil, nil)

	got := d.Discover(context.Background(), "seo tools", model.Locale{})
	assert.False(t, got.UsedFallback)
	assert.Equal(t, 15, got.PrimaryCount)
	assert.Len(t, got.Competitors, 15)
	assert.NotContains(t, ddg.queries, "ignored")
	assert.Contains(t, ddg.queries, "seo tools online")
}

func TestDiscoverFallback(t *testing.T) {
	ddg := &fakeSERP{
		name:    "ddg",
		results: map[string][]model.CompetitorCandidate{"niche": hits("d", 3)},
		pages:   map[int][]model.CompetitorCandidate{2: hits("p", 4)},
	}
	bing := &fakeSERP{
		name:    "bing",
		results: map[string][]model.CompetitorCandidate{"niche": hits("d", 2)},
		pages:   map[int][]model.CompetitorCandidate{2: hits("q", 2)},
	}

	t.Run("StaticPages", func(t *testing.T) {
		d := NewDiscoverer(ddg, bing, nil, &fakeRendered{}, nil)
		got := d.Discover(context.Background(), "niche", model.Locale{})
		assert.True(t, got.UsedFallback)
		assert.Equal(t, 3, got.PrimaryCount)
		require.Len(t, got.Competitors, 9)
		assert.Equal(t, "d0.example", got.Competitors[0].Domain)
		assert.Equal(t, "p0.example", got.Competitors[3].Domain)
		assert.Equal(t, "q1.example", got.Competitors[8].Domain)
	})

	t.Run("Browser", func(t *testing.T) {
		rendered := &fakeRendered{available: true, fakeSERP: fakeSERP{
			name:    "ddg_browser",
			results: map[string][]model.CompetitorCandidate{"niche": append(hits("d", 1), hits("r", 3)...)},
		}}
		d := NewDiscoverer(ddg, bing, nil, rendered, nil)
		got := d.Discover(context.Background(), "niche", model.Locale{})
		assert.True(t, got.UsedFallback)
		require.Len(t, got.Competitors, 8)
		assert.Equal(t, "r0.example", got.Competitors[3].Domain)
	})
}

func TestDiscoverNoEngines(t *testing.T) {
	got := NewDiscoverer(nil, nil, nil, nil, nil).Discover(context.Background(), "x", model.Locale{})
	assert.Empty(t, got.Competitors)
	assert.True(t, got.UsedFallback)
}
