package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seotools/cache"
	"github.com/seo-optimizer/seotools/fetch"
)

type MemStats struct {
	HeapAlloc  uint64
	TotalAlloc uint64
	NumGC      uint32
}

func getMemStats() MemStats {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return MemStats{
		HeapAlloc:  stats.HeapAlloc,
		TotalAlloc: stats.TotalAlloc,
		NumGC:      stats.NumGC,
	}
}

const goodPage = `<!doctype html>
<html><head>
<title>Running Shoes Guide for Beginners and Experts</title>
<meta name="description" content="%s">
<meta name="keywords" content="running shoes, trail shoes , ">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="index,follow">
</head><body>
<h1>Running Shoes</h1>
<h2>Road</h2><h3>Cushioning</h3>
<p>%s</p>
<img src="a.png" alt="shoe"><img src="b.png">
<a href="/one">one</a><a href="/two">two</a><a href="/three#frag">three</a>
<a href="/three">dup</a>
<a href="https://example.org/ref" rel="nofollow">ref</a>
<a href="/broken">broken</a>
<script>var words = "not counted";</script>
</body></html>`

func pageServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	desc := strings.Repeat("d", 140)
	text := strings.Repeat("word ", 320)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2025 07:28:00 GMT")
		fmt.Fprintf(w, goodPage, desc, text)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/one", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/two", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/three", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	store := cache.NewStore[*SEOAnalysis](cache.Config{})
	t.Cleanup(store.Close)
	return New(fetch.New(fetch.WithHostRate(0, 0)), store, nil)
}

func TestAnalyze(t *testing.T) {
	srv := pageServer(t, nil)
	a := newTestAnalyzer(t)

	res, err := a.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Title.Score)
	assert.Equal(t, 100, res.Meta.Score)
	assert.Equal(t, 100, res.Headers.Score)
	assert.Equal(t, 30+20+20, res.Content.Score)
	// 320 paragraph words plus headings and anchor text, script excluded
	assert.Equal(t, 330, res.Content.WordCount)
	assert.Equal(t, 1, res.Content.ImagesWithAlt)

	sig := res.Signals
	assert.Equal(t, 200, sig.Status)
	assert.False(t, sig.HTTPS)
	assert.Equal(t, []string{"running shoes", "trail shoes"}, sig.MetaKeywords)
	assert.Equal(t, []string{"Running Shoes", "Road", "Cushioning"}, sig.Headings)
	assert.True(t, sig.MobileOptimized)
	assert.Equal(t, 4, sig.InternalLinks, "duplicate and fragment links are counted once")
	assert.Equal(t, 1, sig.ExternalLinks)
	require.NotNil(t, sig.LastModified)
	assert.Equal(t, 2025, sig.LastModified.Year())

	assert.Zero(t, res.Links.Checked, "plain analysis does not probe links")
	assert.Contains(t, res.Recommendations, "Serve the page over HTTPS")
	assert.Contains(t, res.Recommendations, "Add alt text to all images")
}

func TestAnalyzeUsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := pageServer(t, &hits)
	a := newTestAnalyzer(t)

	assert.False(t, a.IsCached(srv.URL))
	_, err := a.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = a.Analyze(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.True(t, a.IsCached(srv.URL))
	assert.Equal(t, int32(1), hits.Load())
}

func TestAnalyzeHTTPError(t *testing.T) {
	srv := pageServer(t, nil)
	a := newTestAnalyzer(t)

	_, err := a.Analyze(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, fetch.StatusOf(err))
	assert.False(t, a.IsCached(srv.URL+"/missing"))
}

func TestAudit(t *testing.T) {
	srv := pageServer(t, nil)
	a := newTestAnalyzer(t)

	res, err := a.Audit(context.Background(), srv.URL)
	require.NoError(t, err)
	// example.org is unreachable from tests in most sandboxes, so it may count too
	assert.Equal(t, 5, res.Links.Checked)
	assert.GreaterOrEqual(t, res.Links.BrokenLinks, 1)
	assert.Contains(t, strings.Join(res.Recommendations, "\n"), "Fix broken links")

	cached, err := a.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Zero(t, cached.Links.BrokenLinks, "audit must not mutate the cached analysis")
}

func TestAnalyzeResponseEmptyPage(t *testing.T) {
	res := AnalyzeResponse("https://empty.test", &fetch.Response{
		Status: 200,
		Header: http.Header{},
		Body:   []byte("<html><body></body></html>"),
	})

	assert.False(t, res.Title.HasTitle)
	assert.Zero(t, res.Title.Score)
	assert.Zero(t, res.Headers.Score)
	assert.True(t, res.Signals.HTTPS)
	assert.Equal(t, 30, res.Links.Score)
	assert.Contains(t, res.Recommendations, "Add a title tag to your page")
	assert.Contains(t, res.Recommendations, "Add an H1 heading")
	assert.Nil(t, res.Signals.LastModified)
}

func TestAnalyzePerformance(t *testing.T) {
	tests := []struct {
		name         string
		size         int
		load         time.Duration
		mobile       bool
		https        bool
		score        int
		sizeSeverity string
		loadSeverity string
	}{
		{"Fast", 10 << 10, 200 * time.Millisecond, true, true, 100, "good", "good"},
		{"Heavy", 6 << 20, 200 * time.Millisecond, true, true, 60, "critical", "good"},
		{"Slow", 10 << 10, 2500 * time.Millisecond, true, true, 70, "good", "major"},
		{"NoMobileNoTLS", 10 << 10, 0, false, false, 70, "good", "good"},
		{"Worst", 6 << 20, 5 * time.Second, false, false, 0, "critical", "critical"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := analyzePerformance(tt.size, tt.load, tt.mobile, tt.https)
			assert.Equal(t, tt.score, p.Score)
			assert.Equal(t, tt.sizeSeverity, p.PageSizeSeverity)
			assert.Equal(t, tt.loadSeverity, p.LoadTimeSeverity)
		})
	}
}

func TestConcurrentAnalysis(t *testing.T) {
	srv := pageServer(t, nil)
	a := newTestAnalyzer(t)

	runtime.GC()
	before := getMemStats()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.Analyze(context.Background(), fmt.Sprintf("%s/?p=%d", srv.URL, i%5))
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent analysis failed: %v", err)
	}

	runtime.GC()
	after := getMemStats()
	t.Logf("Total Allocation: %d bytes -> %d bytes (GC runs: %d)",
		before.TotalAlloc, after.TotalAlloc, after.NumGC-before.NumGC)
}
