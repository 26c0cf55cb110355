package analyzer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/seo-optimizer/seotools/cache"
	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/fetch"
)

// maxLinkChecks bounds how many links an audit probes
const maxLinkChecks = 50

// Analyzer fetches pages and turns them into on-page signals and an SEO audit
type Analyzer struct {
	client      fetch.Doer
	cache       *cache.Store[*SEOAnalysis]
	linkWorkers int
	logger      *slog.Logger
}

// New creates a new Analyzer. store may be nil to disable caching.
func New(client fetch.Doer, store *cache.Store[*SEOAnalysis], logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		client:      client,
		cache:       store,
		linkWorkers: 10,
		logger:      logger,
	}
}

// generateCacheKey creates a unique key for the URL
func generateCacheKey(url string) string {
	hash := md5.Sum([]byte(extract.NormalizeURL(url)))
	return hex.EncodeToString(hash[:])
}

// IsCached checks if a URL has a live cached analysis
func (a *Analyzer) IsCached(url string) bool {
	if a.cache == nil {
		return false
	}
	_, ok := a.cache.Get(generateCacheKey(url))
	return ok
}

// Analyze fetches url and analyses it. Results are cached in the long tier.
func (a *Analyzer) Analyze(ctx context.Context, url string) (*SEOAnalysis, error) {
	key := generateCacheKey(url)
	if a.cache != nil {
		if e, ok := a.cache.Get(key); ok {
			return e.Data, nil
		}
	}

	resp, err := a.client.Get(ctx, url, fetch.Options{RequireSuccess: true})
	if err != nil {
		return nil, fmt.Errorf("analyzer: fetch %s: %w", url, err)
	}

	analysis := AnalyzeResponse(url, resp)
	if a.cache != nil {
		a.cache.Set(key, analysis, true, "analyzer")
	}
	return analysis, nil
}

// Audit analyses url and also probes its links for breakage
func (a *Analyzer) Audit(ctx context.Context, url string) (*SEOAnalysis, error) {
	cached, err := a.Analyze(ctx, url)
	if err != nil {
		return nil, err
	}
	analysis := *cached
	analysis.Links = a.checkLinks(ctx, analysis.Signals, analysis.Links)
	analysis.Score = calculateOverallScore(&analysis)
	analysis.Recommendations = generateRecommendations(&analysis)
	return &analysis, nil
}

// AnalyzeResponse builds an analysis from an already fetched page
func AnalyzeResponse(url string, resp *fetch.Response) *SEOAnalysis {
	doc := extract.Parse(resp.Body)
	base := resp.URL
	if base == "" {
		base = url
	}

	sig := PageSignals{
		URL:      url,
		FinalURL: base,
		Status:   resp.Status,
		HTTPS:    strings.HasPrefix(strings.ToLower(base), "https://"),
		PageSize: len(resp.Body),
		LoadTime: int(resp.Latency.Milliseconds()),
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.Atoi(cl); err == nil && size > 0 {
			sig.PageSize = size
		}
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			sig.LastModified = &t
		}
	}

	analysis := &SEOAnalysis{URL: url}
	analysis.Title = analyzeTitleTag(doc)
	analysis.Meta = analyzeMetaTags(doc)
	analysis.Headers = analyzeHeaders(doc)
	analysis.Content = analyzeContent(doc)

	sig.Title = analysis.Title.Title
	sig.MetaDescription = analysis.Meta.Description
	sig.MetaKeywords = splitKeywords(analysis.Meta.Keywords)
	sig.MobileOptimized = strings.Contains(strings.ToLower(analysis.Meta.Viewport), "width=device-width")
	sig.H1Count = analysis.Headers.H1Count
	sig.H2Count = analysis.Headers.H2Count
	sig.H3Count = analysis.Headers.H3Count
	for _, n := range doc.Select("h1, h2, h3") {
		if t := n.Text(); t != "" {
			sig.Headings = append(sig.Headings, t)
		}
	}
	sig.WordCount = analysis.Content.WordCount
	sig.TotalImages = analysis.Content.TotalImages
	sig.ImagesWithAlt = analysis.Content.ImagesWithAlt

	host := extract.Domain(base)
	seen := make(map[string]bool)
	for _, l := range doc.Links(base) {
		if seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		sig.Links = append(sig.Links, l)
		if extract.SameSite(extract.Domain(l.URL), host) {
			sig.InternalLinks++
		} else {
			sig.ExternalLinks++
		}
	}

	analysis.Performance = analyzePerformance(sig.PageSize, resp.Latency, sig.MobileOptimized, sig.HTTPS)
	analysis.Links = scoreLinks(LinkAnalysis{
		InternalLinks: sig.InternalLinks,
		ExternalLinks: sig.ExternalLinks,
	})
	analysis.Signals = sig
	analysis.Score = calculateOverallScore(analysis)
	analysis.Recommendations = generateRecommendations(analysis)
	return analysis
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func analyzeTitleTag(doc *extract.Document) TitleAnalysis {
	title := doc.Title()
	length := len(title)

	score := 0
	if length > 0 {
		if length >= 30 && length <= 60 {
			score = 100
		} else if length < 30 {
			score = 50
		} else {
			score = 70
		}
	}

	return TitleAnalysis{
		Title:    title,
		Length:   length,
		HasTitle: length > 0,
		Score:    score,
	}
}

func analyzeMetaTags(doc *extract.Document) MetaAnalysis {
	meta := MetaAnalysis{}
	score := 0

	meta.Description = doc.Meta("description")
	meta.DescriptionLen = len(meta.Description)
	meta.HasDescription = meta.DescriptionLen > 0
	meta.Keywords = doc.Meta("keywords")
	meta.HasKeywords = len(meta.Keywords) > 0
	meta.Robots = doc.Meta("robots")
	meta.Viewport = doc.Meta("viewport")

	if meta.HasDescription {
		if meta.DescriptionLen >= 120 && meta.DescriptionLen <= 160 {
			score += 40
		} else {
			score += 20
		}
	}
	if meta.HasKeywords {
		score += 20
	}
	if meta.Viewport != "" {
		score += 20
	}
	if meta.Robots != "" {
		score += 20
	}

	meta.Score = score
	return meta
}

func analyzeHeaders(doc *extract.Document) HeaderAnalysis {
	headers := HeaderAnalysis{H1Text: []string{}}

	h1 := doc.Select("h1")
	headers.H1Count = len(h1)
	headers.H2Count = doc.Count("h2")
	headers.H3Count = doc.Count("h3")
	for _, n := range h1 {
		headers.H1Text = append(headers.H1Text, n.Text())
	}

	score := 0
	if headers.H1Count == 1 {
		score += 40
	} else if headers.H1Count > 1 {
		score += 20
	}
	if headers.H2Count > 0 {
		score += 30
	}
	if headers.H3Count > 0 {
		score += 30
	}

	headers.Score = score
	return headers
}

func analyzeContent(doc *extract.Document) ContentAnalysis {
	content := ContentAnalysis{}

	content.WordCount = len(strings.Fields(doc.BodyText()))

	images := doc.Select("img")
	content.TotalImages = len(images)
	content.HasImages = content.TotalImages > 0
	for _, img := range images {
		if _, ok := img.Attr("alt"); ok {
			content.ImagesWithAlt++
		}
	}

	score := 0
	if content.WordCount >= 300 {
		score += 30
	}
	if content.HasImages {
		score += 20
		if content.ImagesWithAlt == content.TotalImages {
			score += 30
		} else if content.ImagesWithAlt > 0 {
			score += 20
		}
	}

	content.Score = score
	return content
}

func analyzePerformance(pageSize int, loadTime time.Duration, mobileOptimized, https bool) Performance {
	perf := Performance{
		PageSize:         pageSize,
		LoadTime:         int(loadTime.Milliseconds()),
		MobileOptimized:  mobileOptimized,
		HTTPS:            https,
		PageSizeSeverity: "good",
		LoadTimeSeverity: "good",
	}

	score := 100
	pageSizeKB := float64(pageSize) / 1024.0

	switch {
	case pageSizeKB > 5120:
		score -= 40
		perf.PageSizeSeverity = "critical"
	case pageSizeKB > 2048:
		score -= 30
		perf.PageSizeSeverity = "major"
	case pageSizeKB > 1024:
		score -= 20
		perf.PageSizeSeverity = "moderate"
	case pageSizeKB > 500:
		score -= 10
		perf.PageSizeSeverity = "minor"
	}

	loadTimeMs := loadTime.Milliseconds()
	switch {
	case loadTimeMs > 3000:
		score -= 40
		perf.LoadTimeSeverity = "critical"
	case loadTimeMs > 2000:
		score -= 30
		perf.LoadTimeSeverity = "major"
	case loadTimeMs > 1500:
		score -= 20
		perf.LoadTimeSeverity = "moderate"
	case loadTimeMs > 1000:
		score -= 10
		perf.LoadTimeSeverity = "minor"
	}

	if !perf.MobileOptimized {
		score -= 20
	}
	if !perf.HTTPS {
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	perf.Score = score
	return perf
}

// checkLinks probes up to maxLinkChecks links with bounded parallelism
func (a *Analyzer) checkLinks(ctx context.Context, sig PageSignals, links LinkAnalysis) LinkAnalysis {
	urls := make([]string, 0, maxLinkChecks)
	for _, l := range sig.Links {
		if len(urls) == maxLinkChecks {
			break
		}
		urls = append(urls, l.URL)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	semaphore := make(chan struct{}, a.linkWorkers)

	linkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	broken := 0
	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-linkCtx.Done():
				return
			}
			defer func() { <-semaphore }()

			resp, err := a.client.Head(linkCtx, u, fetch.Options{Timeout: 5 * time.Second})
			if err != nil || resp.Status >= 400 {
				mu.Lock()
				broken++
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()

	links.BrokenLinks = broken
	links.Checked = len(urls)
	return scoreLinks(links)
}

func scoreLinks(links LinkAnalysis) LinkAnalysis {
	score := 100

	switch {
	case links.InternalLinks == 0:
		score -= 40
	case links.InternalLinks < 3:
		score -= 30
	case links.InternalLinks < 5:
		score -= 20
	}

	switch {
	case links.ExternalLinks == 0:
		score -= 30
	case links.ExternalLinks > 50:
		score -= 15
	}

	switch {
	case links.BrokenLinks > 5:
		score -= 30
	case links.BrokenLinks > 3:
		score -= 20
	case links.BrokenLinks > 0:
		score -= 10
	}

	links.Score = score
	return links
}

func calculateOverallScore(analysis *SEOAnalysis) float64 {
	score := 0.0
	score += float64(analysis.Title.Score) * 0.2
	score += float64(analysis.Meta.Score) * 0.2
	score += float64(analysis.Headers.Score) * 0.15
	score += float64(analysis.Content.Score) * 0.2
	score += float64(analysis.Performance.Score) * 0.15
	score += float64(analysis.Links.Score) * 0.1
	return score
}

func generateRecommendations(analysis *SEOAnalysis) []string {
	recommendations := []string{}

	if !analysis.Title.HasTitle {
		recommendations = append(recommendations, "Add a title tag to your page")
	} else if analysis.Title.Length < 30 {
		recommendations = append(recommendations, "Title tag is too short (should be 30-60 characters)")
	} else if analysis.Title.Length > 60 {
		recommendations = append(recommendations, "Title tag is too long (should be 30-60 characters)")
	}

	if !analysis.Meta.HasDescription {
		recommendations = append(recommendations, "Add a meta description")
	} else if analysis.Meta.DescriptionLen < 120 {
		recommendations = append(recommendations, "Meta description is too short (should be 120-160 characters)")
	} else if analysis.Meta.DescriptionLen > 160 {
		recommendations = append(recommendations, "Meta description is too long (should be 120-160 characters)")
	}

	if analysis.Headers.H1Count == 0 {
		recommendations = append(recommendations, "Add an H1 heading")
	} else if analysis.Headers.H1Count > 1 {
		recommendations = append(recommendations, "Multiple H1 headings found - consider using only one")
	}

	if analysis.Content.WordCount < 300 {
		recommendations = append(recommendations, "Add more content (aim for at least 300 words)")
	}
	if analysis.Content.TotalImages > 0 && analysis.Content.ImagesWithAlt < analysis.Content.TotalImages {
		recommendations = append(recommendations, "Add alt text to all images")
	}

	switch analysis.Performance.PageSizeSeverity {
	case "critical":
		recommendations = append(recommendations,
			"Critical: Page size is extremely large (>5MB). Optimize images, minify CSS/JS and remove unused resources")
	case "major":
		recommendations = append(recommendations,
			"Major: Page size is very large (>2MB). Optimize images and lazy load non-critical resources")
	case "moderate", "minor":
		recommendations = append(recommendations,
			"Page size is above optimal (>500KB). Look for opportunities to optimize images and resources")
	}

	switch analysis.Performance.LoadTimeSeverity {
	case "critical", "major":
		recommendations = append(recommendations,
			"Page response is slow (>2s). Consider a CDN and faster server response times")
	case "moderate", "minor":
		recommendations = append(recommendations,
			"Page response is above optimal (>1s). Consider fine-tuning performance")
	}

	if !analysis.Performance.MobileOptimized {
		recommendations = append(recommendations,
			"Add a proper viewport meta tag for mobile optimization (e.g., <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">)")
	}
	if !analysis.Performance.HTTPS {
		recommendations = append(recommendations, "Serve the page over HTTPS")
	}

	if analysis.Links.BrokenLinks > 0 {
		recommendations = append(recommendations,
			"Fix broken links: Found "+strconv.Itoa(analysis.Links.BrokenLinks)+" broken link(s)")
	}
	if analysis.Links.InternalLinks < 3 {
		recommendations = append(recommendations,
			"Add more internal links to improve site navigation and SEO (aim for at least 3-5)")
	}
	if analysis.Links.ExternalLinks == 0 {
		recommendations = append(recommendations,
			"Add relevant external links to authoritative sources to improve content credibility")
	} else if analysis.Links.ExternalLinks > 50 {
		recommendations = append(recommendations,
			"Consider reducing the number of external links (current: "+strconv.Itoa(analysis.Links.ExternalLinks)+") to maintain focus")
	}

	return recommendations
}
