package sources

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/scoring"
)

// serpHit is one organic result before it becomes a candidate
type serpHit struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// serpCandidates numbers hits from offset+1, skipping those without a host
func serpCandidates(tag string, hits []serpHit, offset int) []model.CompetitorCandidate {
	out := make([]model.CompetitorCandidate, 0, len(hits))
	for _, h := range hits {
		domain := extract.Domain(h.URL)
		if domain == "" || !strings.HasPrefix(h.URL, "http") {
			continue
		}
		out = append(out, model.CompetitorCandidate{
			Domain:   domain,
			Position: offset + len(out) + 1,
			URL:      h.URL,
			Title:    extract.Clean(h.Title),
			Source:   tag,
		})
	}
	return out
}

// selectHits collects anchors matching css from a results page
func selectHits(body []byte, css string, unwrap func(string) string) []serpHit {
	doc := extract.Parse(body)
	var hits []serpHit
	for _, n := range doc.Select(css) {
		href, ok := n.Attr("href")
		if !ok {
			continue
		}
		title := n.Text()
		if label, ok := n.Attr("aria-label"); ok && label != "" {
			title = label
		}
		if unwrap != nil {
			href = unwrap(href)
		}
		hits = append(hits, serpHit{URL: href, Title: title})
	}
	return hits
}

// unwrapDuckDuckGo resolves //duckduckgo.com/l/?uddg=<target> redirects
func unwrapDuckDuckGo(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

// unwrapBing resolves bing.com/ck/a?...&u=a1<base64url> redirects
func unwrapBing(href string) string {
	u, err := url.Parse(href)
	if err != nil || !strings.HasSuffix(u.Hostname(), "bing.com") || !strings.HasPrefix(u.Path, "/ck/") {
		return href
	}
	enc := strings.TrimPrefix(u.Query().Get("u"), "a1")
	dec, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(enc, "="))
	if err != nil {
		return href
	}
	return string(dec)
}

// unwrapYahoo resolves r.search.yahoo.com/.../RU=<target>/RK=... redirects
func unwrapYahoo(href string) string {
	i := strings.Index(href, "/RU=")
	if i < 0 {
		return href
	}
	rest := href[i+len("/RU="):]
	if j := strings.Index(rest, "/R"); j >= 0 {
		rest = rest[:j]
	}
	target, err := url.QueryUnescape(rest)
	if err != nil {
		return href
	}
	return target
}

// unwrapGoogle resolves /url?q=<target> links of the static results page
func unwrapGoogle(href string) string {
	if !strings.HasPrefix(href, "/url?") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if q := u.Query().Get("q"); q != "" {
		return q
	}
	return href
}

// ddgRegion builds DuckDuckGo's kl parameter, e.g. "us-en"
func ddgRegion(loc model.Locale) string {
	cc := strings.ToLower(scoring.CountryCode(loc.Country))
	if cc == "gb" {
		cc = "uk"
	}
	return cc + "-" + scoring.LanguageCode(loc.Language)
}

func market(loc model.Locale) string {
	return scoring.LanguageCode(loc.Language) + "-" + scoring.CountryCode(loc.Country)
}
