// Package extract wraps goquery with a forgiving, never-failing API for
// pulling text, attributes and links out of scraped markup.
package extract

import (
	"bytes"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Document is a parsed HTML document
type Document struct {
	doc *goquery.Document
}

// Node is one element of a Document
type Node struct {
	sel *goquery.Selection
}

// Link is an anchor resolved against the page URL
type Link struct {
	URL  string
	Text string
	Rel  string
}

// Nofollow reports rel values that withhold link equity
func (l Link) Nofollow() bool {
	for _, r := range strings.Fields(strings.ToLower(l.Rel)) {
		if r == "nofollow" || r == "ugc" || r == "sponsored" {
			return true
		}
	}
	return false
}

// Parse builds a Document. Garbled markup yields an empty document.
func Parse(body []byte) *Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return &Document{doc: doc}
}

// Select returns the nodes matching a CSS selector. Invalid selectors match nothing.
func (d *Document) Select(css string) (nodes []Node) {
	defer func() {
		if recover() != nil {
			nodes = nil
		}
	}()
	d.doc.Find(css).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, Node{sel: s})
	})
	return nodes
}

// Count returns the number of nodes matching a CSS selector
func (d *Document) Count(css string) int {
	return len(d.Select(css))
}

// First returns the first node matching css
func (d *Document) First(css string) (Node, bool) {
	nodes := d.Select(css)
	if len(nodes) == 0 {
		return Node{}, false
	}
	return nodes[0], true
}

// Title returns the cleaned <title>
func (d *Document) Title() string {
	if n, ok := d.First("title"); ok {
		return n.Text()
	}
	return ""
}

// Meta returns the content of <meta name=...> or <meta property=...>
func (d *Document) Meta(name string) string {
	for _, css := range []string{`meta[name="` + name + `"]`, `meta[property="` + name + `"]`} {
		if n, ok := d.First(css); ok {
			if v, ok := n.Attr("content"); ok {
				return Clean(v)
			}
		}
	}
	return ""
}

// BodyText returns the visible text of <body> without scripts and styles
func (d *Document) BodyText() string {
	body := d.doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return Clean(body.Text())
}

// Links returns all anchors with an http(s) href, resolved against base
func (d *Document) Links(base string) []Link {
	var links []Link
	for _, n := range d.Select("a[href]") {
		href, _ := n.Attr("href")
		abs := Absolute(base, href)
		if abs == "" {
			continue
		}
		rel, _ := n.Attr("rel")
		links = append(links, Link{URL: abs, Text: n.Text(), Rel: rel})
	}
	return links
}

// Text returns the cleaned text content of the node
func (n Node) Text() string {
	if n.sel == nil {
		return ""
	}
	return Clean(n.sel.Text())
}

// Attr returns an attribute value
func (n Node) Attr(name string) (string, bool) {
	if n.sel == nil {
		return "", false
	}
	v, ok := n.sel.Attr(name)
	return strings.TrimSpace(v), ok
}

// Find selects descendants of the node
func (n Node) Find(css string) (nodes []Node) {
	if n.sel == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			nodes = nil
		}
	}()
	n.sel.Find(css).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, Node{sel: s})
	})
	return nodes
}

// Clean strips markup, unescapes entities and collapses whitespace
func Clean(s string) string {
	s = strict.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// Absolute resolves href against base and keeps only http(s) URLs
func Absolute(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if b, err := url.Parse(base); err == nil && base != "" {
		ref = b.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}
