package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Domain returns the host of rawURL without scheme, port, "www." prefix or
// trailing dots and slashes. Bare hosts ("a.com/") are accepted.
func Domain(rawURL string) string {
	s := strings.TrimSpace(strings.ToLower(rawURL))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	return strings.TrimPrefix(host, "www.")
}

// RootDomain returns the registrable domain (eTLD+1) of a host
func RootDomain(host string) string {
	host = Domain(host)
	if host == "" {
		return ""
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return root
}

// SameSite reports whether host equals domain or is one of its subdomains
func SameSite(host, domain string) bool {
	host, domain = Domain(host), Domain(domain)
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// NormalizeURL lowercases scheme and host, drops "www.", fragments and the trailing slash
func NormalizeURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(s), "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

// EnsureScheme prefixes https:// when rawURL has no scheme
func EnsureScheme(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" || strings.Contains(s, "://") {
		return s
	}
	return "https://" + s
}
