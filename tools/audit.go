package tools

import (
	"context"
	"fmt"

	"github.com/seo-optimizer/seotools/analyzer"
)

// AuditPage runs the on-page audit of a URL, probing its links for breakage.
// Unlike the scraping tools it fails when the page itself cannot be fetched.
func (s *Service) AuditPage(ctx context.Context, targetURL string) (*analyzer.SEOAnalysis, error) {
	u, _, err := requireURL("url", targetURL)
	if err != nil {
		return nil, err
	}
	if s.deps.Pages == nil {
		return nil, fmt.Errorf("tools: page analysis is not configured")
	}
	analysis, err := s.deps.Pages.Audit(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("tools: audit %s: %w", u, err)
	}
	return analysis, nil
}
