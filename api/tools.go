package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seotools/auth"
	"github.com/seo-optimizer/seotools/middleware"
)

// Tool names stored with saved results
const (
	ToolKeywordResearch = "keyword-research"
	ToolCompetition     = "competition"
	ToolRank            = "rank"
	ToolRankBatch       = "rank-batch"
	ToolTopQueries      = "top-queries"
	ToolTopReferrers    = "top-referrers"
	ToolAmazonKeywords  = "amazon-keywords"
	ToolYouTubeKeywords = "youtube-keywords"
	ToolPageAudit       = "page-audit"
)

// runTool executes a tool call, stores the result for signed-in users and
// writes it as JSON
func runTool(s *Server, c *gin.Context, tool, query string, call func(context.Context) (any, error)) {
	c.Set(middleware.TargetKey, query)
	out, err := call(c.Request.Context())
	if err != nil {
		if tool == ToolPageAudit {
			if code, _ := status(err); code == http.StatusInternalServerError {
				s.logger.Warn("http: audit failed", "url", query, "error", err)
				c.AbortWithStatusJSON(http.StatusBadGateway, fieldError{Error: err.Error()})
				return
			}
		}
		s.fail(c, err)
		return
	}
	if u := auth.CurrentUser(c); u != nil && s.results != nil {
		// saved outside the request deadline
		if _, err := s.results.SaveResult(context.WithoutCancel(c.Request.Context()), &u.ID, tool, query, out); err != nil {
			s.logger.Warn("http: save result", "tool", tool, "user", u.ID, "error", err)
		}
	}
	c.JSON(http.StatusOK, out)
}

type seedRequest struct {
	Keyword  string `json:"keyword"`
	Location string `json:"location"`
	Language string `json:"language"`
	Country  string `json:"country"`
}

type urlRequest struct {
	URL      string   `json:"url"`
	Keywords []string `json:"keywords"`
	Country  string   `json:"country"`
}

type rankRequest struct {
	Domain   string   `json:"domain"`
	Keyword  string   `json:"keyword"`
	Keywords []string `json:"keywords"`
	Engine   string   `json:"engine"`
}

func (s *Server) keywordResearch(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	runTool(s, c, ToolKeywordResearch, req.Keyword, func(ctx context.Context) (any, error) {
		return s.tools.KeywordResearch(ctx, req.Keyword, req.Location, req.Language)
	})
}

func (s *Server) amazonKeywords(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	runTool(s, c, ToolAmazonKeywords, req.Keyword, func(ctx context.Context) (any, error) {
		return s.tools.AmazonKeywords(ctx, req.Keyword, req.Country)
	})
}

func (s *Server) youtubeKeywords(c *gin.Context) {
	var req seedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	runTool(s, c, ToolYouTubeKeywords, req.Keyword, func(ctx context.Context) (any, error) {
		return s.tools.YouTubeKeywords(ctx, req.Keyword, req.Country)
	})
}

func (s *Server) competition(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	runTool(s, c, ToolCompetition, req.URL, func(ctx context.Context) (any, error) {
		return s.tools.CheckCompetition(ctx, req.URL, req.Keywords, req.Country)
	})
}

func (s *Server) topQueries(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	runTool(s, c, ToolTopQueries, req.URL, func(ctx context.Context) (any, error) {
		return s.tools.TopSearchQueries(ctx, req.URL, req.Country)
	})
}

func (s *Server) topReferrers(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	runTool(s, c, ToolTopReferrers, req.URL, func(ctx context.Context) (any, error) {
		return s.tools.TopReferrers(ctx, req.URL)
	})
}

func (s *Server) pageAudit(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	runTool(s, c, ToolPageAudit, req.URL, func(ctx context.Context) (any, error) {
		return s.tools.AuditPage(ctx, req.URL)
	})
}

func (s *Server) rank(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	runTool(s, c, ToolRank, req.Domain+" "+req.Keyword, func(ctx context.Context) (any, error) {
		return s.tools.TrackRank(ctx, req.Domain, req.Keyword, req.Engine)
	})
}

func (s *Server) rankBatch(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	runTool(s, c, ToolRankBatch, req.Domain+" "+strings.Join(req.Keywords, ", "), func(ctx context.Context) (any, error) {
		return s.tools.TrackRanks(ctx, req.Domain, req.Keywords, req.Engine)
	})
}

func (s *Server) engines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"engines": s.tools.Engines()})
}
