// Package api exposes the SEO tools and accounts over HTTP with gin.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seotools/analyzer"
	"github.com/seo-optimizer/seotools/auth"
	"github.com/seo-optimizer/seotools/logging"
	"github.com/seo-optimizer/seotools/middleware"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/stats"
	"github.com/seo-optimizer/seotools/store"
)

// Tools is the tool surface served under /api/tools. *tools.Service implements it.
type Tools interface {
	KeywordResearch(ctx context.Context, seed, location, language string) (*model.KeywordResearch, error)
	CheckCompetition(ctx context.Context, targetURL string, keywords []string, country string) (*model.CompetitionAnalysis, error)
	TrackRank(ctx context.Context, domain, keyword, engine string) (*model.RankResult, error)
	TrackRanks(ctx context.Context, domain string, keywords []string, engine string) (*model.BatchRankResult, error)
	TopSearchQueries(ctx context.Context, targetURL, country string) (*model.TopQueries, error)
	TopReferrers(ctx context.Context, targetURL string) (*model.TopReferrers, error)
	AmazonKeywords(ctx context.Context, seed, country string) (*model.PlatformKeywords, error)
	YouTubeKeywords(ctx context.Context, seed, country string) (*model.PlatformKeywords, error)
	AuditPage(ctx context.Context, targetURL string) (*analyzer.SEOAnalysis, error)
	Engines() []string
}

// Results stores tool output for signed-in users. *store.Store implements it.
type Results interface {
	SaveResult(ctx context.Context, userID *string, toolType, query string, results any) (*store.ToolResult, error)
	ResultsByUser(ctx context.Context, userID string, limit int) ([]store.ToolResult, error)
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes. Usage may be nil.
type Deps struct {
	Tools      Tools
	Auth       *auth.Service
	Results    Results
	Statistics *logging.Statistics
	Usage      *stats.Storage
	Logger     *slog.Logger
}

// Options tune the HTTP layer
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	// SecureCookies marks auth cookies Secure
	SecureCookies bool
}

type Server struct {
	tools   Tools
	auth    *auth.Service
	results Results
	stats   *logging.Statistics
	usage   *stats.Storage
	logger  *slog.Logger
	opts    Options
	limiter *middleware.RateLimiter
}

func New(d Deps, opts Options) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 2
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 5
	}
	return &Server{
		tools:   d.Tools,
		auth:    d.Auth,
		results: d.Results,
		stats:   d.Statistics,
		usage:   d.Usage,
		logger:  d.Logger,
		opts:    opts,
		limiter: middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
	}
}

// Router builds the gin engine with every route and middleware
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(s.logger))
	r.Use(middleware.CORS())
	if s.stats != nil {
		r.Use(middleware.Stats(s.stats, s.logger))
	}
	r.Use(auth.Middleware(s.auth))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/statistics", s.statistics)
		api.GET("/engines", s.engines)

		a := api.Group("/auth")
		a.POST("/register", s.limiter.RateLimit(), s.register)
		a.POST("/login", s.limiter.RateLimit(), s.login)
		a.POST("/logout", auth.RequireAuth(), s.logout)
		a.GET("/me", auth.RequireAuth(), s.me)
		a.GET("/google", s.googleLogin)
		a.GET("/google/callback", s.googleCallback)

		t := api.Group("/tools", s.limiter.RateLimit(), middleware.Timeout(s.opts.RequestTimeout))
		t.POST("/keyword-research", s.keywordResearch)
		t.POST("/competition", s.competition)
		t.POST("/rank", s.rank)
		t.POST("/rank/batch", s.rankBatch)
		t.POST("/top-queries", s.topQueries)
		t.POST("/top-referrers", s.topReferrers)
		t.POST("/amazon-keywords", s.amazonKeywords)
		t.POST("/youtube-keywords", s.youtubeKeywords)
		t.POST("/page-audit", s.pageAudit)

		api.GET("/results", auth.RequireAuth(), s.listResults)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	s.logger.Debug("http: health check", "ip", c.ClientIP())
	if s.results != nil {
		if err := s.results.Ping(c.Request.Context()); err != nil {
			s.logger.Error("http: database unavailable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) statistics(c *gin.Context) {
	out := gin.H{}
	if s.stats != nil {
		for k, v := range s.stats.Snapshot() {
			out[k] = v
		}
	}
	if s.usage != nil {
		out["cache"] = s.usage.GetCurrentStats()
	}
	c.JSON(http.StatusOK, out)
}
