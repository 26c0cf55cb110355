package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seotools/analyzer"
	"github.com/seo-optimizer/seotools/auth"
	"github.com/seo-optimizer/seotools/logging"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/stats"
	"github.com/seo-optimizer/seotools/store"
	"github.com/seo-optimizer/seotools/tools"
)

type fakeTools struct {
	researchErr error
	auditErr    error
	seeds       []string
}

func (f *fakeTools) KeywordResearch(_ context.Context, seed, location, language string) (*model.KeywordResearch, error) {
	if f.researchErr != nil {
		return nil, f.researchErr
	}
	f.seeds = append(f.seeds, seed)
	return &model.KeywordResearch{SeedKeyword: seed, Location: location, Language: language}, nil
}

func (f *fakeTools) CheckCompetition(_ context.Context, targetURL string, keywords []string, _ string) (*model.CompetitionAnalysis, error) {
	return &model.CompetitionAnalysis{}, nil
}

func (f *fakeTools) TrackRank(_ context.Context, domain, keyword, engine string) (*model.RankResult, error) {
	return &model.RankResult{Domain: domain, Keyword: keyword, SearchEngine: engine}, nil
}

func (f *fakeTools) TrackRanks(_ context.Context, domain string, keywords []string, engine string) (*model.BatchRankResult, error) {
	return &model.BatchRankResult{}, nil
}

func (f *fakeTools) TopSearchQueries(context.Context, string, string) (*model.TopQueries, error) {
	return &model.TopQueries{}, nil
}

func (f *fakeTools) TopReferrers(context.Context, string) (*model.TopReferrers, error) {
	return &model.TopReferrers{}, nil
}

func (f *fakeTools) AmazonKeywords(context.Context, string, string) (*model.PlatformKeywords, error) {
	return &model.PlatformKeywords{}, nil
}

func (f *fakeTools) YouTubeKeywords(context.Context, string, string) (*model.PlatformKeywords, error) {
	return &model.PlatformKeywords{}, nil
}

func (f *fakeTools) AuditPage(_ context.Context, u string) (*analyzer.SEOAnalysis, error) {
	if f.auditErr != nil {
		return nil, f.auditErr
	}
	return &analyzer.SEOAnalysis{URL: u, Score: 80}, nil
}

func (f *fakeTools) Engines() []string { return []string{"bing", "duckduckgo"} }

type harness struct {
	router *gin.Engine
	tools  *fakeTools
	stats  *logging.Statistics
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc, err := auth.NewService(st, auth.Config{Secret: []byte("0123456789abcdef0123456789abcdef")}, nil)
	require.NoError(t, err)
	statistics, err := logging.NewStatistics("", true)
	require.NoError(t, err)
	usage, err := stats.NewStorage("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { usage.Shutdown() })

	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = 1000
		opts.RateLimitBurst = 1000
	}
	ft := &fakeTools{}
	srv := New(Deps{Tools: ft, Auth: svc, Results: st, Statistics: statistics, Usage: usage}, opts)
	return &harness{router: srv.Router(), tools: ft, stats: statistics}
}

func (h *harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) register(t *testing.T, email string) string {
	t.Helper()
	w := h.do(http.MethodPost, "/api/auth/register", fmt.Sprintf(`{"email":%q,"password":"password-123"}`, email), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	h := newHarness(t, Options{})
	w := h.do(http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = h.do(http.MethodGet, "/api/engines", "", "")
	assert.JSONEq(t, `{"engines":["bing","duckduckgo"]}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t, Options{})

	w := h.do(http.MethodPost, "/api/auth/register", `{"email":"ada@example.com","password":"password-123","name":"Ada"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), auth.TokenCookie+"=")
	assert.NotContains(t, w.Body.String(), "password")

	w = h.do(http.MethodPost, "/api/auth/register", `{"email":"ada@example.com","password":"password-123"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"email"`)

	w = h.do(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"password-123"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = h.do(http.MethodGet, "/api/auth/me", "", resp.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada@example.com")

	w = h.do(http.MethodPost, "/api/auth/logout", "", resp.Token)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodGet, "/api/auth/me", "", resp.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/api/auth/login", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleDisabled(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/auth/google", "", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/auth/google/callback?code=x", "", "").Code)
}

func TestToolsSaveResultsForUsers(t *testing.T) {
	h := newHarness(t, Options{})

	w := h.do(http.MethodPost, "/api/tools/keyword-research", `{"keyword":"running shoes"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"seedKeyword":"running shoes"`)

	token := h.register(t, "grace@example.com")
	w = h.do(http.MethodPost, "/api/tools/keyword-research", `{"keyword":"trail shoes","location":"Germany"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodPost, "/api/tools/rank", `{"domain":"acme.com","keyword":"shoes","engine":"bing"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/results", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Results []store.ToolResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Results, 2)
	assert.Equal(t, ToolRank, list.Results[0].ToolType)
	assert.Equal(t, "acme.com shoes", list.Results[0].Query)
	assert.Equal(t, ToolKeywordResearch, list.Results[1].ToolType)
	assert.Contains(t, string(list.Results[1].Results), `"location":"Germany"`)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/results", "", "").Code)
	assert.Equal(t, []string{"running shoes", "trail shoes"}, h.tools.seeds)
}

func TestToolErrors(t *testing.T) {
	h := newHarness(t, Options{})

	h.tools.researchErr = &tools.ValidationError{Field: "keyword", Message: "is required"}
	w := h.do(http.MethodPost, "/api/tools/keyword-research", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"keyword: is required","field":"keyword"}`, w.Body.String())

	h.tools.auditErr = fmt.Errorf("tools: audit https://down.example: %w", errors.New("connection refused"))
	w = h.do(http.MethodPost, "/api/tools/page-audit", `{"url":"https://down.example"}`, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	h.tools.researchErr = context.DeadlineExceeded
	w = h.do(http.MethodPost, "/api/tools/keyword-research", `{"keyword":"x"}`, "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	w = h.do(http.MethodPost, "/api/tools/competition", `[1,2]`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToolRateLimit(t *testing.T) {
	h := newHarness(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/tools/top-referrers", `{"url":"acme.com"}`, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/api/tools/top-referrers", `{"url":"acme.com"}`, "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/health", "", "").Code)
}

func TestStatistics(t *testing.T) {
	h := newHarness(t, Options{})
	h.do(http.MethodPost, "/api/tools/page-audit", `{"url":"https://acme.com"}`, "")
	h.do(http.MethodPost, "/api/tools/youtube-keywords", `{"keyword":"guitar"}`, "")

	w := h.do(http.MethodGet, "/api/statistics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["totalRequests"])
	assert.Contains(t, body, "cache")
	assert.Equal(t, map[string]any{"page-audit": 1.0, "youtube-keywords": 1.0}, body["toolRequests"])
}
