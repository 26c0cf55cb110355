package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seotools/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveOnce(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(nil))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serveOnce(r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "unexpected error")
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serveOnce(r, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusOK, serveOnce(r, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveOnce(r, http.MethodGet, "/").Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, serveOnce(r, http.MethodGet, "/").Code)

	assert.True(t, rl.Allow("10.0.0.1"), "clients are limited separately")

	now = now.Add(time.Hour)
	rl.Sweep()
	assert.Empty(t, rl.clients)
}

func TestStats(t *testing.T) {
	stats, err := logging.NewStatistics("", true)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Stats(stats, nil))
	r.POST("/api/tools/rank", func(c *gin.Context) {
		c.Set(TargetKey, "https://acme.com/")
		c.Status(http.StatusBadGateway)
	})
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serveOnce(r, http.MethodPost, "/api/tools/rank")
	serveOnce(r, http.MethodGet, "/api/health")

	snap := stats.Snapshot()
	assert.Equal(t, 1, snap["totalRequests"])
	assert.Equal(t, map[string]int{"rank": 1}, snap["toolRequests"])
	assert.Equal(t, 100.0, snap["errorRate"])
	assert.Equal(t, 1, snap["uniqueVisitors24h"])
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = serveOnce(r, http.MethodGet, "/x")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(time.Minute))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serveOnce(r, http.MethodGet, "/").Code)
}
