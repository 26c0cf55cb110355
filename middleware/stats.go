package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seotools/logging"
)

// TargetKey is the context key handlers set to the keyword or URL a tool ran on
const TargetKey = "stats.target"

// SaveEvery is how many tool requests pass between statistics saves
const SaveEvery = 100

// Stats tracks visitors on every request and tool requests under /api/tools/
func Stats(stats *logging.Statistics, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		stats.TrackVisitor(c.ClientIP())

		c.Next()

		route := c.FullPath()
		if !strings.HasPrefix(route, "/api/tools/") {
			return
		}
		tool := strings.TrimPrefix(route, "/api/tools/")
		total := stats.TrackTool(tool, c.GetString(TargetKey), time.Since(start), c.Writer.Status() >= 400)
		if total%SaveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("http: save statistics", "error", err)
				}
			}()
		}
	}
}
