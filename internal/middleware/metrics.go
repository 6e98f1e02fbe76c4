package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/csl-management-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes latency and status per route template. Raw paths are never used as
// labels so certificate numbers and download tokens cannot blow up cardinality. Scrapes
// of skipPaths (e.g. /metrics itself) are not recorded.
func Metrics(metricsSvc *service.MetricsService, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skip[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
