package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danuarta/hr-promotion-api/internal/service"
)

// Metrics records duration and count for every matched route. Unmatched
// requests collapse into a single "unmatched" label to keep the path
// cardinality bounded, and the scrape endpoint does not observe itself.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
