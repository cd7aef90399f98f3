package middleware

import (
	"strconv"

	"gemini-gateway/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware counts requests by matched route template so that path
// parameters do not explode label cardinality.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}
