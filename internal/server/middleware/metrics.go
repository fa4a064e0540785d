package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-selector/internal/telemetry"
)

// Metrics records request counts and latency by route template.
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequest(c.Request.Method, route, c.Writer.Status(), float64(time.Since(start).Microseconds())/1000)
	}
}
