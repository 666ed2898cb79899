package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mentorlink/go-mentorship-backend/pkg/metrics"
)

// Metrics records request count, latency and in-flight requests.
// Routes are labelled by their template to keep cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		done := m.RequestStarted(c.Request.Method)
		defer done()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// SecurityHeaders sets conservative browser security headers on API responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
