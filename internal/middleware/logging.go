// internal/middleware/logging.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs every request with structured fields. Health and
// metrics probes are skipped to keep the logs readable.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		userID, _ := c.Get("user_id")

		entry := logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": duration.Milliseconds(),
			"ip":       c.ClientIP(),
			"user_id":  userID,
		})

		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Error("Request failed")
			return
		}
		entry.Info("Request processed")
	}
}
