// internal/middleware/logging_middleware.go
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"receipt-emulator/internal/utils"
)

// LoggingMiddleware logs every request once it has been served. Requests whose
// path starts with one of skipPrefixes are only logged when they fail.
func LoggingMiddleware(logger *utils.ServiceLogger, skipPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		status := c.Writer.Status()
		if status < 400 && hasAnyPrefix(path, skipPrefixes) {
			return
		}

		logger.LogAPIRequest(utils.APIRequest{
			Method:     c.Request.Method,
			Path:       path,
			ClientIP:   c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			RequestID:  c.GetString("request_id"),
			StatusCode: status,
			BytesIn:    c.Request.ContentLength,
			BytesOut:   c.Writer.Size(),
			Duration:   time.Since(start),
		})
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
