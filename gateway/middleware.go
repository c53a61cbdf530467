package gateway

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// requestIDMiddleware tags each request with a short unique id, echoed in the
// X-Request-ID response header for client-side debugging.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := "req_" + uuid.New().String()[:8]
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func loggingMiddleware(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(log.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"event":      "request_completed",
		}).Info("Request completed")
	}
}
