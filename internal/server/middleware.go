package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"marketplace-compat/internal/common/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "requestId"
)

// RequestID keeps an incoming X-Request-Id or assigns a new uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// RequestIDFromContext fetches the request ID stored by RequestID.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logging emits one structured log line per request.
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"requestId":  RequestIDFromContext(c),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"durationMs": float64(time.Since(start).Microseconds()) / 1000.0,
			"clientIp":   c.ClientIP(),
		}
		if category := c.Param("category"); category != "" {
			fields["category"] = category
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request completed", fields)
		case status >= http.StatusBadRequest:
			log.Warn("request completed", fields)
		default:
			log.Info("request completed", fields)
		}
	}
}

// Recovery turns a panic into a 500 response.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic", map[string]interface{}{
					"requestId": RequestIDFromContext(c),
					"error":     rec,
					"stack":     string(debug.Stack()),
					"path":      c.Request.URL.Path,
				})
				respondError(c, http.StatusInternalServerError, codeInternal, "Unexpected server error", nil)
			}
		}()
		c.Next()
	}
}
