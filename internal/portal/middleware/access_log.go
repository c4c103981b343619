package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/pkg/log"
)

// AccessLog writes one structured line per request.
func AccessLog(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := c.Writer.Status()
		fields := append(
			log.RequestFields(log.RequestIDFromContext(c.Request.Context()), c.Request.Method, c.Request.URL.Path, c.ClientIP()),
			log.String(log.FieldRoute, route),
		)
		fields = append(fields, log.ResponseFields(status, int64(c.Writer.Size()), time.Since(start))...)
		if len(c.Errors) > 0 {
			fields = append(fields, log.String("errors", c.Errors.String()))
		}

		reqLogger := logger.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			reqLogger.Error("Request completed", fields...)
		case status >= 400:
			reqLogger.Warn("Request completed", fields...)
		default:
			reqLogger.Info("Request completed", fields...)
		}
	}
}
