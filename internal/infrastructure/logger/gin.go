package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinMiddleware attaches a request-scoped logger to the request context and
// logs one line per request. It expects RequestID middleware to run first.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		requestID := c.GetString("request_id")
		reqLogger := base.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		)
		ctx := WithContext(c.Request.Context(), reqLogger)
		if requestID != "" {
			ctx = WithRequestID(ctx, requestID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		// handlers may have enriched the context with organization and actor
		l := FromContext(c.Request.Context())
		switch {
		case status >= 500:
			l.Error("HTTP Request", fields...)
		case status >= 400:
			l.Warn("HTTP Request", fields...)
		default:
			l.Info("HTTP Request", fields...)
		}
	}
}

// Recovery returns a gin middleware that recovers from panics and logs them
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				base.Error("Panic recovered",
					zap.String("request_id", c.GetString("request_id")),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatusJSON(500, gin.H{
					"success": false,
					"error":   gin.H{"code": "INTERNAL_ERROR", "message": "An internal error occurred"},
				})
			}
		}()
		c.Next()
	}
}
