package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderRequestID  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(ContextRequestID, reqID)
		c.Header(HeaderRequestID, reqID)

		c.Next()

		if c.Request.URL.Path == "/health" {
			return
		}
		fields := []zap.Field{
			zap.String("request.request_id", reqID),
			zap.String("request.method", c.Request.Method),
			zap.String("request.path", c.Request.URL.Path),
			zap.String("request.route", c.FullPath()),
			zap.String("request.remote_ip", c.ClientIP()),
			zap.Int("response.status", c.Writer.Status()),
			zap.Duration("response.latency", time.Since(start)),
		}
		if uid := c.GetString(ContextUserID); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
