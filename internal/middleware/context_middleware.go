package middleware

import (
	"time"

	"go-leave/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger attaches a request-scoped logger carrying the request id.
// Mount it after RequestID; AuthMiddleware later narrows the logger with the
// employee id. One access line is written per request.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		ctx := c.Request.Context()

		reqLogger := logger.With(zap.String("request_id", contextutil.GetRequestID(ctx)))
		c.Request = c.Request.WithContext(contextutil.WithLogger(ctx, reqLogger))

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
		}
		if id := c.GetString(ContextEmployeeID); id != "" {
			fields = append(fields, zap.String("employee_id", id))
		}
		reqLogger.Info("http request", fields...)
	}
}
