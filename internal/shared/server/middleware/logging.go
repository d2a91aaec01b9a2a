package middleware

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"review-analyzer/internal/shared/metrics"
)

// Logging emits one structured line per request and records its latency.
// Health and metrics probes are not logged.
func Logging(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	access := ginzap.GinzapWithConfig(logger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/healthz", "/metrics"},
		Context: func(c *gin.Context) []zapcore.Field {
			fields := []zapcore.Field{zap.String("request_id", RequestIDFromContext(c))}
			if userID := UserIDFromContext(c); userID != "" {
				fields = append(fields, zap.String("user_id", userID))
			}
			return fields
		},
	})
	return func(c *gin.Context) {
		start := time.Now()
		access(c)
		metrics.ObserveRequest(float64(time.Since(start).Microseconds()) / 1000.0)
	}
}
