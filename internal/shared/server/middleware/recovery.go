package middleware

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"review-analyzer/internal/shared/server/respond"
)

// Recovery recovers from panics, logs the stack and returns a standardized
// error response.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return ginzap.CustomRecoveryWithZap(logger, true, func(c *gin.Context, err any) {
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	})
}
