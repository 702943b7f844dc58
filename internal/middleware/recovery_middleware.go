// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"receipt-emulator/internal/utils"
)

// RecoveryMiddleware turns handler panics into a 500 envelope
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		utils.LoggerWithRequestID(logger, c.GetString("request_id")).Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stacktrace"),
		)

		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
		c.Abort()
	})
}
