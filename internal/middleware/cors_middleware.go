// internal/middleware/cors_middleware.go
package middleware

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"receipt-emulator/internal/config"
)

// CORSMiddleware creates CORS middleware
func CORSMiddleware(config *config.SecurityConfig) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	if len(config.AllowedOrigins) == 0 || slices.Contains(config.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = config.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Content-Disposition", "X-Request-ID"}

	return cors.New(corsConfig)
}
