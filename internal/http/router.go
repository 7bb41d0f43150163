package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ascend-api/internal/ratelimit"
	"ascend-api/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
// El orden importa: rate limit primero, autenticación después.
func NewRouter(
	logger *zap.Logger,
	limiter ratelimit.Limiter,
	auth *service.Authenticator,
	authH *AuthHandler,
	userH *UserHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), RateLimitMiddleware(logger, limiter))

	r.GET("/health", healthH.Health)

	api := r.Group("/api/v1")
	api.POST("/users", userH.CreateOrGetUser)

	authGroup := api.Group("/auth")
	authGroup.POST("/verify", BearerAuthMiddleware(auth), authH.VerifyUser)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
