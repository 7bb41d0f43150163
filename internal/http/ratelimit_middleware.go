package http

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ascend-api/internal/ratelimit"
)

// RateLimitMiddleware evalúa el limitador antes de cualquier lógica de
// negocio y adjunta los headers X-RateLimit-* a toda respuesta no exenta.
func RateLimitMiddleware(logger *zap.Logger, limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		method := c.Request.Method
		clientID := clientIdentity(c)

		decision := limiter.Admit(c.Request.Context(), clientID, method, path)
		if decision.Bypassed || decision.Degraded {
			c.Next()
			return
		}

		window := int(decision.Window.Seconds())
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

		if !decision.Allowed {
			logger.Warn("rate limit exceeded",
				zap.String("client", clientID),
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("limit", decision.Limit),
				zap.Int("window_seconds", window),
			)
			c.Header("Retry-After", strconv.Itoa(window))
			c.Header("X-RateLimit-Window", strconv.Itoa(window))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded: maximum " + strconv.Itoa(decision.Limit) +
					" requests per " + strconv.Itoa(window) + " seconds",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// clientIdentity prefiere la primera dirección del X-Forwarded-For (proxies y
// balanceadores), después la conexión directa, y "unknown" como último recurso.
func clientIdentity(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if c.Request.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil && host != "" {
			return host
		}
		return c.Request.RemoteAddr
	}
	return "unknown"
}
