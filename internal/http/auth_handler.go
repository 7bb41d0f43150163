package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler expone los endpoints de verificación de sesión.
type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// VerifyUser maneja POST /api/v1/auth/verify. El middleware de autenticación
// ya validó el token y resolvió el usuario; solo queda devolverlo.
func (h *AuthHandler) VerifyUser(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return
	}
	c.JSON(http.StatusOK, user)
}
