package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ascend-api/internal/domain"
	"ascend-api/internal/service"
)

const currentUserKey = "current_user"

// BearerAuthMiddleware extrae el bearer token, lo autentica y deja el usuario
// resuelto en el contexto. Header ausente y token inválido son condiciones
// distintas de cara al cliente.
func BearerAuthMiddleware(auth *service.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authenticator not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": authErrorMessage(err)})
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingSubject):
		return "missing subject claim"
	case errors.Is(err, service.ErrUserNotFound):
		return "user not found"
	default:
		return "invalid token"
	}
}

// CurrentUser obtiene el usuario autenticado desde el contexto.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}
