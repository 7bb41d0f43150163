package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ascend-api/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
}

func NewUserHandler(logger *zap.Logger, userServ *service.UserService) *UserHandler {
	return &UserHandler{logger: logger, userServ: userServ}
}

// CreateOrGetUser maneja POST /api/v1/users. Lo llama el flujo OAuth con el
// perfil ya verificado por el proveedor; es un upsert por email.
func (h *UserHandler) CreateOrGetUser(c *gin.Context) {
	var req struct {
		Email         string `json:"email" binding:"required,email"`
		Name          string `json:"name"`
		AvatarURL     string `json:"avatar_url"`
		OAuthProvider string `json:"oauth_provider" binding:"required"`
		OAuthID       string `json:"oauth_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.userServ.CreateOrGet(c.Request.Context(), service.CreateUserInput{
		Email:         req.Email,
		Name:          req.Name,
		AvatarURL:     req.AvatarURL,
		OAuthProvider: req.OAuthProvider,
		OAuthID:       req.OAuthID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidProvider) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported oauth provider"})
			return
		}
		h.logger.Error("create or get user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	c.JSON(http.StatusOK, user)
}
