package cache

import (
	"time"

	"ascend-api/internal/domain"
)

// Snapshot es una copia desnormalizada y acotada en el tiempo de un usuario,
// guardada bajo el hash del token que la validó.
type Snapshot struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthID       string    `json:"oauth_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Expiración del propio token (claim exp, unix). El hit se descarta si ya pasó.
	TokenExpiresAt int64 `json:"token_expires_at,omitempty"`
}

// NewSnapshot arma un Snapshot a partir del usuario resuelto y el exp del token.
func NewSnapshot(user domain.User, tokenExpiresAt int64) Snapshot {
	return Snapshot{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
		OAuthProvider:  user.OAuthProvider,
		OAuthID:        user.OAuthID,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
		TokenExpiresAt: tokenExpiresAt,
	}
}

// User reconstruye el valor de dominio desde el snapshot.
func (s Snapshot) User() domain.User {
	return domain.User{
		ID:            s.ID,
		Email:         s.Email,
		Name:          s.Name,
		AvatarURL:     s.AvatarURL,
		OAuthProvider: s.OAuthProvider,
		OAuthID:       s.OAuthID,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// Stale indica si el token que respalda el snapshot ya expiró.
func (s Snapshot) Stale(now time.Time) bool {
	return s.TokenExpiresAt > 0 && now.Unix() >= s.TokenExpiresAt
}
