package domain

import "time"

// Proveedores OAuth soportados.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// User representa la identidad de un usuario autenticado via OAuth.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthID       string    `json:"oauth_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidProvider indica si el proveedor OAuth es uno de los soportados.
func ValidProvider(provider string) bool {
	return provider == ProviderGoogle || provider == ProviderGitHub
}
