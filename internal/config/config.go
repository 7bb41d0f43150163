package config

import (
	"errors"

	"github.com/caarlos0/env/v10"
)

// El secreto de ejemplo de la documentación nunca debe llegar a un despliegue.
const placeholderSecret = "your-secret-key-min-32-chars-CHANGE-THIS"

const minSecretLength = 32

var (
	ErrSecretTooShort    = errors.New("auth secret must be at least 32 bytes")
	ErrSecretPlaceholder = errors.New("auth secret is the documented placeholder, generate a real one")
)

// Config centraliza la configuración del servicio.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	AuthSecret  string `env:"AUTH_SECRET,required"`
}

// LoadConfig carga la configuración desde variables de entorno y la valida.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateSecret(cfg.AuthSecret); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateSecret rechaza secretos cortos o el placeholder conocido.
func ValidateSecret(secret string) error {
	if len(secret) < minSecretLength {
		return ErrSecretTooShort
	}
	if secret == placeholderSecret {
		return ErrSecretPlaceholder
	}
	return nil
}
