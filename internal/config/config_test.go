package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSecret(t *testing.T) {
	t.Run("accepts long random secret", func(t *testing.T) {
		if err := ValidateSecret(strings.Repeat("k", 48)); err != nil {
			t.Fatalf("expected valid secret, got %v", err)
		}
	})

	t.Run("rejects short secret", func(t *testing.T) {
		if err := ValidateSecret("too-short"); !errors.Is(err, ErrSecretTooShort) {
			t.Fatalf("expected ErrSecretTooShort, got %v", err)
		}
	})

	t.Run("rejects documented placeholder", func(t *testing.T) {
		err := ValidateSecret("your-secret-key-min-32-chars-CHANGE-THIS")
		if !errors.Is(err, ErrSecretPlaceholder) {
			t.Fatalf("expected ErrSecretPlaceholder, got %v", err)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ascend")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("AUTH_SECRET", strings.Repeat("s", 40))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected default environment, got %q", cfg.Environment)
	}
}

func TestLoadConfigRejectsBadSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ascend")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("AUTH_SECRET", "short")

	if _, err := LoadConfig(); !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}
}
