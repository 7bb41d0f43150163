package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ascend-api/internal/domain"
	"ascend-api/internal/repository"
)

var ErrInvalidProvider = errors.New("unsupported oauth provider")

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger *zap.Logger
	users  repository.UserRepository
	now    func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		logger: logger,
		users:  users,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateUserInput struct {
	Email         string
	Name          string
	AvatarURL     string
	OAuthProvider string
	OAuthID       string
}

// CreateOrGet implementa el upsert del flujo OAuth: si el email ya existe
// devuelve (y refresca) el usuario; si no, lo crea.
func (s *UserService) CreateOrGet(ctx context.Context, input CreateUserInput) (domain.User, error) {
	if !domain.ValidProvider(input.OAuthProvider) {
		return domain.User{}, ErrInvalidProvider
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return s.refresh(ctx, existing, input)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, err
	}

	now := s.now()
	user := domain.User{
		ID:            uuid.NewString(),
		Email:         email,
		Name:          input.Name,
		AvatarURL:     input.AvatarURL,
		OAuthProvider: input.OAuthProvider,
		OAuthID:       input.OAuthID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("provider", user.OAuthProvider))
	return user, nil
}

// refresh actualiza nombre y avatar solo si el proveedor mandó valores nuevos.
func (s *UserService) refresh(ctx context.Context, user domain.User, input CreateUserInput) (domain.User, error) {
	changed := false
	if input.Name != "" && input.Name != user.Name {
		user.Name = input.Name
		changed = true
	}
	if input.AvatarURL != "" && input.AvatarURL != user.AvatarURL {
		user.AvatarURL = input.AvatarURL
		changed = true
	}
	if !changed {
		return user, nil
	}
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
