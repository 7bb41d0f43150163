package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"ascend-api/internal/cache"
	"ascend-api/internal/domain"
	"ascend-api/internal/repository"
)

// TTL de snapshots, alineado con la expiración típica de los tokens.
const snapshotTTL = 15 * time.Minute

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("missing subject claim")
	ErrUserNotFound   = errors.New("user not found")
)

// Authenticator valida bearer tokens y los resuelve a usuarios, consultando
// primero la cache de tokens y después el almacén de credenciales.
type Authenticator struct {
	logger *zap.Logger
	secret []byte
	users  repository.UserRepository
	tokens cache.TokenCache
	parser *jwt.Parser
	now    func() time.Time
}

func NewAuthenticator(logger *zap.Logger, secret string, users repository.UserRepository, tokens cache.TokenCache) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		logger: logger,
		secret: []byte(secret),
		users:  users,
		tokens: tokens,
		// Solo HS256: cualquier otro algoritmo en el header se rechaza.
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate resuelve un token crudo a su usuario. La cache es solo una
// optimización: el resultado es idéntico con o sin ella disponible.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (domain.User, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.User{}, ErrInvalidToken
	}

	if a.tokens != nil {
		if snap, ok := a.tokens.Lookup(ctx, rawToken); ok {
			if !snap.Stale(a.now()) {
				return snap.User(), nil
			}
			// El token expiró dentro de la ventana de la cache: descartar y revalidar.
			a.tokens.Invalidate(ctx, rawToken)
		}
	}

	claims, err := a.verify(rawToken)
	if err != nil {
		return domain.User{}, err
	}

	sub := claims.Subject
	if strings.TrimSpace(sub) == "" {
		return domain.User{}, ErrMissingSubject
	}

	user, err := a.users.GetByID(ctx, sub)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}

	if a.tokens != nil {
		var tokenExp int64
		if claims.ExpiresAt != nil {
			tokenExp = claims.ExpiresAt.Unix()
		}
		a.tokens.Store(ctx, rawToken, cache.NewSnapshot(user, tokenExp), snapshotTTL)
	}
	return user, nil
}

// verify valida firma y expiración; todo fallo colapsa en ErrInvalidToken,
// sin distinguir expiración de falsificación hacia el caller.
func (a *Authenticator) verify(rawToken string) (jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := a.parser.ParseWithClaims(rawToken, &claims, func(_ *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return jwt.RegisteredClaims{}, ErrInvalidToken
	}
	return claims, nil
}
