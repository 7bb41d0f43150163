package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TokenCache guarda snapshots de usuarios validados, indexados por token.
// Todas las operaciones son best-effort: una falla del backend degrada a miss
// o no-op, nunca a un error que bloquee la autenticación.
type TokenCache interface {
	Lookup(ctx context.Context, rawToken string) (Snapshot, bool)
	Store(ctx context.Context, rawToken string, snap Snapshot, ttl time.Duration) bool
	Invalidate(ctx context.Context, rawToken string) bool
	InvalidateAll(ctx context.Context, userID string) int
}

const (
	tokenKeyPrefix = "authcache:token:"
	userKeyPrefix  = "authcache:user:"

	opTimeout   = 500 * time.Millisecond
	pingTimeout = 5 * time.Second
	scanCount   = 100
)

// redisTokenClient es el subconjunto del cliente redis que usa la cache.
type redisTokenClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Info(ctx context.Context, section ...string) *redis.StringCmd
}

// RedisTokenCache implementa TokenCache sobre redis. La conexión se abre de
// forma perezosa en el primer uso y se intenta una sola vez por instancia: si
// falla, la cache queda deshabilitada en lugar de reintentar por request.
type RedisTokenCache struct {
	logger *zap.Logger
	url    string

	once   sync.Once
	client redisTokenClient
}

func NewRedisTokenCache(logger *zap.Logger, redisURL string) *RedisTokenCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTokenCache{logger: logger, url: redisURL}
}

// conn devuelve el cliente conectado, o nil si la conexión falló.
func (c *RedisTokenCache) conn(ctx context.Context) redisTokenClient {
	c.once.Do(func() {
		opts, err := redis.ParseURL(c.url)
		if err != nil {
			c.logger.Warn("token cache disabled: bad redis url", zap.Error(err))
			return
		}
		opts.DialTimeout = pingTimeout
		opts.ReadTimeout = pingTimeout
		client := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			c.logger.Warn("token cache disabled: redis unreachable", zap.Error(err))
			_ = client.Close()
			return
		}
		c.client = client
		c.logger.Info("token cache connected")
	})
	return c.client
}

func (c *RedisTokenCache) Lookup(ctx context.Context, rawToken string) (Snapshot, bool) {
	client := c.conn(ctx)
	if client == nil || strings.TrimSpace(rawToken) == "" {
		return Snapshot{}, false
	}
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := tokenKey(rawToken)
	raw, err := client.Get(opCtx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("token cache lookup failed", zap.Error(err))
		}
		return Snapshot{}, false
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		c.logger.Warn("token cache entry corrupt, dropping", zap.Error(err))
		_, _ = client.Del(opCtx, key).Result()
		return Snapshot{}, false
	}
	return snap, true
}

func (c *RedisTokenCache) Store(ctx context.Context, rawToken string, snap Snapshot, ttl time.Duration) bool {
	client := c.conn(ctx)
	if client == nil || strings.TrimSpace(rawToken) == "" {
		return false
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("token cache serialize failed", zap.Error(err))
		return false
	}
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := tokenKey(rawToken)
	if err := client.Set(opCtx, key, payload, ttl).Err(); err != nil {
		c.logger.Warn("token cache store failed", zap.Error(err))
		return false
	}
	// Clave índice por usuario, con el mismo TTL, para la invalidación masiva.
	if snap.ID != "" {
		if err := client.Set(opCtx, userIndexKey(snap.ID, rawToken), key, ttl).Err(); err != nil {
			c.logger.Warn("token cache index store failed", zap.Error(err))
		}
	}
	return true
}

func (c *RedisTokenCache) Invalidate(ctx context.Context, rawToken string) bool {
	client := c.conn(ctx)
	if client == nil || strings.TrimSpace(rawToken) == "" {
		return false
	}
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := client.Del(opCtx, tokenKey(rawToken)).Result()
	if err != nil {
		c.logger.Warn("token cache invalidate failed", zap.Error(err))
		return false
	}
	return n > 0
}

// InvalidateAll borra todos los snapshots asociados a un usuario, recorriendo
// sus claves índice. Pensado para logout y cambios de permisos.
func (c *RedisTokenCache) InvalidateAll(ctx context.Context, userID string) int {
	client := c.conn(ctx)
	if client == nil || strings.TrimSpace(userID) == "" {
		return 0
	}
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pattern := userKeyPrefix + userID + ":*"
	var toDelete []string
	tokens := 0
	var cursor uint64
	for {
		keys, next, err := client.Scan(opCtx, cursor, pattern, scanCount).Result()
		if err != nil {
			c.logger.Warn("token cache scan failed", zap.Error(err))
			return 0
		}
		for _, indexKey := range keys {
			tokens++
			toDelete = append(toDelete, indexKey)
			tokenKey, err := client.Get(opCtx, indexKey).Result()
			if err == nil && tokenKey != "" {
				toDelete = append(toDelete, tokenKey)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(toDelete) == 0 {
		return 0
	}
	if err := client.Del(opCtx, toDelete...).Err(); err != nil {
		c.logger.Warn("token cache bulk delete failed", zap.Error(err))
		return 0
	}
	c.logger.Info("invalidated cached tokens", zap.String("user_id", userID), zap.Int("count", tokens))
	return tokens
}

// Stats expone contadores del keyspace redis para monitoreo.
func (c *RedisTokenCache) Stats(ctx context.Context) map[string]any {
	client := c.conn(ctx)
	if client == nil {
		return map[string]any{"status": "unavailable"}
	}
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	info, err := client.Info(opCtx, "stats").Result()
	if err != nil {
		return map[string]any{"status": "error"}
	}
	hits := parseInfoField(info, "keyspace_hits")
	misses := parseInfoField(info, "keyspace_misses")
	total := hits + misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return map[string]any{
		"status":           "available",
		"hits":             hits,
		"misses":           misses,
		"hit_rate_percent": hitRate,
	}
}

// tokenKey deriva la clave de cache con SHA-256 para no guardar tokens crudos.
func tokenKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return tokenKeyPrefix + hex.EncodeToString(sum[:])
}

func userIndexKey(userID, rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return userKeyPrefix + userID + ":" + hex.EncodeToString(sum[:])
}

func parseInfoField(info, field string) int64 {
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, field+":"); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err == nil {
				return n
			}
		}
	}
	return 0
}
