package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Purga, cuenta e inserta en una sola unidad atómica: dos requests
// concurrentes nunca pueden leer el mismo conteo y colarse ambas.
// KEYS[1] clave del contador; ARGV: inicio de ventana, límite, score,
// miembro único, ttl en segundos.
const slidingWindowScript = `
redis.call("ZREMRANGEBYSCORE", KEYS[1], 0, ARGV[1])
local count = redis.call("ZCARD", KEYS[1])
if count >= tonumber(ARGV[2]) then
  return {0, count}
end
redis.call("ZADD", KEYS[1], ARGV[3], ARGV[4])
redis.call("EXPIRE", KEYS[1], ARGV[5])
return {1, count + 1}
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisSlidingWindow implementa Limiter sobre un contador redis compartido
// entre instancias. La conexión se abre perezosamente una sola vez; si el
// backend no responde, el limitador admite (fail open) y deja registro.
type RedisSlidingWindow struct {
	logger *zap.Logger
	url    string
	policy Policy

	once   sync.Once
	client redisEvaler
}

func NewRedisSlidingWindow(logger *zap.Logger, redisURL string, policy Policy) *RedisSlidingWindow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSlidingWindow{logger: logger, url: redisURL, policy: policy}
}

func (l *RedisSlidingWindow) conn(ctx context.Context) redisEvaler {
	l.once.Do(func() {
		opts, err := redis.ParseURL(l.url)
		if err != nil {
			l.logger.Warn("rate limiting disabled: bad redis url", zap.Error(err))
			return
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			l.logger.Warn("rate limiting disabled: redis unreachable", zap.Error(err))
			_ = client.Close()
			return
		}
		l.client = client
		l.logger.Info("rate limiter connected")
	})
	return l.client
}

func (l *RedisSlidingWindow) Admit(ctx context.Context, clientID, method, path string) Decision {
	rule, ok := l.policy.RuleFor(path)
	if !ok {
		return Decision{Allowed: true, Bypassed: true}
	}

	now := time.Now()
	decision := Decision{
		Limit:  rule.Limit,
		Window: rule.Window,
		Reset:  now.Add(rule.Window),
	}

	client := l.conn(ctx)
	if client == nil {
		decision.Allowed = true
		decision.Degraded = true
		return decision
	}

	opCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	score := float64(now.UnixNano()) / float64(time.Second)
	windowStart := score - rule.Window.Seconds()
	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString()
	key := counterKey(clientID, method, path)

	res, err := client.Eval(opCtx, slidingWindowScript,
		[]string{key},
		windowStart,
		rule.Limit,
		score,
		member,
		int(rule.Window.Seconds()),
	).Slice()
	if err != nil || len(res) != 2 {
		l.logger.Warn("rate limit check failed, admitting",
			zap.String("client", clientID), zap.Error(err))
		decision.Allowed = true
		decision.Degraded = true
		return decision
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)
	decision.Allowed = allowed == 1
	decision.Remaining = rule.Limit - int(count)
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	return decision
}
