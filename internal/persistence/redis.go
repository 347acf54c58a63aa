package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/config"
)

// ErrRedisUnreachable wraps a failed startup ping.
var ErrRedisUnreachable = errors.New("redis unreachable")

// Redis holds the session store client.
type Redis struct {
	Client *redis.Client
}

// OpenRedis builds a client without contacting the server. Commands fail
// until Redis becomes reachable; go-redis reconnects on its own.
func OpenRedis(cfg config.RedisConfig) *Redis {
	return &Redis{Client: redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.PingTimeout(),
	})}
}

// NewRedis opens a client and pings it within the configured timeout. The
// client is closed when the ping fails.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	r := OpenRedis(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout())
	defer cancel()
	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		r.Close()
		return nil, fmt.Errorf("%w at %s: %v", ErrRedisUnreachable, cfg.Addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return r, nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping reports Redis connectivity for readiness checks.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
