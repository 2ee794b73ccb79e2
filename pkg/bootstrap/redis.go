package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sandroute/internal/config"
	"sandroute/internal/logger"
)

// InitRedis connects the shared event log store. Redis is optional: an
// empty host yields a nil client and the event log degrades to a no-op.
func InitRedis(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (*redis.Client, error) {
	if cfg.Host == "" {
		log.Info("Redis not configured, event log disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	log.Info("Redis connected successfully")
	return rdb, nil
}
