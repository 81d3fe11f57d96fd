package cache

import (
	"fmt"

	"github.com/relist/backend/internal/domain/shared"
	"github.com/relist/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// OpenIdempotencyStore connects the worker's redelivery guard. Redis is
// preferred so multiple workers share state; when it is unreachable and
// requireRedis is false, a process-local store stands in. The fallback
// cannot dedupe across instances, hence the warning.
func OpenIdempotencyStore(cfg config.RedisConfig, log *zap.Logger, requireRedis bool) (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		log.Info("using Redis idempotency store")
		return store, nil
	}
	if requireRedis {
		return nil, fmt.Errorf("Redis required for idempotency but unavailable: %w", err)
	}

	log.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
		"redeliveries may be reprocessed when running more than one worker",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
