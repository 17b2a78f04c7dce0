package db

import (
	"context"

	"DevHabit/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RDB stays nil when no address is configured; callers fall back to the in-process cache.
var RDB *redis.Client

func InitRedis(addr string) {
	if addr == "" {
		logger.Warn("redis_disabled", nil)
		return
	}
	RDB = redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func PingRedis(ctx context.Context) error {
	return RDB.Ping(ctx).Err()
}

func CloseRedis() {
	if RDB != nil {
		_ = RDB.Close()
	}
}
