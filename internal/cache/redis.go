package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier stores string values under a key prefix and slides their TTL on read.
type RedisTier struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisTier(rdb *redis.Client, prefix string, ttl time.Duration) *RedisTier {
	return &RedisTier{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Get returns ok=false on a miss. GETEX refreshes the expiry in the same round trip.
func (t *RedisTier) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := t.rdb.GetEx(ctx, t.prefix+key, t.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (t *RedisTier) Set(ctx context.Context, key, value string) error {
	return t.rdb.Set(ctx, t.prefix+key, value, t.ttl).Err()
}

func (t *RedisTier) Delete(ctx context.Context, key string) error {
	return t.rdb.Del(ctx, t.prefix+key).Err()
}
