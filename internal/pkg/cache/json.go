package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetJSON when the key is absent or no client is set.
var ErrMiss = errors.New("cache miss")

// GetJSON loads a JSON encoded value into out.
func GetJSON(ctx context.Context, rdb redis.Cmdable, key string, out any) error {
	if rdb == nil {
		return ErrMiss
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// SetJSON stores value as JSON with the given expiration.
func SetJSON(ctx context.Context, rdb redis.Cmdable, key string, value any, expiration time.Duration) error {
	if rdb == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, raw, expiration).Err()
}

// Invalidate deletes keys; a nil client is a no-op.
func Invalidate(ctx context.Context, rdb redis.Cmdable, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}
