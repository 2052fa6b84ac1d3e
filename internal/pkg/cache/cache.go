package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyageshield/voyageshield/internal/pkg/env"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// Options builds the redis connection settings from the environment.
func Options() *redis.Options {
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	}
}

// SetupCache initializes the connection to the redis server. A failed ping is
// logged and returned but not fatal; every cache user falls back to the
// database.
func SetupCache() error {
	client = redis.NewClient(Options())

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	pong, err := client.Ping(pingCtx).Result()
	if err != nil {
		logger.L().Warnw("could not connect to cache", "addr", client.Options().Addr, "error", err)
		return fmt.Errorf("cache ping failed: %w", err)
	}
	logger.L().Infow("connected to cache", "addr", client.Options().Addr, "reply", pong)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		_ = SetupCache()
	}
	return client
}

// Set stores a value in the cache with the given key and expiration time
func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// Delete removes a value from the cache by key
func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}
