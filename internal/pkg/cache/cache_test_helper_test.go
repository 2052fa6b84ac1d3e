package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyageshield/voyageshield/internal/pkg/env"
)

const isolatedCacheTestRedisDB = 13

// testRedis returns a client on an isolated database or skips the test when
// no redis endpoint is reachable.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()

	opts := Options()
	opts.DB = isolatedCacheTestRedisDB
	if env.GetEnv("CACHE_HOST", "") == "" {
		opts.Addr = "localhost:6379"
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", err)
	}

	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})
	return rdb
}
