package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyageshield/voyageshield/internal/pkg/cache"
	"github.com/voyageshield/voyageshield/internal/pkg/env"
)

const isolatedJobQueueTestRedisDB = 14

// newIsolatedRedisClient returns a flushed client on its own database or
// skips the test when no redis endpoint is reachable.
func newIsolatedRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	opts := cache.Options()
	opts.DB = isolatedJobQueueTestRedisDB
	if env.GetEnv("CACHE_HOST", "") == "" {
		opts.Addr = "localhost:6379"
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	err := client.Ping(ctx).Err()
	cancel()
	if err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", err)
	}

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("failed to flush isolated redis db: %v", err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}
