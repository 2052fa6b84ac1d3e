package ratelimit

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/env"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
)

const (
	DefaultVerifyMax    = 30
	DefaultVerifyWindow = time.Minute

	// limiter counters live in their own Redis database (cache uses DB 0)
	storageDatabase = 1
)

// NewStorage returns a Redis backed fiber.Storage that shares the address and
// credentials of the cache client. Without a cache client it returns nil and
// the limiter falls back to in-memory counters.
func NewStorage(cacheClient *goredis.Client) fiber.Storage {
	if cacheClient == nil {
		return nil
	}

	host := "localhost"
	port := 6379
	if h, p, err := net.SplitHostPort(cacheClient.Options().Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	password := env.GetEnv("CACHE_PASSWORD", "")
	if p := cacheClient.Options().Password; p != "" {
		password = p
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: storageDatabase,
		Reset:    false,
	})
}

// Config of a limiter; zero values fall back to the verify endpoint defaults.
type Config struct {
	Max          int
	Expiration   time.Duration
	KeyGenerator func(*fiber.Ctx) string
	Storage      fiber.Storage
}

// VerifyConfigFromEnv reads VERIFY_RATE_LIMIT (requests per minute). A nil key
// generator keys on c.IP().
func VerifyConfigFromEnv(key func(*fiber.Ctx) string, storage fiber.Storage) Config {
	return Config{
		Max:          env.GetEnvInt("VERIFY_RATE_LIMIT", DefaultVerifyMax),
		Expiration:   DefaultVerifyWindow,
		KeyGenerator: key,
		Storage:      storage,
	}
}

// New builds a fixed window limiter that answers with a rate_limited error.
func New(cfg Config) fiber.Handler {
	if cfg.Max <= 0 {
		cfg.Max = DefaultVerifyMax
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = DefaultVerifyWindow
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = func(c *fiber.Ctx) string { return c.IP() }
	}

	return limiter.New(limiter.Config{
		Max:          cfg.Max,
		Expiration:   cfg.Expiration,
		KeyGenerator: cfg.KeyGenerator,
		Storage:      cfg.Storage,
		LimitReached: func(c *fiber.Ctx) error {
			logger.L().Warnw("rate limit reached", "path", c.Path(), "key", cfg.KeyGenerator(c))
			return apperror.New(apperror.KindRateLimited, "too many requests, please try again later")
		},
	})
}
