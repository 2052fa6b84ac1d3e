package ratelimit

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
)

func TestNew_LimitsPerKey(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler})
	app.Get("/verify", New(Config{
		Max:          2,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.Get("X-Client") },
	}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	call := func(client string) (int, map[string]any) {
		req := httptest.NewRequest("GET", "/verify", nil)
		req.Header.Set("X-Client", client)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return resp.StatusCode, body
	}

	status, _ := call("a")
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = call("a")
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body := call("a")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", body["kind"])

	status, _ = call("b")
	assert.Equal(t, fiber.StatusNoContent, status, "other clients keep their own budget")
}

func TestVerifyConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("VERIFY_RATE_LIMIT", "")
	cfg := VerifyConfigFromEnv(nil, nil)
	assert.Equal(t, DefaultVerifyMax, cfg.Max)
	assert.Equal(t, DefaultVerifyWindow, cfg.Expiration)

	t.Setenv("VERIFY_RATE_LIMIT", "5")
	assert.Equal(t, 5, VerifyConfigFromEnv(nil, nil).Max)
}

func TestNewStorage_WithoutCacheClient(t *testing.T) {
	assert.Nil(t, NewStorage(nil))
}
