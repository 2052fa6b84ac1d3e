package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/voyageshield/voyageshield/internal/pkg/env"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
	"github.com/voyageshield/voyageshield/internal/pkg/metrics"
)

type OpsRouter struct {
	healthCheck func(ctx context.Context) error
}

func (o OpsRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", o.handleHealth)

	// metrics and monitor are only exposed with credentials configured
	password := env.GetEnv("METRICS_PASSWORD", "")
	if password == "" {
		logger.L().Infow("METRICS_PASSWORD not set, /metrics and /monitor are disabled")
		return
	}
	auth := basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): password,
		},
	})

	metrics.Init()
	app.Get("/metrics", auth, adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/monitor", auth, monitor.New(monitor.Config{Title: "VoyageShield Monitor"}))
}

func (o OpsRouter) handleHealth(c *fiber.Ctx) error {
	if o.healthCheck != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := o.healthCheck(ctx); err != nil {
			logger.L().Warnw("health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func NewOpsRouter(healthCheck func(ctx context.Context) error) *OpsRouter {
	return &OpsRouter{healthCheck: healthCheck}
}
