package router

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/voyageshield/voyageshield/app/controllers"
	"github.com/voyageshield/voyageshield/internal/pkg/middleware"
	"github.com/voyageshield/voyageshield/internal/pkg/security"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Config carries what the routers need from the application.
type Config struct {
	Controllers *controllers.Container
	Tokens      *security.TokenManager
	Users       middleware.UserLookup
	// LimiterStorage backs the verify rate limiter; nil keeps counters in memory.
	LimiterStorage fiber.Storage
	// HealthCheck is called by /health; nil reports ok.
	HealthCheck func(ctx context.Context) error
}

func InstallRouter(app *fiber.App, cfg Config) {
	// Ops routes stay outside the bearer middleware of the API group.
	setup(app, NewOpsRouter(cfg.HealthCheck), NewApiRouter(cfg))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
