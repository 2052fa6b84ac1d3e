package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/voyageshield/voyageshield/app/controllers"
	"github.com/voyageshield/voyageshield/app/repository"
	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/cache"
	"github.com/voyageshield/voyageshield/internal/pkg/coverage"
	"github.com/voyageshield/voyageshield/internal/pkg/database"
	"github.com/voyageshield/voyageshield/internal/pkg/env"
	"github.com/voyageshield/voyageshield/internal/pkg/hcaptcha"
	"github.com/voyageshield/voyageshield/internal/pkg/jobqueue"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
	"github.com/voyageshield/voyageshield/internal/pkg/mail"
	"github.com/voyageshield/voyageshield/internal/pkg/metrics"
	"github.com/voyageshield/voyageshield/internal/pkg/ratelimit"
	"github.com/voyageshield/voyageshield/internal/pkg/router"
	"github.com/voyageshield/voyageshield/internal/pkg/security"
	"github.com/voyageshield/voyageshield/internal/pkg/statistics"
)

func main() {
	app, err := NewApplication()
	if err != nil {
		log.Fatal(err)
	}

	err = app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	logger.L().Errorw("server stopped", "error", err)
	logger.Sync()
	log.Fatal(err)
}

func NewApplication() (*fiber.App, error) {
	env.SetupEnvFile()
	log, err := logger.Setup(env.IsDev())
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if err := database.SetupDatabase(); err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	db := database.GetDB()
	if env.GetEnv("SEED_PLANS", "true") == "true" {
		if err := database.SeedPlans(db); err != nil {
			return nil, err
		}
	}

	mailer := mail.FromEnv()

	// Redis is optional; without it reads go to the database and mail is
	// sent inline.
	var rdb redis.Cmdable
	var limiterStorage fiber.Storage
	var asyncMailer mail.Mailer
	if err := cache.SetupCache(); err == nil {
		rdb = cache.GetClient()
		limiterStorage = ratelimit.NewStorage(cache.GetClient())

		queue := jobqueue.NewQueue(cache.GetClient(), mailer, env.GetEnvInt("MAIL_WORKERS", jobqueue.DefaultWorkers))
		queue.Start()
		asyncMailer = jobqueue.NewQueuedMailer(queue)
	}

	tokens, err := security.NewTokenManagerFromEnv()
	if err != nil {
		return nil, fmt.Errorf("setup tokens: %w", err)
	}

	policyPrefix := env.GetEnv("POLICY_PREFIX", coverage.DefaultPolicyPrefix)
	if err := coverage.ValidatePolicyPrefix(policyPrefix); err != nil {
		return nil, fmt.Errorf("POLICY_PREFIX: %w", err)
	}

	repository.InitializeFactory(db)
	repos := repository.GetGlobalRepositories()
	metrics.Init()

	deps := controllers.Deps{
		Repos:        repos,
		Certificates: coverage.NewService(repos.User, repos.Plan, repos.Payment, policyPrefix),
		Catalog:      cache.NewPlanCatalog(rdb, repos.Plan),
		Stats:        statistics.NewService(repos, rdb),
		Tokens:       tokens,
		Mailer:       mailer,
		AsyncMailer:  asyncMailer,
	}
	if captcha := hcaptcha.FromEnv(); captcha != nil {
		deps.Captcha = captcha
	}
	container := controllers.NewContainer(deps)

	app := fiber.New(fiber.Config{
		AppName:                 "VoyageShield",
		ErrorHandler:            apperror.Handler,
		BodyLimit:               1 << 20,
		// proxy headers are only read from peers listed in TRUSTED_PROXIES
		ProxyHeader:             env.GetEnv("PROXY_HEADER", ""),
		EnableTrustedProxyCheck: true,
		TrustedProxies:          trustedProxies(),
	})

	// recovery and logging
	app.Use(recover.New(), fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: strings.Join([]string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete, fiber.MethodOptions}, ","),
	}))

	// SWAGGER / OPENAPI
	if specPath := findOpenAPISpec(); specPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	} else {
		log.Warnw("openapi document not found, swagger UI disabled")
	}

	// ROUTER
	router.InstallRouter(app, router.Config{
		Controllers:    container,
		Tokens:         tokens,
		Users:          repos.User,
		LimiterStorage: limiterStorage,
		HealthCheck: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	return app, nil
}

// trustedProxies reads TRUSTED_PROXIES, a comma separated list of IPs or CIDRs.
func trustedProxies() []string {
	var proxies []string
	for _, p := range strings.Split(env.GetEnv("TRUSTED_PROXIES", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

func findOpenAPISpec() string {
	for _, base := range []string{"./", "../../", "../../../"} {
		path := base + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
