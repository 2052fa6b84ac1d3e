package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voyageshield/voyageshield/internal/pkg/middleware"
	"github.com/voyageshield/voyageshield/internal/pkg/ratelimit"
)

type ApiRouter struct {
	cfg Config
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	ctrl := h.cfg.Controllers

	api := app.Group("/api", middleware.BearerAuth(h.cfg.Tokens, h.cfg.Users))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "VoyageShield API",
		})
	})

	auth := api.Group("/auth")
	auth.Post("/register", ctrl.Auth.HandleRegister)
	auth.Post("/login", ctrl.Auth.HandleLogin)
	auth.Post("/verify-email", ctrl.Auth.HandleVerifyEmail)
	auth.Post("/resend-verification", ctrl.Auth.HandleResendVerification)
	auth.Get("/profile", middleware.RequireAuth, ctrl.Auth.HandleProfile)

	user := api.Group("/user", middleware.RequireAuth)
	user.Put("/onboarding", ctrl.User.HandleOnboarding)
	user.Get("/dashboard", ctrl.User.HandleDashboard)

	insurance := api.Group("/insurance")
	insurance.Get("/options", ctrl.Insurance.HandleOptions)
	insurance.Post("/policy", middleware.RequireAuth, ctrl.Insurance.HandleCreatePolicy)
	insurance.Get("/policies", middleware.RequireAuth, ctrl.Insurance.HandleListPolicies)
	insurance.Get("/plans", middleware.RequireAdmin, ctrl.Insurance.HandleListPlans)
	insurance.Post("/plans", middleware.RequireAdmin, ctrl.Insurance.HandleCreatePlan)
	insurance.Put("/plans/:id", middleware.RequireAdmin, ctrl.Insurance.HandleUpdatePlan)
	insurance.Delete("/plans/:id", middleware.RequireAdmin, ctrl.Insurance.HandleDeactivatePlan)
	insurance.Get("/admin/users", middleware.RequireAdmin, ctrl.Insurance.HandleAdminUsers)
	insurance.Get("/admin/users/export.csv", middleware.RequireAdmin, ctrl.Insurance.HandleAdminUsersExport)

	payments := api.Group("/payments", middleware.RequireAuth)
	payments.Post("/", ctrl.Payment.HandleCreate)
	payments.Get("/user/history", ctrl.Payment.HandleHistory)
	payments.Get("/admin/all", middleware.RequireAdmin, ctrl.Payment.HandleAdminList)
	payments.Get("/admin/export.csv", middleware.RequireAdmin, ctrl.Payment.HandleAdminExport)
	payments.Get("/:id", ctrl.Payment.HandleStatus)

	certificates := api.Group("/certificates")
	certificates.Get("/me", middleware.RequireAuth, ctrl.Certificate.HandleMine)
	// keyed on c.IP(); proxy headers only count from TRUSTED_PROXIES
	certificates.Get("/verify/:policyNumber",
		ratelimit.New(ratelimit.VerifyConfigFromEnv(nil, h.cfg.LimiterStorage)),
		ctrl.Certificate.HandleVerify,
	)

	admin := api.Group("/admin", middleware.RequireAdmin)
	admin.Get("/stats", ctrl.Admin.HandleStats)
}

func NewApiRouter(cfg Config) *ApiRouter {
	return &ApiRouter{cfg: cfg}
}
