package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/app/repository"
	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/coverage"
	"github.com/voyageshield/voyageshield/internal/pkg/usercontext"
	"github.com/voyageshield/voyageshield/internal/pkg/validation"
)

// UserController handles onboarding and the traveler dashboard
type UserController struct {
	users        repository.UserRepository
	plans        repository.PlanRepository
	certificates *coverage.Service
	now          func() time.Time
}

func NewUserController(d Deps) *UserController {
	return &UserController{
		users:        d.Repos.User,
		plans:        d.Repos.Plan,
		certificates: d.Certificates,
		now:          d.Now,
	}
}

type onboardingRequest struct {
	Destination    string    `json:"destination" validate:"required,max=150"`
	TravelDate     time.Time `json:"travelDate" validate:"required"`
	Purpose        string    `json:"purpose" validate:"required,max=100"`
	SelectedPlanID string    `json:"selectedPlanId" validate:"required,max=36"`
	PaymentPlan    string    `json:"paymentPlan" validate:"required,oneof=gradual full"`
}

// HandleOnboarding records all onboarding answers at once.
func (uc *UserController) HandleOnboarding(c *fiber.Ctx) error {
	var req onboardingRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	plan, err := uc.plans.GetByID(ctx, req.SelectedPlanID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Internal("failed to load plan", err)
	}
	if err != nil || !plan.IsActive {
		return apperror.Validation("invalid request", apperror.FieldError{
			Field:   "selectedPlanId",
			Tag:     "active_plan",
			Message: "selectedPlanId must reference an active plan",
		})
	}

	user, err := uc.users.GetByID(ctx, usercontext.GetUserID(c))
	if err != nil {
		return notFoundOr(err, "user not found", "failed to load user")
	}

	user.CompleteOnboarding(models.Onboarded{
		Destination: strings.TrimSpace(req.Destination),
		TravelDate:  req.TravelDate.UTC(),
		Purpose:     strings.TrimSpace(req.Purpose),
		PlanID:      plan.ID,
		PaymentPlan: req.PaymentPlan,
	})
	if err := uc.users.Update(ctx, user); err != nil {
		return apperror.Internal("failed to save onboarding", err)
	}

	return c.JSON(user)
}

// HandleDashboard returns the traveler's savings progress towards their plan.
func (uc *UserController) HandleDashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := uc.users.GetByID(ctx, usercontext.GetUserID(c))
	if err != nil {
		return notFoundOr(err, "user not found", "failed to load user")
	}

	onboarded, ok := user.Onboarding()
	if !ok {
		return apperror.NotOnboarded("complete onboarding to see your dashboard").WithStatus(fiber.StatusConflict)
	}

	plan, err := uc.plans.GetByID(ctx, onboarded.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotOnboarded("selected plan no longer exists").WithStatus(fiber.StatusConflict)
		}
		return apperror.Internal("failed to load plan", err)
	}

	paid, err := uc.certificates.Ledger().TotalPaid(ctx, user.ID)
	if err != nil {
		return apperror.Internal("failed to load payments", err)
	}

	progress := coverage.ComputeProgress(paid, plan.Price)
	response := fiber.Map{
		"user":      user,
		"plan":      plan,
		"totalPaid": paid,
		"planPrice": plan.Price,
		"progress":  progress,
		"schedule":  coverage.SavingsSchedule(progress, onboarded.TravelDate, uc.now()),
	}
	if progress.FullyPaid {
		response["policyNumber"] = coverage.PolicyNumberFor(uc.certificates.Prefix(), user).Encode()
	}
	return c.JSON(response)
}
