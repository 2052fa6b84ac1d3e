package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/app/repository"
	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/cache"
	"github.com/voyageshield/voyageshield/internal/pkg/coverage"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
	"github.com/voyageshield/voyageshield/internal/pkg/statistics"
	"github.com/voyageshield/voyageshield/internal/pkg/usercontext"
	"github.com/voyageshield/voyageshield/internal/pkg/validation"
)

// InsuranceController covers the plan catalog, policies and the admin
// traveler overview
type InsuranceController struct {
	plans    repository.PlanRepository
	payments repository.PaymentRepository
	policies repository.PolicyRepository
	catalog  *cache.PlanCatalog
	stats    *statistics.Service
	now      func() time.Time
}

func NewInsuranceController(d Deps) *InsuranceController {
	return &InsuranceController{
		plans:    d.Repos.Plan,
		payments: d.Repos.Payment,
		policies: d.Repos.Policy,
		catalog:  d.Catalog,
		stats:    d.Stats,
		now:      d.Now,
	}
}

type planRequest struct {
	Name         string       `json:"name" validate:"required,min=2,max=150"`
	Description  string       `json:"description" validate:"max=2000"`
	Price        money.Amount `json:"price" validate:"gt=0,lte=100000000"`
	DurationDays int          `json:"duration" validate:"gt=0,lte=3650"`
	Coverage     []string     `json:"coverage" validate:"dive,required,max=200"`
	IsActive     *bool        `json:"isActive"`
}

type createPolicyRequest struct {
	PlanID    string    `json:"planId" validate:"required,max=36"`
	PaymentID string    `json:"paymentId" validate:"required,max=36"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required,gtfield=StartDate"`
}

// HandleOptions lists the active plans.
func (ic *InsuranceController) HandleOptions(c *fiber.Ctx) error {
	plans, err := ic.catalog.Active(c.UserContext())
	if err != nil {
		return apperror.Internal("failed to load insurance options", err)
	}
	return c.JSON(plans)
}

// HandleListPlans lists every plan including deactivated ones.
func (ic *InsuranceController) HandleListPlans(c *fiber.Ctx) error {
	plans, err := ic.plans.ListAll(c.UserContext())
	if err != nil {
		return apperror.Internal("failed to load plans", err)
	}
	return c.JSON(plans)
}

func (ic *InsuranceController) HandleCreatePlan(c *fiber.Ctx) error {
	var req planRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	plan := &models.InsurancePlan{IsActive: true}
	req.apply(plan)
	if err := ic.plans.Create(c.UserContext(), plan); err != nil {
		return apperror.Internal("failed to create plan", err)
	}

	ic.planChanged(c, plan.ID, "created")
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandleUpdatePlan replaces a plan's fields. Prices of existing plans may
// change; progress is always computed against the current price.
func (ic *InsuranceController) HandleUpdatePlan(c *fiber.Ctx) error {
	plan, err := ic.plans.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return notFoundOr(err, "plan not found", "failed to load plan")
	}

	var req planRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	req.apply(plan)
	if err := ic.plans.Update(c.UserContext(), plan); err != nil {
		return apperror.Internal("failed to update plan", err)
	}

	ic.planChanged(c, plan.ID, "updated")
	return c.JSON(plan)
}

// HandleDeactivatePlan hides a plan from the catalog. Travelers who already
// selected it keep it.
func (ic *InsuranceController) HandleDeactivatePlan(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := ic.plans.Deactivate(c.UserContext(), id); err != nil {
		return notFoundOr(err, "plan not found", "failed to deactivate plan")
	}

	ic.planChanged(c, id, "deactivated")
	return c.JSON(fiber.Map{"message": "plan deactivated"})
}

func (ic *InsuranceController) planChanged(c *fiber.Ctx, planID, action string) {
	ic.catalog.Invalidate(c.UserContext())
	if ic.stats != nil {
		ic.stats.Invalidate(c.UserContext())
	}
	logger.L().Infow("insurance plan "+action, "plan_id", planID, "admin_id", usercontext.GetUserID(c))
}

func (r planRequest) apply(plan *models.InsurancePlan) {
	plan.Name = strings.TrimSpace(r.Name)
	plan.Description = strings.TrimSpace(r.Description)
	plan.Price = r.Price
	plan.DurationDays = r.DurationDays
	plan.Coverage = r.Coverage
	if plan.Coverage == nil {
		plan.Coverage = []string{}
	}
	if r.IsActive != nil {
		plan.IsActive = *r.IsActive
	}
}

// HandleCreatePolicy records a policy bought with one of the caller's
// completed payments.
func (ic *InsuranceController) HandleCreatePolicy(c *fiber.Ctx) error {
	var req createPolicyRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	userID := usercontext.GetUserID(c)

	plan, err := ic.plans.GetByID(ctx, req.PlanID)
	if err != nil {
		return notFoundOr(err, "plan not found", "failed to load plan")
	}

	payment, err := ic.payments.GetByID(ctx, req.PaymentID)
	if err != nil {
		return notFoundOr(err, "payment not found", "failed to load payment")
	}
	if payment.UserID != userID {
		return apperror.NotFound("payment not found")
	}
	if !payment.IsCompleted() {
		return apperror.PaymentIncomplete("payment is not completed")
	}

	policy := &models.InsurancePolicy{
		UserID:    userID,
		PlanID:    plan.ID,
		PaymentID: payment.ID,
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
		Status:    models.POLICY_STATUS_ACTIVE,
	}
	if err := ic.policies.Create(ctx, policy); err != nil {
		return apperror.Internal("failed to create policy", err)
	}

	return c.Status(fiber.StatusCreated).JSON(policy)
}

func (ic *InsuranceController) HandleListPolicies(c *fiber.Ctx) error {
	policies, err := ic.policies.ListByUser(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return apperror.Internal("failed to load policies", err)
	}
	return c.JSON(policies)
}

// adminTravelers applies ?plan=&status=&destination= to the traveler list.
func (ic *InsuranceController) adminTravelers(c *fiber.Ctx) ([]statistics.Traveler, error) {
	status := coverage.Status(c.Query("status"))
	switch status {
	case "", coverage.StatusNotStarted, coverage.StatusSaving, coverage.StatusFullyPaid:
	default:
		return nil, apperror.Validation("invalid request", apperror.FieldError{
			Field:   "status",
			Tag:     "oneof",
			Message: "status must be one of [not-started saving fully-paid]",
		})
	}

	travelers, err := ic.stats.Travelers(c.UserContext(), repository.UserFilter{
		PlanID:      c.Query("plan"),
		Destination: c.Query("destination"),
	})
	if err != nil {
		return nil, apperror.Internal("failed to load travelers", err)
	}
	return statistics.FilterByStatus(travelers, status), nil
}

// HandleAdminUsers is the traveler overview with payment progress.
func (ic *InsuranceController) HandleAdminUsers(c *fiber.Ctx) error {
	travelers, err := ic.adminTravelers(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"users": travelers,
		"count": len(travelers),
	})
}

func (ic *InsuranceController) HandleAdminUsersExport(c *fiber.Ctx) error {
	travelers, err := ic.adminTravelers(c)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(travelers))
	for _, t := range travelers {
		planName := ""
		if t.Plan != nil {
			planName = t.Plan.Name
		}
		rows = append(rows, []string{
			t.User.ID,
			t.User.Email,
			t.User.HolderName(),
			t.User.Destination,
			formatTimeCSV(t.User.TravelDate),
			planName,
			t.TotalPaid.String(),
			string(t.Progress.Status),
		})
	}

	header := []string{"id", "email", "name", "destination", "travel_date", "plan", "total_paid", "status"}
	return sendCSV(c, exportFilename("travelers", ic.now()), header, rows)
}
