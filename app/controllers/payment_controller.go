package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/app/repository"
	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/coverage"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
	"github.com/voyageshield/voyageshield/internal/pkg/metrics"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
	"github.com/voyageshield/voyageshield/internal/pkg/statistics"
	"github.com/voyageshield/voyageshield/internal/pkg/usercontext"
	"github.com/voyageshield/voyageshield/internal/pkg/validation"
)

const defaultPaymentMethod = "card"

// PaymentController records contributions and exposes the payment history
type PaymentController struct {
	payments repository.PaymentRepository
	stats    *statistics.Service
	now      func() time.Time
}

func NewPaymentController(d Deps) *PaymentController {
	return &PaymentController{
		payments: d.Repos.Payment,
		stats:    d.Stats,
		now:      d.Now,
	}
}

// Amount bounds are in cents; the upper one is money.MaxAmount.
type createPaymentRequest struct {
	Amount   money.Amount `json:"amount" validate:"gt=0,lte=100000000"`
	Currency string       `json:"currency" validate:"omitempty,len=3,alpha"`
	Method   string       `json:"method" validate:"omitempty,max=50"`
}

// HandleCreate appends a completed payment to the caller's ledger. There is no
// processor behind it and overpayment is accepted.
func (pc *PaymentController) HandleCreate(c *fiber.Ctx) error {
	var req createPaymentRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = money.DefaultCurrency
	}
	if !money.IsDefaultCurrency(currency) {
		return apperror.Validation("invalid request", apperror.FieldError{
			Field:   "currency",
			Tag:     "oneof",
			Message: "currency must be " + money.DefaultCurrency,
		})
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = defaultPaymentMethod
	}

	payment := &models.Payment{
		UserID:   usercontext.GetUserID(c),
		Amount:   req.Amount,
		Currency: currency,
		Status:   models.PAYMENT_STATUS_COMPLETED,
		Metadata: map[string]any{"method": method},
	}
	if err := pc.payments.Create(c.UserContext(), payment); err != nil {
		return apperror.Internal("failed to record payment", err)
	}

	metrics.ObservePayment(payment.Currency, payment.Amount.Cents())
	if pc.stats != nil {
		pc.stats.Invalidate(c.UserContext())
	}
	logger.L().Infow("payment recorded", "payment_id", payment.ID, "user_id", payment.UserID, "amount", payment.Amount.String(), "currency", payment.Currency)

	return c.Status(fiber.StatusCreated).JSON(payment)
}

// HandleStatus returns one payment to its owner or an admin.
func (pc *PaymentController) HandleStatus(c *fiber.Ctx) error {
	payment, err := pc.payments.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return notFoundOr(err, "payment not found", "failed to load payment")
	}

	userCtx := usercontext.GetUserContext(c)
	if payment.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return apperror.NotFound("payment not found")
	}
	return c.JSON(payment)
}

// HandleHistory lists the caller's payments with the completed total.
func (pc *PaymentController) HandleHistory(c *fiber.Ctx) error {
	payments, err := pc.payments.ListByUser(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return apperror.Internal("failed to load payments", err)
	}
	return c.JSON(fiber.Map{
		"payments":  payments,
		"totalPaid": coverage.SumCompleted(payments),
	})
}

// HandleAdminList is the paginated log of all payments.
func (pc *PaymentController) HandleAdminList(c *fiber.Ctx) error {
	page, limit, offset := pagination(c)
	payments, err := pc.payments.List(c.UserContext(), offset, limit)
	if err != nil {
		return apperror.Internal("failed to load payments", err)
	}
	return c.JSON(fiber.Map{
		"payments": payments,
		"page":     page,
		"limit":    limit,
	})
}

// HandleAdminExport downloads every payment as CSV.
func (pc *PaymentController) HandleAdminExport(c *fiber.Ctx) error {
	payments, err := pc.payments.List(c.UserContext(), 0, 0)
	if err != nil {
		return apperror.Internal("failed to load payments", err)
	}

	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		created := p.CreatedAt
		rows = append(rows, []string{
			p.ID,
			p.UserID,
			p.Amount.String(),
			p.Currency,
			p.Status,
			p.Method(),
			formatTimeCSV(&created),
		})
	}

	header := []string{"id", "user_id", "amount", "currency", "status", "method", "created_at"}
	return sendCSV(c, exportFilename("payments", pc.now()), header, rows)
}
