package coverage

import (
	"context"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

// PaymentLister is the part of the payment store the ledger reads from.
type PaymentLister interface {
	ListCompletedByUser(ctx context.Context, userID string) ([]models.Payment, error)
}

// SumCompleted folds a user's payment facts into the amount actually paid.
// Only completed payments in the plan currency count, so the filter holds
// even when the store hands back more than it was asked for.
func SumCompleted(payments []models.Payment) money.Amount {
	var total money.Amount
	for _, p := range payments {
		if !p.IsCompleted() || p.Amount < 0 || !money.IsDefaultCurrency(p.Currency) {
			continue
		}
		total = total.Add(p.Amount)
	}
	return total
}

// Ledger computes totals over the append-only payment log. It never caches.
type Ledger struct {
	payments PaymentLister
}

func NewLedger(payments PaymentLister) *Ledger {
	return &Ledger{payments: payments}
}

// TotalPaid returns the sum of the user's completed payments. A user without
// payments, or one that does not exist, has paid zero.
func (l *Ledger) TotalPaid(ctx context.Context, userID string) (money.Amount, error) {
	payments, err := l.payments.ListCompletedByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return SumCompleted(payments), nil
}
