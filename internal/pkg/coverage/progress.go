package coverage

import "github.com/voyageshield/voyageshield/internal/pkg/money"

type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusSaving     Status = "saving"
	StatusFullyPaid  Status = "fully-paid"
)

// Progress describes how far a traveler is towards their plan price.
type Progress struct {
	// Percent is round(100*paid/price) and may exceed 100 on overpayment.
	Percent int64 `json:"percent"`
	// DisplayPercent is clamped to 0..100 and reads 100 only when fully paid.
	DisplayPercent int          `json:"displayPercent"`
	Status         Status       `json:"status"`
	FullyPaid      bool         `json:"fullyPaid"`
	Remaining      money.Amount `json:"remaining"`
}

// IsFullyPaid is the one predicate that unlocks a certificate. It compares the
// exact amounts, never the rounded percentage.
func IsFullyPaid(paid, price money.Amount) bool {
	return price.IsPositive() && paid >= price
}

// ComputeProgress derives percent and status from the paid total and the plan
// price. A non-positive price yields 0% and not-started.
func ComputeProgress(paid, price money.Amount) Progress {
	if paid < 0 {
		paid = 0
	}
	if !price.IsPositive() {
		return Progress{Status: StatusNotStarted}
	}

	p := Progress{
		Percent:   roundPercent(paid.Cents(), price.Cents()),
		FullyPaid: IsFullyPaid(paid, price),
	}

	switch {
	case p.FullyPaid:
		p.Status = StatusFullyPaid
	case paid == 0:
		p.Status = StatusNotStarted
	default:
		p.Status = StatusSaving
	}

	display := p.Percent
	if display > 100 {
		display = 100
	}
	if display == 100 && !p.FullyPaid {
		display = 99
	}
	p.DisplayPercent = int(display)

	if !p.FullyPaid {
		p.Remaining = price - paid
	}
	return p
}

// roundPercent rounds half up in integer arithmetic; both inputs are >= 0 and
// price is > 0.
func roundPercent(paid, price int64) int64 {
	if paid > (1<<62)/200 {
		// Far beyond any realistic plan price; avoid overflowing 200*paid.
		return paid / price * 100
	}
	return (200*paid + price) / (2 * price)
}
