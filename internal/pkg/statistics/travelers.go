package statistics

import (
	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/coverage"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

// Traveler is one row of the admin traveler overview.
type Traveler struct {
	User      models.User           `json:"user"`
	Plan      *models.InsurancePlan `json:"plan"`
	TotalPaid money.Amount          `json:"totalPaid"`
	Progress  coverage.Progress     `json:"progress"`
}

// BuildTravelers joins users with their selected plan and completed totals.
// Users without a known plan get a zero price and therefore not-started.
func BuildTravelers(users []models.User, plans []models.InsurancePlan, totals map[string]money.Amount) []Traveler {
	byID := make(map[string]*models.InsurancePlan, len(plans))
	for i := range plans {
		byID[plans[i].ID] = &plans[i]
	}

	out := make([]Traveler, 0, len(users))
	for _, u := range users {
		t := Traveler{User: u, TotalPaid: totals[u.ID]}
		var price money.Amount
		if u.SelectedPlanID != nil {
			if p, ok := byID[*u.SelectedPlanID]; ok {
				t.Plan = p
				price = p.Price
			}
		}
		t.Progress = coverage.ComputeProgress(t.TotalPaid, price)
		out = append(out, t)
	}
	return out
}

// FilterByStatus keeps travelers whose progress status matches. An empty
// status keeps everyone.
func FilterByStatus(travelers []Traveler, status coverage.Status) []Traveler {
	if status == "" {
		return travelers
	}
	out := make([]Traveler, 0, len(travelers))
	for _, t := range travelers {
		if t.Progress.Status == status {
			out = append(out, t)
		}
	}
	return out
}
