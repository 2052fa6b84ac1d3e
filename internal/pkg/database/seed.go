package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

// DefaultPlans is the catalog a fresh installation starts with. The same rows
// are inserted by migration 000001.
func DefaultPlans() []models.InsurancePlan {
	return []models.InsurancePlan{
		{
			ID:           "basic-plan-id",
			Name:         "Basic Coverage",
			Description:  "Essential travel insurance for budget travelers",
			Price:        money.FromUnits(50),
			DurationDays: 30,
			Coverage: []string{
				"Medical emergencies up to $50,000",
				"Trip cancellation",
				"Emergency evacuation",
			},
			IsActive: true,
		},
		{
			ID:           "premium-plan-id",
			Name:         "Premium Coverage",
			Description:  "Comprehensive protection for worry-free travel",
			Price:        money.FromUnits(150),
			DurationDays: 30,
			Coverage: []string{
				"Medical emergencies up to $250,000",
				"Trip cancellation and interruption",
				"Lost or delayed baggage",
				"Emergency evacuation",
				"24/7 travel assistance",
				"Adventure sports coverage",
			},
			IsActive: true,
		},
		{
			ID:           "luxury-plan-id",
			Name:         "Luxury Coverage",
			Description:  "Premium protection with exclusive benefits",
			Price:        money.FromUnits(300),
			DurationDays: 30,
			Coverage: []string{
				"Medical emergencies up to $1,000,000",
				"Trip cancellation and interruption",
				"Lost or delayed baggage",
				"Emergency evacuation",
				"24/7 concierge service",
				"Adventure sports coverage",
				"Rental car coverage",
				"Cancel for any reason",
			},
			IsActive: true,
		},
	}
}

// SeedPlans inserts the default plans that do not exist yet. Existing rows,
// including admin edits to them, are left alone.
func SeedPlans(db *gorm.DB) error {
	plans := DefaultPlans()
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&plans).Error; err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	return nil
}
