package repository

import (
	"context"

	"github.com/voyageshield/voyageshield/app/models"
	"gorm.io/gorm"
)

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, plan *models.InsurancePlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// GetByID returns the plan regardless of its active flag
func (r *planRepository) GetByID(ctx context.Context, id string) (*models.InsurancePlan, error) {
	var plan models.InsurancePlan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActive returns the purchasable catalog, cheapest first
func (r *planRepository) ListActive(ctx context.Context) ([]models.InsurancePlan, error) {
	var plans []models.InsurancePlan
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("price_cents ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) ListAll(ctx context.Context) ([]models.InsurancePlan, error) {
	var plans []models.InsurancePlan
	err := r.db.WithContext(ctx).Order("price_cents ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) Update(ctx context.Context, plan *models.InsurancePlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

// Deactivate soft-deletes a plan by clearing its active flag
func (r *planRepository) Deactivate(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Model(&models.InsurancePlan{}).Where("id = ?", id).Update("is_active", false)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
