package repository

import (
	"context"

	"github.com/voyageshield/voyageshield/app/models"
	"gorm.io/gorm"
)

type policyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db: db}
}

func (r *policyRepository) Create(ctx context.Context, policy *models.InsurancePolicy) error {
	return r.db.WithContext(ctx).Create(policy).Error
}

func (r *policyRepository) ListByUser(ctx context.Context, userID string) ([]models.InsurancePolicy, error) {
	var policies []models.InsurancePolicy
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("start_date DESC").Find(&policies).Error
	return policies, err
}
