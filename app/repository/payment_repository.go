package repository

import (
	"context"
	"fmt"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts a new payment row
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByUser returns all payments of a user, newest first
func (r *paymentRepository) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) ListCompletedByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.PAYMENT_STATUS_COMPLETED).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// List returns a page of all payments for the admin log
func (r *paymentRepository) List(ctx context.Context, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	q := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&payments).Error
	return payments, err
}

// SumCompletedByUsers returns the completed total per user in one query.
// Only payments in the plan currency count, as in coverage.SumCompleted.
func (r *paymentRepository) SumCompletedByUsers(ctx context.Context) (map[string]money.Amount, error) {
	var rows []struct {
		UserID string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("user_id, COALESCE(SUM(amount_cents), 0) AS total").
		Where("status = ? AND currency = ?", models.PAYMENT_STATUS_COMPLETED, money.DefaultCurrency).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum completed payments: %w", err)
	}

	totals := make(map[string]money.Amount, len(rows))
	for _, row := range rows {
		totals[row.UserID] = money.FromCents(row.Total)
	}
	return totals, nil
}
