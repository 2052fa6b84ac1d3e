package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

const (
	PAYMENT_STATUS_PENDING   = "pending"
	PAYMENT_STATUS_COMPLETED = "completed"
)

// Payment is a single contribution toward a plan. Rows are inserted once and
// never updated; balances are always recomputed from them.
type Payment struct {
	ID        string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string            `gorm:"type:varchar(36);not null;index:idx_payments_user_status,priority:1" json:"userId"`
	Amount    money.Amount      `gorm:"column:amount_cents;not null" json:"amount"`
	Currency  string            `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status    string            `gorm:"type:varchar(20);not null;default:'pending';index:idx_payments_user_status,priority:2" json:"status"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Currency == "" {
		p.Currency = money.DefaultCurrency
	}
	if p.Status == "" {
		p.Status = PAYMENT_STATUS_PENDING
	}
	return nil
}

func (p *Payment) IsCompleted() bool {
	return p.Status == PAYMENT_STATUS_COMPLETED
}

// Method returns the payment method label stored in metadata, if any.
func (p *Payment) Method() string {
	if p.Metadata == nil {
		return ""
	}
	if m, ok := p.Metadata["method"].(string); ok {
		return m
	}
	return ""
}
