package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	POLICY_STATUS_ACTIVE    = "active"
	POLICY_STATUS_CANCELLED = "cancelled"
)

// InsurancePolicy records that a completed payment bought coverage under a plan.
type InsurancePolicy struct {
	ID        string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string            `gorm:"type:varchar(36);not null;index" json:"userId"`
	PlanID    string            `gorm:"type:varchar(36);not null;index" json:"planId"`
	PaymentID string            `gorm:"type:varchar(36);not null;index" json:"paymentId"`
	StartDate time.Time         `gorm:"not null" json:"startDate"`
	EndDate   time.Time         `gorm:"not null" json:"endDate"`
	Status    string            `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *InsurancePolicy) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = POLICY_STATUS_ACTIVE
	}
	return nil
}
