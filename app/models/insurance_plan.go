package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

// InsurancePlan is a purchasable travel insurance product. Plans are never
// hard-deleted; admins deactivate them instead.
type InsurancePlan struct {
	ID           string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string                      `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Description  string                      `gorm:"type:text" json:"description" validate:"max=2000"`
	Price        money.Amount                `gorm:"column:price_cents;not null" json:"price" validate:"gt=0,lte=100000000"`
	DurationDays int                         `gorm:"column:duration;not null;default:30" json:"duration" validate:"gt=0,lte=3650"`
	Coverage     datatypes.JSONSlice[string] `gorm:"type:json" json:"coverage"`
	IsActive     bool                        `gorm:"default:true;index" json:"isActive"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *InsurancePlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *InsurancePlan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
