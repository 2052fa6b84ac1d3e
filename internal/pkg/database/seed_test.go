package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

func TestSeedPlans_IsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seed_plans?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, SeedPlans(db))

	// admin edits survive a second seed
	require.NoError(t, db.Model(&models.InsurancePlan{}).Where("id = ?", "basic-plan-id").
		Update("price_cents", 4500).Error)
	require.NoError(t, SeedPlans(db))

	var plans []models.InsurancePlan
	require.NoError(t, db.Order("price_cents ASC").Find(&plans).Error)
	require.Len(t, plans, 3)
	assert.Equal(t, money.FromCents(4500), plans[0].Price)
	assert.Equal(t, "Premium Coverage", plans[1].Name)
	assert.Len(t, plans[2].Coverage, 8)
}
