package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

type countingLister struct {
	plans []models.InsurancePlan
	calls int
}

func (c *countingLister) ListActive(context.Context) ([]models.InsurancePlan, error) {
	c.calls++
	return c.plans, nil
}

func samplePlans() []models.InsurancePlan {
	return []models.InsurancePlan{
		{ID: "basic-plan-id", Name: "Basic Coverage", Price: money.FromUnits(50), DurationDays: 30, Coverage: []string{"Medical"}, IsActive: true},
		{ID: "premium-plan-id", Name: "Premium Coverage", Price: money.FromUnits(150), DurationDays: 30, IsActive: true},
	}
}

func TestPlanCatalog_WithoutRedisReadsDatabase(t *testing.T) {
	lister := &countingLister{plans: samplePlans()}
	catalog := NewPlanCatalog(nil, lister)

	for i := 0; i < 3; i++ {
		plans, err := catalog.Active(context.Background())
		require.NoError(t, err)
		assert.Len(t, plans, 2)
	}
	assert.Equal(t, 3, lister.calls)
	catalog.Invalidate(context.Background())
}

func TestPlanCatalog_CachesUntilInvalidated(t *testing.T) {
	rdb := testRedis(t)
	lister := &countingLister{plans: samplePlans()}
	catalog := NewPlanCatalog(rdb, lister)
	ctx := context.Background()

	first, err := catalog.Active(ctx)
	require.NoError(t, err)
	second, err := catalog.Active(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, lister.calls)
	assert.Equal(t, first[0].Price, second[0].Price)
	assert.Equal(t, []string{"Medical"}, []string(second[0].Coverage))

	catalog.Invalidate(ctx)
	_, err = catalog.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, lister.calls)
}
