package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
)

const (
	CacheKeyActivePlans   = "insurance:plans:active"
	ActivePlansExpiration = 10 * time.Minute
)

// ActivePlanLister is the source of truth behind the catalog cache.
type ActivePlanLister interface {
	ListActive(ctx context.Context) ([]models.InsurancePlan, error)
}

// PlanCatalog serves the public plan list from redis and falls back to the
// database whenever the cache is empty or unavailable.
type PlanCatalog struct {
	rdb   redis.Cmdable
	plans ActivePlanLister
	ttl   time.Duration
}

// NewPlanCatalog creates a catalog. rdb may be nil to disable caching.
func NewPlanCatalog(rdb redis.Cmdable, plans ActivePlanLister) *PlanCatalog {
	return &PlanCatalog{rdb: rdb, plans: plans, ttl: ActivePlansExpiration}
}

// Active returns the active plans, cheapest first.
func (p *PlanCatalog) Active(ctx context.Context) ([]models.InsurancePlan, error) {
	var cached []models.InsurancePlan
	err := GetJSON(ctx, p.rdb, CacheKeyActivePlans, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrMiss) {
		logger.L().Warnw("plan catalog cache read failed", "error", err)
	}

	plans, err := p.plans.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := SetJSON(ctx, p.rdb, CacheKeyActivePlans, plans, p.ttl); err != nil {
		logger.L().Warnw("plan catalog cache write failed", "error", err)
	}
	return plans, nil
}

// Invalidate drops the cached catalog after an admin change.
func (p *PlanCatalog) Invalidate(ctx context.Context) {
	if err := Invalidate(ctx, p.rdb, CacheKeyActivePlans); err != nil {
		logger.L().Warnw("plan catalog cache invalidation failed", "error", err)
	}
}
