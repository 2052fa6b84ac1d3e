package statistics

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/app/repository"
	"github.com/voyageshield/voyageshield/internal/pkg/cache"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

const (
	CacheKeyAdminStats = "statistics:admin"
	CacheExpiration    = 60 * time.Second
)

// StatisticsData is the admin dashboard summary
type StatisticsData struct {
	TotalTravelers   int          `json:"totalTravelers"`
	RevenueCollected money.Amount `json:"revenueCollected"`
	ExpectedRevenue  money.Amount `json:"expectedRevenue"`
	Outstanding      money.Amount `json:"outstanding"`
	FullyPaid        int          `json:"fullyPaid"`
	Pending          int          `json:"pending"`
	CompletionRate   int          `json:"completionRate"`
	AveragePayment   money.Amount `json:"averagePayment"`
	GeneratedAt      time.Time    `json:"generatedAt"`
}

// Summarize computes the dashboard figures over a traveler list.
func Summarize(travelers []Traveler, now time.Time) StatisticsData {
	s := StatisticsData{TotalTravelers: len(travelers), GeneratedAt: now}
	for _, t := range travelers {
		s.RevenueCollected = s.RevenueCollected.Add(t.TotalPaid)
		if t.Plan != nil {
			s.ExpectedRevenue = s.ExpectedRevenue.Add(t.Plan.Price)
		}
		if t.Progress.FullyPaid {
			s.FullyPaid++
		}
	}
	s.Pending = s.TotalTravelers - s.FullyPaid
	if s.ExpectedRevenue > s.RevenueCollected {
		s.Outstanding = s.ExpectedRevenue - s.RevenueCollected
	}
	if s.TotalTravelers > 0 {
		n := int64(s.TotalTravelers)
		s.CompletionRate = int((200*int64(s.FullyPaid) + n) / (2 * n))
		rev := s.RevenueCollected.Cents()
		avg := rev / n
		if 2*(rev%n) >= n {
			avg++
		}
		s.AveragePayment = money.FromCents(avg)
	}
	return s
}

// Service loads traveler data from the repositories and caches the summary.
type Service struct {
	repos *repository.Repositories
	rdb   redis.Cmdable
	now   func() time.Time
}

// NewService creates a statistics service. rdb may be nil to disable caching.
func NewService(repos *repository.Repositories, rdb redis.Cmdable) *Service {
	return &Service{repos: repos, rdb: rdb, now: time.Now}
}

// Travelers returns every traveler with plan and payment progress, filtered
// by the repository level filter.
func (s *Service) Travelers(ctx context.Context, filter repository.UserFilter) ([]Traveler, error) {
	filter.Role = models.ROLE_TRAVELER
	users, err := s.repos.User.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	plans, err := s.repos.Plan.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.repos.Payment.SumCompletedByUsers(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTravelers(users, plans, totals), nil
}

// Get returns the admin summary, from cache when fresh.
func (s *Service) Get(ctx context.Context) (StatisticsData, error) {
	var cached StatisticsData
	err := cache.GetJSON(ctx, s.rdb, CacheKeyAdminStats, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.L().Warnw("statistics cache read failed", "error", err)
	}

	travelers, err := s.Travelers(ctx, repository.UserFilter{})
	if err != nil {
		return StatisticsData{}, err
	}
	stats := Summarize(travelers, s.now())

	if err := cache.SetJSON(ctx, s.rdb, CacheKeyAdminStats, stats, CacheExpiration); err != nil {
		logger.L().Warnw("statistics cache write failed", "error", err)
	}
	return stats, nil
}

// Invalidate drops the cached summary, e.g. after a new payment.
func (s *Service) Invalidate(ctx context.Context) {
	if err := cache.Invalidate(ctx, s.rdb, CacheKeyAdminStats); err != nil {
		logger.L().Warnw("statistics cache invalidation failed", "error", err)
	}
}
