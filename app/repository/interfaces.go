package repository

import (
	"context"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
	"gorm.io/gorm"
)

// UserFilter narrows admin user listings. Empty fields match everything.
type UserFilter struct {
	PlanID      string
	Destination string
	Role        string
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// PlanRepository defines the interface for insurance plan operations
type PlanRepository interface {
	Create(ctx context.Context, plan *models.InsurancePlan) error
	GetByID(ctx context.Context, id string) (*models.InsurancePlan, error)
	ListActive(ctx context.Context) ([]models.InsurancePlan, error)
	ListAll(ctx context.Context) ([]models.InsurancePlan, error)
	Update(ctx context.Context, plan *models.InsurancePlan) error
	Deactivate(ctx context.Context, id string) error
}

// PaymentRepository defines the interface for the append-only payment ledger.
// There is deliberately no Update or Delete.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Payment, error)
	ListCompletedByUser(ctx context.Context, userID string) ([]models.Payment, error)
	List(ctx context.Context, offset, limit int) ([]models.Payment, error)
	SumCompletedByUsers(ctx context.Context) (map[string]money.Amount, error)
}

// PolicyRepository defines the interface for persisted insurance policies
type PolicyRepository interface {
	Create(ctx context.Context, policy *models.InsurancePolicy) error
	ListByUser(ctx context.Context, userID string) ([]models.InsurancePolicy, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Plan    PlanRepository
	Payment PaymentRepository
	Policy  PolicyRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Plan:    NewPlanRepository(db),
		Payment: NewPaymentRepository(db),
		Policy:  NewPolicyRepository(db),
	}
}
