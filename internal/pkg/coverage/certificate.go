package coverage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

const (
	CertificateStatusActive  = "active"
	CertificateStatusExpired = "expired"
)

// UserStore is the part of the user repository the certificate service needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// PlanStore is the part of the plan repository the certificate service needs.
type PlanStore interface {
	GetByID(ctx context.Context, id string) (*models.InsurancePlan, error)
}

// Certificate is computed on every request from the user, their selected plan
// and their completed payments. It is never stored.
type Certificate struct {
	PolicyNumber   string       `json:"policyNumber"`
	HolderName     string       `json:"holderName"`
	Email          string       `json:"email"`
	Destination    string       `json:"destination"`
	Purpose        string       `json:"purpose"`
	ProviderName   string       `json:"providerName"`
	CoverageAmount money.Amount `json:"coverageAmount"`
	Coverage       []string     `json:"coverage"`
	Duration       int          `json:"duration"`
	IssueDate      time.Time    `json:"issueDate"`
	ExpiryDate     time.Time    `json:"expiryDate"`
	Status         string       `json:"status"`
	Expired        bool         `json:"expired"`
	Verified       bool         `json:"verified"`
	VerifiedAt     *time.Time   `json:"verifiedAt,omitempty"`
}

// Service issues certificates to their owners and verifies them for anyone
// holding a policy number.
type Service struct {
	users  UserStore
	plans  PlanStore
	ledger *Ledger
	prefix string
	now    func() time.Time
}

// NewService creates a certificate service from injected stores. A prefix
// that fails ValidatePolicyPrefix is reduced to its letters and digits.
func NewService(users UserStore, plans PlanStore, payments PaymentLister, prefix string) *Service {
	if ValidatePolicyPrefix(prefix) != nil {
		prefix = sanitizePolicyPrefix(prefix)
	}
	return &Service{
		users:  users,
		plans:  plans,
		ledger: NewLedger(payments),
		prefix: prefix,
		now:    time.Now,
	}
}

// Ledger exposes the payment ledger the service gates on.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Prefix is the policy number prefix this service issues and accepts.
func (s *Service) Prefix() string {
	return s.prefix
}

// Issue builds the certificate of an authenticated user.
func (s *Service) Issue(ctx context.Context, userID string) (*Certificate, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}

	onboarded, ok := user.Onboarding()
	if !ok {
		return nil, ErrNotOnboarded
	}

	plan, err := s.plans.GetByID(ctx, onboarded.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOnboarded
		}
		return nil, err
	}

	paid, err := s.ledger.TotalPaid(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return s.IssueFor(user, plan, paid)
}

// IssueFor applies the issuing rules to already loaded data.
func (s *Service) IssueFor(user *models.User, plan *models.InsurancePlan, paid money.Amount) (*Certificate, error) {
	onboarded, ok := user.Onboarding()
	if !ok || plan == nil {
		return nil, ErrNotOnboarded
	}
	if !ComputeProgress(paid, plan.Price).FullyPaid {
		return nil, ErrNotFullyPaid
	}
	return s.build(user, onboarded, plan), nil
}

// Verify resolves a public policy number to a certificate. Payment state is
// always recomputed from the ledger. An expired certificate is still returned.
func (s *Service) Verify(ctx context.Context, policyNumber string) (*Certificate, error) {
	pn, err := ParsePolicyNumber(policyNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCertificateNotFound, err)
	}
	if !strings.EqualFold(pn.Prefix, s.prefix) {
		return nil, ErrCertificateNotFound
	}

	user, err := s.users.GetByID(ctx, pn.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}
	if user.CreatedAt.UTC().Year() != pn.Year {
		return nil, ErrCertificateNotFound
	}

	onboarded, ok := user.Onboarding()
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrCertificateNotFound, ErrNotOnboarded)
	}

	plan, err := s.plans.GetByID(ctx, onboarded.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}

	paid, err := s.ledger.TotalPaid(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !ComputeProgress(paid, plan.Price).FullyPaid {
		return nil, ErrPaymentIncomplete
	}

	cert := s.build(user, onboarded, plan)
	verifiedAt := s.now()
	cert.Verified = true
	cert.VerifiedAt = &verifiedAt
	return cert, nil
}

func (s *Service) build(user *models.User, onboarded models.Onboarded, plan *models.InsurancePlan) *Certificate {
	now := s.now()
	expiry := ExpiryDate(onboarded.TravelDate, now, plan.DurationDays)

	cert := &Certificate{
		PolicyNumber:   PolicyNumberFor(s.prefix, user).Encode(),
		HolderName:     user.HolderName(),
		Email:          user.Email,
		Destination:    onboarded.Destination,
		Purpose:        onboarded.Purpose,
		ProviderName:   plan.Name,
		CoverageAmount: plan.Price,
		Coverage:       append([]string(nil), plan.Coverage...),
		Duration:       plan.DurationDays,
		IssueDate:      user.CreatedAt,
		ExpiryDate:     expiry,
		Status:         CertificateStatusActive,
	}
	if expiry.Before(now) {
		cert.Expired = true
		cert.Status = CertificateStatusExpired
	}
	return cert
}

// ExpiryDate is the travel date plus the plan duration in days. A zero travel
// date starts the coverage at now.
func ExpiryDate(travelDate, now time.Time, durationDays int) time.Time {
	start := travelDate
	if start.IsZero() {
		start = now
	}
	return start.AddDate(0, 0, durationDays)
}
