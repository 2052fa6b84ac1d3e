package coverage

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakePlans map[string]*models.InsurancePlan

func (f fakePlans) GetByID(_ context.Context, id string) (*models.InsurancePlan, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakePayments map[string][]models.Payment

func (f fakePayments) ListCompletedByUser(_ context.Context, userID string) ([]models.Payment, error) {
	return f[userID], nil
}

type failingPayments struct{}

func (failingPayments) ListCompletedByUser(context.Context, string) ([]models.Payment, error) {
	return nil, errors.New("connection refused")
}

var (
	fixedNow   = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	travelDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
)

func completed(userID string, units int64) models.Payment {
	return models.Payment{UserID: userID, Amount: money.FromUnits(units), Status: models.PAYMENT_STATUS_COMPLETED}
}

func onboardedUser(id string, travel time.Time) *models.User {
	u := &models.User{
		ID:        id,
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		CreatedAt: time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC),
	}
	u.CompleteOnboarding(models.Onboarded{
		Destination: "Japan",
		TravelDate:  travel,
		Purpose:     "leisure",
		PlanID:      "premium-plan-id",
		PaymentPlan: models.PAYMENT_PLAN_GRADUAL,
	})
	return u
}

func premiumPlan() *models.InsurancePlan {
	return &models.InsurancePlan{
		ID:           "premium-plan-id",
		Name:         "Premium Coverage",
		Price:        money.FromUnits(150),
		DurationDays: 30,
		Coverage:     []string{"Medical up to $100,000", "Trip cancellation"},
		IsActive:     true,
	}
}

func newTestService(users fakeUsers, payments PaymentLister) *Service {
	plan := premiumPlan()
	svc := NewService(users, fakePlans{plan.ID: plan}, payments, "")
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSumCompleted_IgnoresPending(t *testing.T) {
	payments := []models.Payment{
		completed("u1", 50),
		{UserID: "u1", Amount: money.FromUnits(70), Status: models.PAYMENT_STATUS_PENDING},
		completed("u1", 25),
	}
	assert.Equal(t, money.FromUnits(75), SumCompleted(payments))
	assert.Equal(t, money.Amount(0), SumCompleted(nil))
}

func TestLedgerTotalPaid(t *testing.T) {
	ledger := NewLedger(fakePayments{"u1": {completed("u1", 10), completed("u1", 15)}})

	total, err := ledger.TotalPaid(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, money.FromUnits(25), total)

	total, err = ledger.TotalPaid(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), total)
}

func TestSumCompleted_OnlyCountsPlanCurrency(t *testing.T) {
	yen := completed("u1", 150)
	yen.Currency = "JPY"
	usd := completed("u1", 20)
	usd.Currency = "usd"

	assert.Equal(t, money.FromUnits(20), SumCompleted([]models.Payment{yen, usd}))
}

func TestSumCompleted_DoesNotWrapAround(t *testing.T) {
	huge := models.Payment{UserID: "u1", Amount: money.FromCents(math.MaxInt64 / 2), Status: models.PAYMENT_STATUS_COMPLETED}
	total := SumCompleted([]models.Payment{huge, huge, huge})

	assert.Equal(t, money.FromCents(math.MaxInt64), total)
	assert.Equal(t, StatusFullyPaid, ComputeProgress(total, money.FromUnits(150)).Status)
}

func TestIssue_ForeignCurrencyDoesNotUnlock(t *testing.T) {
	user := onboardedUser("user-jpy", travelDate)
	yen := completed(user.ID, 150)
	yen.Currency = "JPY"
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{user.ID: {yen}})

	_, err := svc.Issue(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNotFullyPaid)

	_, err = svc.Verify(context.Background(), PolicyNumberFor("", user).Encode())
	assert.ErrorIs(t, err, ErrPaymentIncomplete)
}

func TestLedgerTotalPaid_SmallContributionsDoNotDrift(t *testing.T) {
	var payments []models.Payment
	for i := 0; i < 1000; i++ {
		payments = append(payments, models.Payment{UserID: "u1", Amount: money.FromCents(10), Status: models.PAYMENT_STATUS_COMPLETED})
	}
	total, err := NewLedger(fakePayments{"u1": payments}).TotalPaid(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, money.FromUnits(100), total)
}

func TestIssue_NoPaymentsIsIncomplete(t *testing.T) {
	user := onboardedUser("user-a", travelDate)
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{})

	_, err := svc.Issue(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNotFullyPaid)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)

	pn := PolicyNumberFor("", user).Encode()
	_, err = svc.Verify(context.Background(), pn)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)
	assert.NotErrorIs(t, err, ErrCertificateNotFound)
}

func TestIssue_ExactlyPaidBuildsCertificate(t *testing.T) {
	user := onboardedUser("user-b", travelDate)
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{
		user.ID: {completed(user.ID, 100), completed(user.ID, 50)},
	})

	cert, err := svc.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "VS-2025-user-b", cert.PolicyNumber)
	assert.Equal(t, "Jane Doe", cert.HolderName)
	assert.Equal(t, "Premium Coverage", cert.ProviderName)
	assert.Equal(t, money.FromUnits(150), cert.CoverageAmount)
	assert.Equal(t, travelDate.AddDate(0, 0, 30), cert.ExpiryDate)
	assert.Equal(t, user.CreatedAt, cert.IssueDate)
	assert.Equal(t, CertificateStatusActive, cert.Status)
	assert.False(t, cert.Verified)
	assert.Nil(t, cert.VerifiedAt)
}

func TestIssue_OverpaymentReportsPlanPrice(t *testing.T) {
	user := onboardedUser("user-c", travelDate)
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{
		user.ID: {completed(user.ID, 120), completed(user.ID, 80)},
	})

	cert, err := svc.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, money.FromUnits(150), cert.CoverageAmount)
}

func TestVerify_MalformedPolicyNumberIsNotFound(t *testing.T) {
	svc := newTestService(fakeUsers{}, fakePayments{})

	for _, input := range []string{"VS-2025", "VS", "", "VS-25-abc", "VS-20x5-abc", "VS-2025-", "-2025-abc"} {
		_, err := svc.Verify(context.Background(), input)
		assert.ErrorIs(t, err, ErrCertificateNotFound, "input %q", input)
	}
}

func TestVerify_UnknownUserIsNotFound(t *testing.T) {
	svc := newTestService(fakeUsers{}, fakePayments{})

	_, err := svc.Verify(context.Background(), "VS-2025-does-not-exist")
	assert.ErrorIs(t, err, ErrCertificateNotFound)
}

func TestVerify_ExpiredCertificateStillVerifies(t *testing.T) {
	user := onboardedUser("user-f", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{user.ID: {completed(user.ID, 150)}})

	cert, err := svc.Verify(context.Background(), PolicyNumberFor("", user).Encode())
	require.NoError(t, err)
	assert.True(t, cert.Verified)
	assert.True(t, cert.Expired)
	assert.Equal(t, CertificateStatusExpired, cert.Status)
	require.NotNil(t, cert.VerifiedAt)
	assert.Equal(t, fixedNow, *cert.VerifiedAt)
}

func TestVerify_RoundTripWithDashedUserID(t *testing.T) {
	user := onboardedUser("9b2f6c1e-4d3a-4b8e-a1f0-7c6d5e4b3a21", travelDate)
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{user.ID: {completed(user.ID, 150)}})

	issued, err := svc.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	verified, err := svc.Verify(context.Background(), issued.PolicyNumber)
	require.NoError(t, err)
	assert.Equal(t, issued.PolicyNumber, verified.PolicyNumber)
	assert.Equal(t, user.Email, verified.Email)
}

func TestVerify_Idempotent(t *testing.T) {
	user := onboardedUser("user-idem", travelDate)
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{user.ID: {completed(user.ID, 150)}})
	tick := fixedNow
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	pn := PolicyNumberFor("", user).Encode()
	first, err := svc.Verify(context.Background(), pn)
	require.NoError(t, err)
	second, err := svc.Verify(context.Background(), pn)
	require.NoError(t, err)

	assert.NotEqual(t, *first.VerifiedAt, *second.VerifiedAt)
	first.VerifiedAt, second.VerifiedAt = nil, nil
	assert.Equal(t, first, second)
}

func TestVerify_NotOnboardedIsNotFound(t *testing.T) {
	user := &models.User{ID: "user-new", Email: "new@example.com", CreatedAt: fixedNow}
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{user.ID: {completed(user.ID, 500)}})

	_, err := svc.Verify(context.Background(), "VS-2026-user-new")
	assert.ErrorIs(t, err, ErrCertificateNotFound)
	assert.ErrorIs(t, err, ErrNotOnboarded)

	_, err = svc.Issue(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNotOnboarded)
	assert.NotErrorIs(t, err, ErrCertificateNotFound)
}

func TestVerify_RejectsForeignPrefixAndWrongYear(t *testing.T) {
	user := onboardedUser("user-y", travelDate)
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{user.ID: {completed(user.ID, 150)}})

	_, err := svc.Verify(context.Background(), "XX-2025-user-y")
	assert.ErrorIs(t, err, ErrCertificateNotFound)

	_, err = svc.Verify(context.Background(), "VS-2024-user-y")
	assert.ErrorIs(t, err, ErrCertificateNotFound)

	_, err = svc.Verify(context.Background(), "vs-2025-user-y")
	assert.NoError(t, err)
}

func TestVerify_PendingPaymentsDoNotUnlock(t *testing.T) {
	user := onboardedUser("user-p", travelDate)
	svc := newTestService(fakeUsers{user.ID: user}, fakePayments{user.ID: {
		completed(user.ID, 100),
		{UserID: user.ID, Amount: money.FromUnits(50), Status: models.PAYMENT_STATUS_PENDING},
	}})

	_, err := svc.Verify(context.Background(), PolicyNumberFor("", user).Encode())
	assert.ErrorIs(t, err, ErrPaymentIncomplete)
}

func TestNewService_DashedPrefixStillRoundTrips(t *testing.T) {
	user := onboardedUser("0b6f-42aa", travelDate)
	plan := premiumPlan()
	svc := NewService(fakeUsers{user.ID: user}, fakePlans{plan.ID: plan}, fakePayments{user.ID: {completed(user.ID, 150)}}, "VS-EU")
	assert.Equal(t, "VSEU", svc.Prefix())

	issued, err := svc.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "VSEU-2025-0b6f-42aa", issued.PolicyNumber)

	verified, err := svc.Verify(context.Background(), issued.PolicyNumber)
	require.NoError(t, err)
	assert.Equal(t, issued.PolicyNumber, verified.PolicyNumber)
}

func TestNewService_UnusablePrefixFallsBackToDefault(t *testing.T) {
	for _, prefix := range []string{"", "---", " "} {
		svc := NewService(fakeUsers{}, fakePlans{}, fakePayments{}, prefix)
		assert.Equal(t, DefaultPolicyPrefix, svc.Prefix(), "prefix %q", prefix)
	}
}

func TestIssue_DeletedPlanCountsAsNotOnboarded(t *testing.T) {
	user := onboardedUser("user-d", travelDate)
	svc := NewService(fakeUsers{user.ID: user}, fakePlans{}, fakePayments{}, "VS")

	_, err := svc.Issue(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNotOnboarded)
}

func TestIssue_LedgerErrorPropagates(t *testing.T) {
	user := onboardedUser("user-e", travelDate)
	svc := newTestService(fakeUsers{user.ID: user}, failingPayments{})

	_, err := svc.Issue(context.Background(), user.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentIncomplete)
	assert.NotErrorIs(t, err, ErrCertificateNotFound)
}

func TestIssueFor_HolderNameFallsBackToEmail(t *testing.T) {
	user := onboardedUser("user-h", travelDate)
	user.FirstName, user.LastName = "  ", ""
	svc := newTestService(fakeUsers{}, fakePayments{})

	cert, err := svc.IssueFor(user, premiumPlan(), money.FromUnits(150))
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", cert.HolderName)
}

func TestExpiryDate_FallsBackToNow(t *testing.T) {
	assert.Equal(t, fixedNow.AddDate(0, 0, 7), ExpiryDate(time.Time{}, fixedNow, 7))
	assert.Equal(t, travelDate.AddDate(0, 0, 7), ExpiryDate(travelDate, fixedNow, 7))
}
