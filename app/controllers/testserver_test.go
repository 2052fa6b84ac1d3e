package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/app/repository"
	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/cache"
	"github.com/voyageshield/voyageshield/internal/pkg/coverage"
	"github.com/voyageshield/voyageshield/internal/pkg/middleware"
	"github.com/voyageshield/voyageshield/internal/pkg/money"
	"github.com/voyageshield/voyageshield/internal/pkg/security"
	"github.com/voyageshield/voyageshield/internal/pkg/statistics"
)

var fixedNow = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

type sentMail struct {
	To, Subject, Body string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testServer struct {
	app    *fiber.App
	ctrl   *Container
	repos  *repository.Repositories
	tokens *security.TokenManager
	mailer *captureMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.InsurancePlan{}, &models.Payment{}, &models.InsurancePolicy{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tokens, err := security.NewTokenManager("controller-test-secret", time.Hour)
	require.NoError(t, err)

	repos := repository.NewRepositories(db)
	mailer := &captureMailer{}
	ctrl := NewContainer(Deps{
		Repos:        repos,
		Certificates: coverage.NewService(repos.User, repos.Plan, repos.Payment, coverage.DefaultPolicyPrefix),
		Catalog:      cache.NewPlanCatalog(nil, repos.Plan),
		Stats:        statistics.NewService(repos, nil),
		Tokens:       tokens,
		Mailer:       mailer,
		Now:          func() time.Time { return fixedNow },
	})

	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler})
	app.Use(middleware.BearerAuth(tokens, repos.User))

	api := app.Group("/api")
	api.Post("/auth/register", ctrl.Auth.HandleRegister)
	api.Post("/auth/login", ctrl.Auth.HandleLogin)
	api.Post("/auth/verify-email", ctrl.Auth.HandleVerifyEmail)
	api.Post("/auth/resend-verification", ctrl.Auth.HandleResendVerification)
	api.Get("/auth/profile", middleware.RequireAuth, ctrl.Auth.HandleProfile)

	api.Put("/user/onboarding", middleware.RequireAuth, ctrl.User.HandleOnboarding)
	api.Get("/user/dashboard", middleware.RequireAuth, ctrl.User.HandleDashboard)

	api.Get("/insurance/options", ctrl.Insurance.HandleOptions)
	api.Post("/insurance/policy", middleware.RequireAuth, ctrl.Insurance.HandleCreatePolicy)
	api.Get("/insurance/policies", middleware.RequireAuth, ctrl.Insurance.HandleListPolicies)
	api.Get("/insurance/plans", middleware.RequireAdmin, ctrl.Insurance.HandleListPlans)
	api.Post("/insurance/plans", middleware.RequireAdmin, ctrl.Insurance.HandleCreatePlan)
	api.Put("/insurance/plans/:id", middleware.RequireAdmin, ctrl.Insurance.HandleUpdatePlan)
	api.Delete("/insurance/plans/:id", middleware.RequireAdmin, ctrl.Insurance.HandleDeactivatePlan)
	api.Get("/insurance/admin/users", middleware.RequireAdmin, ctrl.Insurance.HandleAdminUsers)
	api.Get("/insurance/admin/users/export.csv", middleware.RequireAdmin, ctrl.Insurance.HandleAdminUsersExport)

	api.Post("/payments", middleware.RequireAuth, ctrl.Payment.HandleCreate)
	api.Get("/payments/user/history", middleware.RequireAuth, ctrl.Payment.HandleHistory)
	api.Get("/payments/admin/all", middleware.RequireAdmin, ctrl.Payment.HandleAdminList)
	api.Get("/payments/admin/export.csv", middleware.RequireAdmin, ctrl.Payment.HandleAdminExport)
	api.Get("/payments/:id", middleware.RequireAuth, ctrl.Payment.HandleStatus)

	api.Get("/certificates/me", middleware.RequireAuth, ctrl.Certificate.HandleMine)
	api.Get("/certificates/verify/:policyNumber", ctrl.Certificate.HandleVerify)

	api.Get("/admin/stats", middleware.RequireAdmin, ctrl.Admin.HandleStats)

	return &testServer{app: app, ctrl: ctrl, repos: repos, tokens: tokens, mailer: mailer}
}

// createUser stores a user directly and returns it with a bearer token.
func (s *testServer) createUser(t *testing.T, email, role string) (*models.User, string) {
	t.Helper()
	user, err := models.NewUser(email, "secret123", "Ada", "Lovelace", "")
	require.NoError(t, err)
	user.Role = role
	require.NoError(t, s.repos.User.Create(context.Background(), user))

	token, _, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return user, token
}

func (s *testServer) createPlan(t *testing.T, name string, cents int64) *models.InsurancePlan {
	t.Helper()
	plan := &models.InsurancePlan{
		Name:         name,
		Price:        money.FromCents(cents),
		DurationDays: 30,
		Coverage:     []string{"Medical emergencies", "Trip cancellation"},
		IsActive:     true,
	}
	require.NoError(t, s.repos.Plan.Create(context.Background(), plan))
	return plan
}

func (s *testServer) onboard(t *testing.T, token, planID string) {
	t.Helper()
	status, body := s.do(t, "PUT", "/api/user/onboarding", token, map[string]any{
		"destination":    "Japan",
		"travelDate":     "2026-03-01T00:00:00Z",
		"purpose":        "Leisure",
		"selectedPlanId": planID,
		"paymentPlan":    "gradual",
	})
	require.Equal(t, fiber.StatusOK, status, string(body))
}

func (s *testServer) pay(t *testing.T, token string, amount string) map[string]any {
	t.Helper()
	status, body := s.do(t, "POST", "/api/payments", token, json.RawMessage(fmt.Sprintf(`{"amount": %s}`, amount)))
	require.Equal(t, fiber.StatusCreated, status, string(body))
	return decodeObject(t, body)
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func decodeObject(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func decodeList(t *testing.T, body []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}
