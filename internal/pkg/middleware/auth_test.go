package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/security"
	"github.com/voyageshield/voyageshield/internal/pkg/usercontext"
)

type stubUsers map[string]*models.User

func (s stubUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestApp(t *testing.T, users stubUsers) (*fiber.App, *security.TokenManager) {
	t.Helper()
	tokens, err := security.NewTokenManager("middleware-secret", time.Hour)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler})
	app.Use(BearerAuth(tokens, users))
	app.Get("/me", RequireAuth, func(c *fiber.Ctx) error {
		return c.SendString(usercontext.GetUserID(c))
	})
	app.Get("/admin", RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, tokens
}

func doGet(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireAuth(t *testing.T) {
	users := stubUsers{"u1": {ID: "u1", Email: "a@b.co", Role: models.ROLE_TRAVELER}}
	app, tokens := newTestApp(t, users)

	assert.Equal(t, fiber.StatusUnauthorized, doGet(t, app, "/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, doGet(t, app, "/me", "garbage"))

	token, _, err := tokens.Issue("u1", "a@b.co", models.ROLE_TRAVELER)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, doGet(t, app, "/me", token))

	ghost, _, err := tokens.Issue("deleted", "x@y.z", models.ROLE_ADMIN)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, doGet(t, app, "/me", ghost))
}

func TestRequireAdmin(t *testing.T) {
	users := stubUsers{
		"u1": {ID: "u1", Role: models.ROLE_TRAVELER},
		"a1": {ID: "a1", Role: models.ROLE_ADMIN},
	}
	app, tokens := newTestApp(t, users)

	assert.Equal(t, fiber.StatusUnauthorized, doGet(t, app, "/admin", ""))

	// A forged role claim does not matter, the stored role wins.
	traveler, _, _ := tokens.Issue("u1", "", models.ROLE_ADMIN)
	assert.Equal(t, fiber.StatusForbidden, doGet(t, app, "/admin", traveler))

	admin, _, _ := tokens.Issue("a1", "", models.ROLE_ADMIN)
	assert.Equal(t, fiber.StatusNoContent, doGet(t, app, "/admin", admin))
}
