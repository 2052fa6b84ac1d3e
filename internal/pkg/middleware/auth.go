package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
	"github.com/voyageshield/voyageshield/internal/pkg/security"
	"github.com/voyageshield/voyageshield/internal/pkg/usercontext"
)

// UserLookup resolves the account behind a token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// BearerAuth attaches the user context of a valid "Authorization: Bearer"
// token. Requests without a valid token continue as anonymous; RequireAuth
// decides whether that is acceptable. The role is always taken from the
// stored user, never from the token.
func BearerAuth(tokens *security.TokenManager, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		usercontext.Set(c, usercontext.UserContext{})

		raw := extractBearerToken(c)
		if raw == "" {
			return c.Next()
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			return c.Next()
		}

		user, err := users.GetByID(c.UserContext(), claims.UserID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.L().Errorw("failed to load token user", "user_id", claims.UserID, "error", err)
				return apperror.Internal("failed to load user", err)
			}
			return c.Next()
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID:     user.ID,
			Email:      user.Email,
			Role:       user.Role,
			IsLoggedIn: true,
			IsAdmin:    user.IsAdmin(),
		})
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return apperror.Authentication("missing or invalid authentication token")
	}
	return c.Next()
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return apperror.Authentication("missing or invalid authentication token")
	}
	if !userCtx.IsAdmin {
		return apperror.Authorization("admin access required")
	}
	return c.Next()
}
