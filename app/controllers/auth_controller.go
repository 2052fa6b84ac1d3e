package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/voyageshield/voyageshield/app/models"
	"github.com/voyageshield/voyageshield/app/repository"
	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
	"github.com/voyageshield/voyageshield/internal/pkg/mail"
	"github.com/voyageshield/voyageshield/internal/pkg/metrics"
	"github.com/voyageshield/voyageshield/internal/pkg/security"
	"github.com/voyageshield/voyageshield/internal/pkg/usercontext"
	"github.com/voyageshield/voyageshield/internal/pkg/validation"
)

// AuthController handles registration, login and email verification
type AuthController struct {
	users   repository.UserRepository
	tokens  *security.TokenManager
	mailer  mail.Mailer
	queued  mail.Mailer
	captcha CaptchaVerifier
	now     func() time.Time
}

func NewAuthController(d Deps) *AuthController {
	return &AuthController{
		users:   d.Repos.User,
		tokens:  d.Tokens,
		mailer:  d.Mailer,
		queued:  d.AsyncMailer,
		captcha: d.Captcha,
		now:     d.Now,
	}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=200"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=50"`

	// only checked when a captcha verifier is configured
	CaptchaToken string `json:"captchaToken"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type resendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleRegister creates an unverified traveler and mails the verification
// code. A mail failure does not fail the registration.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	if ac.captcha != nil {
		if err := ac.captcha.Verify(ctx, req.CaptchaToken, c.IP()); err != nil {
			logger.L().Infow("registration captcha rejected", "client_ip", c.IP(), "error", err)
			return apperror.Validation("invalid request", apperror.FieldError{
				Field:   "captchaToken",
				Tag:     "captcha",
				Message: "captcha verification failed",
			})
		}
	}

	if _, err := ac.users.GetByEmail(ctx, req.Email); err == nil {
		return apperror.Conflict("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Internal("failed to check email", err)
	}

	user, err := models.NewUser(req.Email, req.Password, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		return apperror.Internal("failed to create user", err)
	}
	if err := ac.users.Create(ctx, user); err != nil {
		return apperror.Internal("failed to create user", err)
	}
	metrics.Registrations.Inc()

	ac.sendVerification(user)

	token, expiresAt, err := ac.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return apperror.Internal("failed to issue token", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":      user,
		"token":     token,
		"expiresAt": expiresAt,
		"message":   "Registration successful. Please check your email for the verification code.",
	})
}

// HandleLogin exchanges credentials for a bearer token.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	user, err := ac.users.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Authentication("invalid credentials")
		}
		return apperror.Internal("failed to load user", err)
	}
	if !user.CheckPassword(req.Password) {
		return apperror.Authentication("invalid credentials")
	}

	token, expiresAt, err := ac.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return apperror.Internal("failed to issue token", err)
	}

	return c.JSON(fiber.Map{
		"user":      user,
		"token":     token,
		"expiresAt": expiresAt,
	})
}

func (ac *AuthController) HandleProfile(c *fiber.Ctx) error {
	user, err := ac.users.GetByID(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return notFoundOr(err, "user not found", "failed to load user")
	}
	return c.JSON(user)
}

// HandleVerifyEmail checks the emailed code and sends the welcome mail.
func (ac *AuthController) HandleVerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	user, err := ac.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return notFoundOr(err, "user not found", "failed to load user")
	}

	if err := user.VerifyEmail(req.Code, ac.now()); err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyVerified):
			return apperror.Validation("email already verified")
		case errors.Is(err, models.ErrCodeExpired):
			return apperror.Validation("verification code expired, please request a new one")
		default:
			return apperror.Validation("invalid verification code")
		}
	}
	if err := ac.users.Update(ctx, user); err != nil {
		return apperror.Internal("failed to verify email", err)
	}

	if subject, body, err := mail.WelcomeEmail(user.FirstName); err != nil {
		logger.L().Errorw("failed to render welcome email", "error", err)
	} else if err := ac.queued.Send(user.Email, subject, body); err != nil {
		logger.L().Warnw("failed to send welcome email", "user_id", user.ID, "error", err)
	}

	return c.JSON(fiber.Map{
		"user":    user,
		"message": "Email verified successfully!",
	})
}

// HandleResendVerification issues a fresh code. Unlike registration this
// fails when the mail cannot be delivered.
func (ac *AuthController) HandleResendVerification(c *fiber.Ctx) error {
	var req resendVerificationRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	user, err := ac.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return notFoundOr(err, "user not found", "failed to load user")
	}
	if user.IsEmailVerified {
		return apperror.Validation("email already verified")
	}

	if err := user.IssueVerificationCode(ac.now()); err != nil {
		return apperror.Internal("failed to generate verification code", err)
	}
	if err := ac.users.Update(ctx, user); err != nil {
		return apperror.Internal("failed to store verification code", err)
	}

	subject, body, err := mail.VerificationEmail(user.FirstName, user.VerificationCode, int(models.VerificationCodeTTL/time.Hour))
	if err != nil {
		return apperror.Internal("failed to send verification email", err)
	}
	if err := ac.mailer.Send(user.Email, subject, body); err != nil {
		return apperror.Internal("failed to send verification email", err)
	}

	return c.JSON(fiber.Map{"message": "Verification code sent successfully"})
}

func (ac *AuthController) sendVerification(user *models.User) {
	subject, body, err := mail.VerificationEmail(user.FirstName, user.VerificationCode, int(models.VerificationCodeTTL/time.Hour))
	if err != nil {
		logger.L().Errorw("failed to render verification email", "error", err)
		return
	}
	if err := ac.queued.Send(user.Email, subject, body); err != nil {
		logger.L().Warnw("failed to send verification email", "user_id", user.ID, "error", err)
	}
}
