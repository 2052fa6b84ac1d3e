package controllers

import (
	"context"
	"time"

	"github.com/voyageshield/voyageshield/app/repository"
	"github.com/voyageshield/voyageshield/internal/pkg/cache"
	"github.com/voyageshield/voyageshield/internal/pkg/coverage"
	"github.com/voyageshield/voyageshield/internal/pkg/mail"
	"github.com/voyageshield/voyageshield/internal/pkg/security"
	"github.com/voyageshield/voyageshield/internal/pkg/statistics"
)

// CaptchaVerifier checks a client captcha token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Deps are the services shared by all API controllers.
type Deps struct {
	Repos        *repository.Repositories
	Certificates *coverage.Service
	Catalog      *cache.PlanCatalog
	Stats        *statistics.Service
	Tokens       *security.TokenManager
	Mailer       mail.Mailer
	// AsyncMailer delivers mail that may be retried later; defaults to Mailer.
	AsyncMailer  mail.Mailer
	// Captcha guards registration when set.
	Captcha      CaptchaVerifier
	Now          func() time.Time
}

// Container holds one instance of every API controller.
type Container struct {
	Auth        *AuthController
	User        *UserController
	Insurance   *InsuranceController
	Payment     *PaymentController
	Certificate *CertificateController
	Admin       *AdminController
}

// NewContainer wires all controllers from shared dependencies.
func NewContainer(d Deps) *Container {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Mailer == nil {
		d.Mailer = mail.LogMailer{}
	}
	if d.AsyncMailer == nil {
		d.AsyncMailer = d.Mailer
	}
	return &Container{
		Auth:        NewAuthController(d),
		User:        NewUserController(d),
		Insurance:   NewInsuranceController(d),
		Payment:     NewPaymentController(d),
		Certificate: NewCertificateController(d),
		Admin:       NewAdminController(d),
	}
}
