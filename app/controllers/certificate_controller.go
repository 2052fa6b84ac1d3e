package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/voyageshield/voyageshield/internal/pkg/apperror"
	"github.com/voyageshield/voyageshield/internal/pkg/coverage"
	"github.com/voyageshield/voyageshield/internal/pkg/logger"
	"github.com/voyageshield/voyageshield/internal/pkg/metrics"
	"github.com/voyageshield/voyageshield/internal/pkg/usercontext"
)

// CertificateController serves certificates to owners and verifiers
type CertificateController struct {
	certificates *coverage.Service
}

func NewCertificateController(d Deps) *CertificateController {
	return &CertificateController{certificates: d.Certificates}
}

// HandleMine issues the caller's certificate.
func (cc *CertificateController) HandleMine(c *fiber.Ctx) error {
	cert, err := cc.certificates.Issue(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, coverage.ErrCertificateNotFound):
			return apperror.NotFound("user not found")
		case errors.Is(err, coverage.ErrNotOnboarded):
			return apperror.NotOnboarded("complete onboarding and select a plan first").WithStatus(fiber.StatusConflict)
		case errors.Is(err, coverage.ErrNotFullyPaid):
			return apperror.PaymentIncomplete("your plan is not fully paid yet")
		default:
			return apperror.Internal("failed to issue certificate", err)
		}
	}

	metrics.CertificatesIssued.Inc()
	return c.JSON(cert)
}

// HandleVerify is the public lookup by policy number. Expired certificates
// are returned with expired=true rather than as an error.
func (cc *CertificateController) HandleVerify(c *fiber.Ctx) error {
	policyNumber := c.Params("policyNumber")
	cert, err := cc.certificates.Verify(c.UserContext(), policyNumber)
	if err != nil {
		switch {
		case errors.Is(err, coverage.ErrCertificateNotFound):
			metrics.CertificateVerifications.WithLabelValues(metrics.OutcomeNotFound).Inc()
			return apperror.NotFound("certificate not found")
		case errors.Is(err, coverage.ErrPaymentIncomplete):
			metrics.CertificateVerifications.WithLabelValues(metrics.OutcomePaymentIncomplete).Inc()
			return apperror.PaymentIncomplete("payment for this policy is incomplete")
		default:
			metrics.CertificateVerifications.WithLabelValues(metrics.OutcomeError).Inc()
			return apperror.Internal("failed to verify certificate", err)
		}
	}

	metrics.CertificateVerifications.WithLabelValues(metrics.OutcomeVerified).Inc()
	logger.L().Infow("certificate verified", "policy_number", cert.PolicyNumber, "client_ip", c.IP(), "expired", cert.Expired)
	return c.JSON(cert)
}
