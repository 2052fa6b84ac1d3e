package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/voyageshield/voyageshield/internal/pkg/logger"
)

type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindAuthentication    Kind = "authentication_error"
	KindAuthorization     Kind = "authorization_error"
	KindNotFound          Kind = "not_found"
	KindNotOnboarded      Kind = "not_onboarded"
	KindPaymentIncomplete Kind = "payment_incomplete"
	KindConflict          Kind = "conflict"
	KindRateLimited       Kind = "rate_limited"
	KindInternal          Kind = "internal_error"
)

// FieldError is one field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error is a caller-facing failure with a machine readable kind.
type Error struct {
	Kind    Kind
	Message string
	Details []FieldError
	// Status overrides the default HTTP status of Kind when non-zero.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithStatus returns a copy that renders with the given HTTP status.
func (e *Error) WithStatus(status int) *Error {
	cp := *e
	cp.Status = status
	return &cp
}

// HTTPStatus returns the status this error renders with.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return StatusFor(e.Kind)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string, details ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Authentication(message string) *Error {
	return New(KindAuthentication, message)
}

func Authorization(message string) *Error {
	return New(KindAuthorization, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func NotOnboarded(message string) *Error {
	return New(KindNotOnboarded, message)
}

func PaymentIncomplete(message string) *Error {
	return New(KindPaymentIncomplete, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Internal hides err from the client; it is only logged.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// StatusFor maps a kind to its default HTTP status.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindPaymentIncomplete:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound, KindNotOnboarded:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return KindValidation
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindAuthorization
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindInternal
	}
}

// Handler is the Fiber ErrorHandler rendering every error as
// {"error", "kind", "details"}.
func Handler(c *fiber.Ctx, err error) error {
	var appErr *Error
	if !errors.As(err, &appErr) {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			appErr = &Error{Kind: kindForStatus(fiberErr.Code), Message: fiberErr.Message, Status: fiberErr.Code}
		} else {
			appErr = Internal("internal server error", err)
		}
	}

	// Messages are always ours; the wrapped cause is only logged.
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.L().Errorw("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	}

	body := fiber.Map{
		"error": appErr.Message,
		"kind":  appErr.Kind,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	return c.Status(status).JSON(body)
}
