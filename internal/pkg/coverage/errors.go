package coverage

import (
	"errors"
	"fmt"
)

// Each failure is a distinct sentinel so callers can tell "not paid yet"
// apart from "no such certificate".
var (
	ErrNotOnboarded          = errors.New("onboarding has not been completed")
	ErrPaymentIncomplete     = errors.New("payment for this policy is incomplete")
	ErrNotFullyPaid          = fmt.Errorf("plan is not fully paid: %w", ErrPaymentIncomplete)
	ErrCertificateNotFound   = errors.New("certificate not found")
	ErrMalformedPolicyNumber = errors.New("malformed policy number")
	ErrInvalidPolicyPrefix   = errors.New("policy prefix must be 1-10 letters or digits")
)
