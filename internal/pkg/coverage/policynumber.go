package coverage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/voyageshield/voyageshield/app/models"
)

const (
	DefaultPolicyPrefix = "VS"
	maxPolicyPrefixLen  = 10
)

// ValidatePolicyPrefix rejects prefixes that would not survive a round trip
// through ParsePolicyNumber. Only ASCII letters and digits are allowed.
func ValidatePolicyPrefix(prefix string) error {
	if prefix == "" || len(prefix) > maxPolicyPrefixLen {
		return ErrInvalidPolicyPrefix
	}
	for i := 0; i < len(prefix); i++ {
		ch := prefix[i]
		if !('a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || '0' <= ch && ch <= '9') {
			return fmt.Errorf("%w: %q", ErrInvalidPolicyPrefix, prefix)
		}
	}
	return nil
}

// sanitizePolicyPrefix keeps the letters and digits of prefix, falling back
// to DefaultPolicyPrefix when nothing usable is left.
func sanitizePolicyPrefix(prefix string) string {
	var b strings.Builder
	for i := 0; i < len(prefix) && b.Len() < maxPolicyPrefixLen; i++ {
		ch := prefix[i]
		if 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || '0' <= ch && ch <= '9' {
			b.WriteByte(ch)
		}
	}
	if b.Len() == 0 {
		return DefaultPolicyPrefix
	}
	return b.String()
}

// PolicyNumber is the public lookup key of a certificate. Its text form is
// PREFIX-YEAR-USERID. The user id may itself contain dashes, so decoding
// splits on the first two dashes only and keeps the remainder verbatim.
type PolicyNumber struct {
	Prefix string
	Year   int
	UserID string
}

// PolicyNumberFor builds the policy number of a user. The year is the year the
// account was created, in UTC, so the number never changes once issued.
func PolicyNumberFor(prefix string, user *models.User) PolicyNumber {
	if prefix == "" {
		prefix = DefaultPolicyPrefix
	}
	return PolicyNumber{
		Prefix: prefix,
		Year:   user.CreatedAt.UTC().Year(),
		UserID: user.ID,
	}
}

// Encode renders the policy number. ParsePolicyNumber(p.Encode()) == p for
// every number with a dash-free prefix.
func (p PolicyNumber) Encode() string {
	return fmt.Sprintf("%s-%04d-%s", p.Prefix, p.Year, p.UserID)
}

func (p PolicyNumber) String() string {
	return p.Encode()
}

// ParsePolicyNumber decodes an externally supplied policy number.
func ParsePolicyNumber(s string) (PolicyNumber, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 3)
	if len(parts) < 3 {
		return PolicyNumber{}, fmt.Errorf("%w: expected PREFIX-YEAR-ID", ErrMalformedPolicyNumber)
	}

	prefix, yearPart, userID := parts[0], parts[1], parts[2]
	if prefix == "" || userID == "" {
		return PolicyNumber{}, fmt.Errorf("%w: empty segment", ErrMalformedPolicyNumber)
	}
	if len(yearPart) != 4 || strings.Trim(yearPart, "0123456789") != "" {
		return PolicyNumber{}, fmt.Errorf("%w: year must have four digits", ErrMalformedPolicyNumber)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return PolicyNumber{}, fmt.Errorf("%w: invalid year %q", ErrMalformedPolicyNumber, yearPart)
	}

	return PolicyNumber{Prefix: prefix, Year: year, UserID: userID}, nil
}
