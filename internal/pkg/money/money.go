// Package money represents currency amounts as integer minor units (cents)
// so that sums of many small contributions never drift.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultCurrency is used when a request does not name one. Plan prices are
// in this currency and only payments in it count toward a plan.
const DefaultCurrency = "USD"

// MaxAmount caps a single payment or plan price at 1,000,000.00. Request
// validators spell it in cents: lte=100000000.
const MaxAmount Amount = 100_000_000

// IsDefaultCurrency reports whether code names DefaultCurrency. An empty code
// is stored as the default.
func IsDefaultCurrency(code string) bool {
	code = strings.TrimSpace(code)
	return code == "" || strings.EqualFold(code, DefaultCurrency)
}

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a value in cents. It marshals to and from a JSON decimal number
// ("150", "150.5", "150.25") without passing through float64.
type Amount int64

// FromCents wraps a raw cent value.
func FromCents(c int64) Amount {
	return Amount(c)
}

// FromUnits converts whole currency units to an Amount.
func FromUnits(units int64) Amount {
	return Amount(units * 100)
}

func (a Amount) Cents() int64 {
	return int64(a)
}

func (a Amount) IsPositive() bool {
	return a > 0
}

// Add returns a+b, clamped to the int64 range instead of wrapping around.
func (a Amount) Add(b Amount) Amount {
	s := a + b
	switch {
	case b > 0 && s < a:
		return Amount(math.MaxInt64)
	case b < 0 && s > a:
		return Amount(math.MinInt64)
	}
	return s
}

// String renders the amount with exactly two fraction digits.
func (a Amount) String() string {
	c := int64(a)
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Format renders the amount for humans, e.g. "$150.00" or "EUR 12.50".
func Format(a Amount, currency string) string {
	switch strings.ToUpper(currency) {
	case "", "USD":
		if a < 0 {
			return "-$" + (-a).String()
		}
		return "$" + a.String()
	default:
		return strings.ToUpper(currency) + " " + a.String()
	}
}

// Parse reads a plain decimal string with at most two fraction digits.
// Exponents, thousands separators and more precision are rejected.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return 0, ErrInvalidAmount
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: more than two decimal places", ErrInvalidAmount)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)
	if units > (1<<62)/100 {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	total := units*100 + cents
	if neg {
		total = -total
	}
	return Amount(total), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Sum adds amounts in integer space, saturating like Add.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
