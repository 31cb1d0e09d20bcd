package resource

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CurrencySymbol is the fixed display currency of the platform
const CurrencySymbol = "₦"

// Money represents a monetary amount received from the backend.
// Amounts are decimal-safe and only ever formatted for display,
// never computed on.
type Money struct {
	amount decimal.Decimal
	valid  bool
}

// NewMoney parses a decimal amount string
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, errors.Wrap(err, "failed to parse monetary amount")
	}
	return Money{amount: d, valid: true}, nil
}

// IsZero reports whether the amount is unset or zero
func (m Money) IsZero() bool {
	return !m.valid || m.amount.IsZero()
}

// String returns the plain decimal representation
func (m Money) String() string {
	if !m.valid {
		return "0"
	}
	return m.amount.String()
}

// Display formats the amount with the currency symbol and thousands
// separators, e.g. ₦1,234,567.50
func (m Money) Display() string {
	fixed := "0.00"
	if m.valid {
		fixed = m.amount.StringFixed(2)
	}
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	parts := strings.SplitN(fixed, ".", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		// Out of int64 range, leave the integer part ungrouped
		return sign + CurrencySymbol + fixed
	}
	return sign + CurrencySymbol + humanize.Comma(whole) + "." + parts[1]
}

// UnmarshalJSON accepts both the string and number encodings the
// backend uses for monetary fields
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*m = Money{}
		return nil
	}
	s := string(b)
	if s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return errors.Wrap(err, "failed to unquote monetary value")
		}
		s = unquoted
	}
	if s == "" {
		*m = Money{}
		return nil
	}
	parsed, err := NewMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalJSON encodes the amount as a decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}
