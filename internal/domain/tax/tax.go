package tax

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kiosk-pos/internal/domain/errs"
)

// Calculator converts a subtotal into the tax owed on it.
type Calculator interface {
	Tax(subtotal decimal.Decimal) decimal.Decimal
}

// InvalidRateError indicates a tax rate outside the accepted range.
type InvalidRateError struct {
	Rate decimal.Decimal
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("tax rate must not be negative, got %s", e.Rate)
}

// Is reports whether target is errs.ErrInvalidInput.
func (e *InvalidRateError) Is(target error) bool {
	return target == errs.ErrInvalidInput
}

var _ Calculator = (*FlatRate)(nil)

// FlatRate charges a fixed fraction of the subtotal, e.g. 0.06 for 6%.
type FlatRate struct {
	rate decimal.Decimal
}

// NewFlatRate returns a FlatRate calculator. Negative rates are rejected.
func NewFlatRate(rate decimal.Decimal) (*FlatRate, error) {
	if rate.IsNegative() {
		return nil, &InvalidRateError{Rate: rate}
	}
	return &FlatRate{rate: rate}, nil
}

// ParseRate parses a decimal rate string such as "0.06" into a FlatRate.
func ParseRate(s string) (*FlatRate, error) {
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(errs.Invalid("tax rate", err.Error()), "parse %q", s)
	}
	return NewFlatRate(rate)
}

// Tax returns subtotal * rate without rounding.
func (f *FlatRate) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(f.rate)
}

// Rate returns the configured rate.
func (f *FlatRate) Rate() decimal.Decimal {
	return f.rate
}
