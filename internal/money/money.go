// Package money implements fixed-point currency arithmetic. All internal
// computation happens on integer minor units (cents) to avoid float drift;
// the public API speaks decimal major units for ergonomics.
package money

import (
	"laiaconnect/internal/common"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to cents, rounding half-up.
// Negative amounts are rejected with an INVALID_AMOUNT error.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, common.NewDomainError(common.KindInvalidAmount,
			"amount must not be negative", "amount", amount.String())
	}
	return amount.Mul(hundred).Round(0).IntPart(), nil
}

// ToMajorUnits converts cents back to a major-unit decimal. Exact.
func ToMajorUnits(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}

// WithVAT returns amount gross of VAT at the given rate (0.20 for the
// standard French rate), rounded half-up to two decimals.
func WithVAT(amount decimal.Decimal, rate decimal.Decimal) (decimal.Decimal, error) {
	return scale(amount, rate)
}

// ApplyServiceFee returns amount plus a proportional service fee, same
// rounding rule as WithVAT. A zero feeRate is a no-op.
func ApplyServiceFee(amount decimal.Decimal, feeRate decimal.Decimal) (decimal.Decimal, error) {
	return scale(amount, feeRate)
}

func scale(amount decimal.Decimal, rate decimal.Decimal) (decimal.Decimal, error) {
	cents, err := ToMinorUnits(amount)
	if err != nil {
		return decimal.Zero, err
	}
	scaled := decimal.NewFromInt(cents).Mul(decimal.NewFromInt(1).Add(rate)).Round(0)
	return scaled.Div(hundred), nil
}
