package settlement

import (
	"github.com/shopspring/decimal"
)

// DiscountPolicy supplies the early-settlement discount for a selected
// principal. Implementations come from merchant configuration; the calculator
// only relies on the result being deterministic and clamps it into
// [0, principal] regardless.
type DiscountPolicy interface {
	Discount(principal decimal.Decimal, daysRemaining int) decimal.Decimal
}

// RateDiscountPolicy applies a flat rate to the selected principal.
type RateDiscountPolicy struct {
	Rate decimal.Decimal
}

func (p RateDiscountPolicy) Discount(principal decimal.Decimal, daysRemaining int) decimal.Decimal {
	return principal.Mul(p.Rate).Round(2)
}

// TimeDecayDiscountPolicy scales a base rate by the share of the settlement
// horizon still remaining, so paying off earlier earns a larger discount. The
// scale is capped at 1 when more than a full horizon remains.
type TimeDecayDiscountPolicy struct {
	Rate        decimal.Decimal
	HorizonDays int
}

func (p TimeDecayDiscountPolicy) Discount(principal decimal.Decimal, daysRemaining int) decimal.Decimal {
	if p.HorizonDays <= 0 || daysRemaining <= 0 {
		return decimal.Zero
	}

	scale := decimal.NewFromInt(int64(daysRemaining)).Div(decimal.NewFromInt(int64(p.HorizonDays)))
	if scale.GreaterThan(decimal.NewFromInt(1)) {
		scale = decimal.NewFromInt(1)
	}

	return principal.Mul(p.Rate).Mul(scale).Round(2)
}

// clampDiscount enforces the policy boundary contract: the discount is never
// negative and never exceeds the principal it applies to.
func clampDiscount(discount, principal decimal.Decimal) decimal.Decimal {
	if discount.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if discount.GreaterThan(principal) {
		return principal
	}
	return discount
}
