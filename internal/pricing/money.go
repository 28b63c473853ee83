package pricing

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// roundMoney rounds to cents, half away from zero.
func roundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// applyPercentOff returns price reduced by pct percent, never below zero.
func applyPercentOff(price, pct decimal.Decimal) decimal.Decimal {
	if !pct.IsPositive() {
		return price
	}
	factor := hundred.Sub(pct).Div(hundred)
	discounted := roundMoney(price.Mul(factor))
	if discounted.IsNegative() {
		return zero
	}
	return discounted
}

// percentInOpenRange reports 0 < pct < 100.
func percentInOpenRange(pct decimal.Decimal) bool {
	return pct.IsPositive() && pct.LessThan(hundred)
}
