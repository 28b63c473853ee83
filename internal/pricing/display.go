package pricing

import (
	"github.com/shopspring/decimal"
)

var fractionLabels = []struct {
	fraction decimal.Decimal
	label    string
}{
	{decimal.RequireFromString("0.25"), "1/4"},
	{decimal.RequireFromString("0.5"), "1/2"},
	{decimal.RequireFromString("0.75"), "3/4"},
	{decimal.NewFromInt(1), "Entier"},
	{decimal.NewFromInt(2), "Double"},
}

// FractionLabel renders a section fraction for the storefront.
func FractionLabel(fraction decimal.Decimal) string {
	for _, candidate := range fractionLabels {
		if candidate.fraction.Equal(fraction) {
			return candidate.label
		}
	}
	return fraction.String() + "x"
}

// PricePer100g derives the indicative price per 100 g from a base price and
// weight. It is display-only and never used to resolve a price.
func PricePer100g(basePrice decimal.Decimal, baseGrams int) (decimal.Decimal, bool) {
	if baseGrams <= 0 || !basePrice.IsPositive() {
		return zero, false
	}
	return roundMoney(basePrice.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(baseGrams)))), true
}
