package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/db/models"
)

// ApplyLadder discounts unitPrice by the rule with the largest breakpoint not
// exceeding quantity. Without a matching rule the price is returned as is with
// a zero percentage.
func ApplyLadder(unitPrice decimal.Decimal, quantity int, rules []models.QuantityDiscountRule) (decimal.Decimal, decimal.Decimal) {
	rule, ok := ResolveTier(rules, quantity)
	if !ok || !percentInOpenRange(rule.PercentOff) {
		return unitPrice, zero
	}
	return applyPercentOff(unitPrice, rule.PercentOff), rule.PercentOff
}

// LadderHint describes the next ladder rung a customer can reach.
type LadderHint struct {
	BreakpointQty int             `json:"breakpoint_qty"`
	PercentOff    decimal.Decimal `json:"percent_off"`
	Remaining     int             `json:"remaining"`
}

// NextLadderRule returns the next rung above quantity and how many more units
// are needed to reach it.
func NextLadderRule(quantity int, rules []models.QuantityDiscountRule) (LadderHint, bool) {
	rule, ok := NextTier(rules, quantity)
	if !ok {
		return LadderHint{}, false
	}
	return LadderHint{
		BreakpointQty: rule.BreakpointQty,
		PercentOff:    rule.PercentOff,
		Remaining:     rule.BreakpointQty - quantity,
	}, true
}
