package enums

// QuoteWarningType tags non-fatal issues surfaced alongside a price quote.
type QuoteWarningType string

const (
	QuoteWarningPricingFallback  QuoteWarningType = "pricing_fallback"
	QuoteWarningPromoRejected    QuoteWarningType = "promo_code_rejected"
	QuoteWarningPromoAlreadyUsed QuoteWarningType = "promo_code_already_applied"
	QuoteWarningTierNotReached   QuoteWarningType = "tier_not_reached"
)

// String implements fmt.Stringer.
func (w QuoteWarningType) String() string {
	return string(w)
}
