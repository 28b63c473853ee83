package enums

// PromoRejectReason explains why a promo code cannot be applied.
type PromoRejectReason string

const (
	PromoRejectNotFound     PromoRejectReason = "not_found"
	PromoRejectNotYetValid  PromoRejectReason = "not_yet_valid"
	PromoRejectExpired      PromoRejectReason = "expired"
	PromoRejectLimitReached PromoRejectReason = "limit_reached"
)

var promoRejectMessages = map[PromoRejectReason]string{
	PromoRejectNotFound:     "Code promo invalide pour ce produit",
	PromoRejectNotYetValid:  "Ce code promo n'est pas encore valide",
	PromoRejectExpired:      "Ce code promo a expiré",
	PromoRejectLimitReached: "Ce code promo a atteint sa limite d'utilisation",
}

// String implements fmt.Stringer.
func (r PromoRejectReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known PromoRejectReason.
func (r PromoRejectReason) IsValid() bool {
	_, ok := promoRejectMessages[r]
	return ok
}

// Message returns the customer-facing explanation.
func (r PromoRejectReason) Message() string {
	return promoRejectMessages[r]
}
