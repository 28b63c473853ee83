package enums

import (
	"fmt"
	"strings"
)

// PricingStrategy is the single active pricing model of a product.
type PricingStrategy string

const (
	PricingStrategyFlat         PricingStrategy = "flat"
	PricingStrategyQuantityTier PricingStrategy = "quantity_tier"
	PricingStrategyWeightTier   PricingStrategy = "weight_tier"
	PricingStrategyPerson       PricingStrategy = "person"
	PricingStrategyPersonRange  PricingStrategy = "person_range"
	PricingStrategySection      PricingStrategy = "section"
)

var validPricingStrategies = []PricingStrategy{
	PricingStrategyFlat,
	PricingStrategyQuantityTier,
	PricingStrategyWeightTier,
	PricingStrategyPerson,
	PricingStrategyPersonRange,
	PricingStrategySection,
}

var pricingStrategyLabels = map[PricingStrategy]string{
	PricingStrategyFlat:         "Prix normal",
	PricingStrategyQuantityTier: "Par palier",
	PricingStrategyWeightTier:   "Au poids",
	PricingStrategyPerson:       "Par personne",
	PricingStrategyPersonRange:  "Par gamme",
	PricingStrategySection:      "Par section",
}

// String implements fmt.Stringer.
func (s PricingStrategy) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PricingStrategy.
func (s PricingStrategy) IsValid() bool {
	for _, candidate := range validPricingStrategies {
		if candidate == s {
			return true
		}
	}
	return false
}

// Label returns the storefront display label.
func (s PricingStrategy) Label() string {
	if label, ok := pricingStrategyLabels[s]; ok {
		return label
	}
	return pricingStrategyLabels[PricingStrategyFlat]
}

// ItemScoped reports whether a promo code context for this strategy names a
// specific tier, range or section.
func (s PricingStrategy) ItemScoped() bool {
	switch s {
	case PricingStrategyQuantityTier, PricingStrategyWeightTier, PricingStrategyPersonRange, PricingStrategySection:
		return true
	default:
		return false
	}
}

// ParsePricingStrategy converts raw input into a PricingStrategy.
func ParsePricingStrategy(value string) (PricingStrategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPricingStrategies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing strategy %q", value)
}
