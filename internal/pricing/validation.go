package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
)

// ValidatePriceTiers rejects duplicate or non-positive breakpoints,
// non-positive prices and tier promotions that do not discount their tier.
func ValidatePriceTiers(tiers []models.ProductPriceTier) error {
	seen := make(map[int]struct{}, len(tiers))
	for i, tier := range tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if tier.BreakpointQty <= 0 {
			return validationError(field+".breakpoint_qty", "tier quantity must be positive")
		}
		if _, ok := seen[tier.BreakpointQty]; ok {
			return validationError(field+".breakpoint_qty", fmt.Sprintf("duplicate tier quantity %d", tier.BreakpointQty))
		}
		seen[tier.BreakpointQty] = struct{}{}
		if !tier.Price.IsPositive() {
			return validationError(field+".price", "tier price must be positive")
		}
		if err := ValidatePromotion(field+".promotion", tier.Price, tier.Promotion); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWeightTiers applies the breakpoint rules to gram-keyed tiers.
func ValidateWeightTiers(tiers []models.ProductWeightTier) error {
	seen := make(map[int]struct{}, len(tiers))
	for i, tier := range tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if tier.BreakpointGrams <= 0 {
			return validationError(field+".breakpoint_grams", "tier weight must be positive")
		}
		if _, ok := seen[tier.BreakpointGrams]; ok {
			return validationError(field+".breakpoint_grams", fmt.Sprintf("duplicate tier weight %dg", tier.BreakpointGrams))
		}
		seen[tier.BreakpointGrams] = struct{}{}
		if !tier.Price.IsPositive() {
			return validationError(field+".price", "tier price must be positive")
		}
	}
	return nil
}

// ValidateLadder checks a quantity-discount ladder.
func ValidateLadder(rules []models.QuantityDiscountRule) error {
	seen := make(map[int]struct{}, len(rules))
	for i, rule := range rules {
		field := fmt.Sprintf("rules[%d]", i)
		if rule.BreakpointQty <= 0 {
			return validationError(field+".breakpoint_qty", "discount quantity must be positive")
		}
		if _, ok := seen[rule.BreakpointQty]; ok {
			return validationError(field+".breakpoint_qty", fmt.Sprintf("duplicate discount quantity %d", rule.BreakpointQty))
		}
		seen[rule.BreakpointQty] = struct{}{}
		if !percentInOpenRange(rule.PercentOff) {
			return validationError(field+".percent_off", "discount percentage must be between 0 and 100 exclusive")
		}
	}
	return nil
}

// ValidateRangeDiscountTiers checks person-count discount tiers of one range:
// unique positive minimums, coherent bounds, percentages in (0,100) and no two
// tiers covering the same person count.
func ValidateRangeDiscountTiers(tiers []models.RangeDiscountTier) error {
	seen := make(map[int]struct{}, len(tiers))
	for i, tier := range tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if err := validateBounds(field+".", tier.MinPersons, tier.MaxPersons); err != nil {
			return err
		}
		if _, ok := seen[tier.MinPersons]; ok {
			return validationError(field+".min_persons", fmt.Sprintf("duplicate tier minimum %d", tier.MinPersons))
		}
		seen[tier.MinPersons] = struct{}{}
		if !percentInOpenRange(tier.PercentOff) {
			return validationError(field+".percent_off", "discount percentage must be between 0 and 100 exclusive")
		}
	}

	sorted := make([]models.RangeDiscountTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPersons < sorted[j].MinPersons })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.MaxPersons == nil || *prev.MaxPersons >= sorted[i].MinPersons {
			return validationError("tiers", fmt.Sprintf("tier starting at %d persons overlaps the tier starting at %d", sorted[i].MinPersons, prev.MinPersons))
		}
	}
	return nil
}

// ValidatePersonPriceTiers checks the person-count tiers of a per-person
// product. Fixed tiers must undercut perPerson when it is known; percent tiers
// take a percentage in (0,100). Tiers may not cover the same person count.
func ValidatePersonPriceTiers(tiers []models.PersonPriceTier, perPerson decimal.NullDecimal) error {
	seen := make(map[int]struct{}, len(tiers))
	for i, tier := range tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if err := validateBounds(field+".", tier.MinPersons, tier.MaxPersons); err != nil {
			return err
		}
		if _, ok := seen[tier.MinPersons]; ok {
			return validationError(field+".min_persons", fmt.Sprintf("duplicate tier minimum %d", tier.MinPersons))
		}
		seen[tier.MinPersons] = struct{}{}

		switch tier.DiscountType {
		case enums.PromotionTypeFixed:
			if !tier.PricePerPerson.Valid || !tier.PricePerPerson.Decimal.IsPositive() {
				return validationError(field+".price_per_person", "tier price per person must be positive")
			}
			if perPerson.Valid && !tier.PricePerPerson.Decimal.LessThan(perPerson.Decimal) {
				return validationError(field+".price_per_person", "tier price per person must be lower than the product price per person")
			}
		case enums.PromotionTypePercent:
			if !tier.PercentOff.Valid || !percentInOpenRange(tier.PercentOff.Decimal) {
				return validationError(field+".percent_off", "discount percentage must be between 0 and 100 exclusive")
			}
		default:
			return validationError(field+".discount_type", "discount type must be fixed or percent")
		}
	}

	sorted := make([]models.PersonPriceTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinPersons < sorted[j].MinPersons })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.MaxPersons == nil || *prev.MaxPersons >= sorted[i].MinPersons {
			return validationError("tiers", fmt.Sprintf("tier starting at %d persons overlaps the tier starting at %d", sorted[i].MinPersons, prev.MinPersons))
		}
	}
	return nil
}

// ValidateRanges checks the named ranges of a per-person-ranged product.
func ValidateRanges(ranges []models.ProductRange) error {
	for i, r := range ranges {
		field := fmt.Sprintf("ranges[%d]", i)
		if strings.TrimSpace(r.Name) == "" {
			return validationError(field+".name", "range name is required")
		}
		if !r.PricePerPerson.IsPositive() {
			return validationError(field+".price_per_person", "price per person must be positive")
		}
		if err := validateBounds(field+".", r.MinPersons, r.MaxPersons); err != nil {
			return err
		}
		if err := ValidateRangeDiscountTiers(r.DiscountTiers); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSections checks section SKUs.
func ValidateSections(sections []models.ProductSection) error {
	for i, section := range sections {
		field := fmt.Sprintf("sections[%d]", i)
		if strings.TrimSpace(section.Name) == "" {
			return validationError(field+".name", "section name is required")
		}
		if !section.Fraction.IsPositive() {
			return validationError(field+".fraction", "section fraction must be positive")
		}
		if !section.Price.IsPositive() {
			return validationError(field+".price", "section price must be positive")
		}
	}
	return nil
}
