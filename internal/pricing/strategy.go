package pricing

import (
	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
)

// SelectStrategy returns the active strategy of a product. Configurations are
// validated on save, so an empty or unknown tag is read as flat.
func SelectStrategy(product models.Product) enums.PricingStrategy {
	if product.PricingStrategy.IsValid() {
		return product.PricingStrategy
	}
	return enums.PricingStrategyFlat
}

// StrategyFlags is the boolean form still sent by older admin clients.
type StrategyFlags struct {
	UsePriceTiers   bool `json:"use_price_tiers"`
	UseWeightTiers  bool `json:"use_weight_tiers"`
	PerPerson       bool `json:"per_person"`
	PerPersonRanges bool `json:"per_person_ranges"`
	UseSections     bool `json:"use_sections"`
}

// StrategyFromFlags folds legacy flags into a single strategy. More than one
// exclusive flag, or ranges without per-person, is rejected.
func StrategyFromFlags(flags StrategyFlags) (enums.PricingStrategy, error) {
	if flags.PerPersonRanges && !flags.PerPerson {
		return "", validationError("per_person_ranges", "per-person ranges require per-person pricing to be enabled")
	}

	selected := enums.PricingStrategyFlat
	count := 0
	if flags.UsePriceTiers {
		selected = enums.PricingStrategyQuantityTier
		count++
	}
	if flags.UseWeightTiers {
		selected = enums.PricingStrategyWeightTier
		count++
	}
	if flags.PerPerson {
		selected = enums.PricingStrategyPerson
		if flags.PerPersonRanges {
			selected = enums.PricingStrategyPersonRange
		}
		count++
	}
	if flags.UseSections {
		selected = enums.PricingStrategySection
		count++
	}
	if count > 1 {
		return "", validationError("pricing_strategy", "only one pricing strategy can be enabled at a time")
	}
	return selected, nil
}

// ValidateProductPricing checks a product configuration before it is saved.
func ValidateProductPricing(product models.Product) error {
	if !product.PricingStrategy.IsValid() {
		return validationError("pricing_strategy", "unknown pricing strategy")
	}
	if product.BasePrice.IsNegative() {
		return validationError("base_price", "base price must not be negative")
	}

	switch product.PricingStrategy {
	case enums.PricingStrategyFlat, enums.PricingStrategyQuantityTier, enums.PricingStrategyWeightTier:
		if !product.BasePrice.IsPositive() {
			return validationError("base_price", "base price must be positive")
		}
	case enums.PricingStrategyPerson:
		if !product.PricePerPerson.Valid || !product.PricePerPerson.Decimal.IsPositive() {
			return validationError("price_per_person", "price per person must be positive")
		}
	}

	if product.PricingStrategy == enums.PricingStrategyPerson || product.PricingStrategy == enums.PricingStrategyPersonRange {
		if err := validateBounds("", product.MinPersons, product.MaxPersons); err != nil {
			return err
		}
	}

	if product.BaseWeightGrams != nil && *product.BaseWeightGrams <= 0 {
		return validationError("base_weight_grams", "base weight must be positive")
	}
	if product.BaseWeightPrice.Valid && !product.BaseWeightPrice.Decimal.IsPositive() {
		return validationError("base_weight_price", "base weight price must be positive")
	}

	return ValidatePromotion("promotion", product.BasePrice, product.Promotion)
}

// validateBounds checks an inclusive [min,max] person span; max nil is unbounded.
func validateBounds(prefix string, lo int, hi *int) error {
	if lo < 1 {
		return validationError(prefix+"min_persons", "minimum persons must be at least 1")
	}
	if hi != nil && *hi < lo {
		return validationError(prefix+"max_persons", "maximum persons must not be lower than minimum")
	}
	return nil
}
