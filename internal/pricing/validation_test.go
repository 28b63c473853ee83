package pricing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

func requireValidation(t *testing.T, err error, contains string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error containing %q", contains)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	if !strings.Contains(typed.Message(), contains) {
		t.Fatalf("expected message containing %q, got %q", contains, typed.Message())
	}
}

func TestValidatePriceTiers(t *testing.T) {
	t.Parallel()

	if err := ValidatePriceTiers(scenarioTiers()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	requireValidation(t, ValidatePriceTiers([]models.ProductPriceTier{
		{BreakpointQty: 6, Price: dec("45")},
		{BreakpointQty: 6, Price: dec("40")},
	}), "duplicate tier quantity 6")
	requireValidation(t, ValidatePriceTiers([]models.ProductPriceTier{{BreakpointQty: 0, Price: dec("45")}}), "quantity must be positive")
	requireValidation(t, ValidatePriceTiers([]models.ProductPriceTier{{BreakpointQty: 3, Price: dec("0")}}), "price must be positive")
	requireValidation(t, ValidatePriceTiers([]models.ProductPriceTier{
		{BreakpointQty: 3, Price: dec("30"), Promotion: fixedPromo("31")},
	}), "fixed promotion price must be lower")
}

func TestValidateWeightTiers(t *testing.T) {
	t.Parallel()

	if err := ValidateWeightTiers([]models.ProductWeightTier{{BreakpointGrams: 250, Price: dec("3.20")}, {BreakpointGrams: 500, Price: dec("6")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireValidation(t, ValidateWeightTiers([]models.ProductWeightTier{{BreakpointGrams: 250, Price: dec("3")}, {BreakpointGrams: 250, Price: dec("4")}}), "duplicate tier weight 250g")
	requireValidation(t, ValidateWeightTiers([]models.ProductWeightTier{{BreakpointGrams: -5, Price: dec("3")}}), "weight must be positive")
}

func TestValidateLadder(t *testing.T) {
	t.Parallel()

	if err := ValidateLadder(scenarioLadder()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireValidation(t, ValidateLadder([]models.QuantityDiscountRule{{BreakpointQty: 5, PercentOff: dec("100")}}), "between 0 and 100")
	requireValidation(t, ValidateLadder([]models.QuantityDiscountRule{{BreakpointQty: 5, PercentOff: dec("5")}, {BreakpointQty: 5, PercentOff: dec("6")}}), "duplicate discount quantity 5")
}

func TestValidateRangeDiscountTiers(t *testing.T) {
	t.Parallel()

	ok := []models.RangeDiscountTier{
		{MinPersons: 10, MaxPersons: intPtr(19), PercentOff: dec("5")},
		{MinPersons: 20, PercentOff: dec("10")},
	}
	if err := ValidateRangeDiscountTiers(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	requireValidation(t, ValidateRangeDiscountTiers([]models.RangeDiscountTier{
		{MinPersons: 10, PercentOff: dec("5")},
		{MinPersons: 20, PercentOff: dec("10")},
	}), "overlaps")
	requireValidation(t, ValidateRangeDiscountTiers([]models.RangeDiscountTier{
		{MinPersons: 10, MaxPersons: intPtr(20), PercentOff: dec("5")},
		{MinPersons: 20, PercentOff: dec("10")},
	}), "overlaps")
	requireValidation(t, ValidateRangeDiscountTiers([]models.RangeDiscountTier{
		{MinPersons: 10, MaxPersons: intPtr(5), PercentOff: dec("5")},
	}), "maximum persons must not be lower")
	requireValidation(t, ValidateRangeDiscountTiers([]models.RangeDiscountTier{
		{MinPersons: 10, PercentOff: dec("0")},
	}), "between 0 and 100")
}

func TestValidatePersonPriceTiers(t *testing.T) {
	t.Parallel()

	base := nullDec("12.00")
	ok := []models.PersonPriceTier{
		{MinPersons: 5, MaxPersons: intPtr(9), DiscountType: enums.PromotionTypeFixed, PricePerPerson: nullDec("10.50")},
		{MinPersons: 10, DiscountType: enums.PromotionTypePercent, PercentOff: nullDec("10")},
	}
	if err := ValidatePersonPriceTiers(ok, base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	requireValidation(t, ValidatePersonPriceTiers([]models.PersonPriceTier{
		{MinPersons: 5, DiscountType: enums.PromotionTypeFixed, PricePerPerson: nullDec("10.50")},
		{MinPersons: 10, DiscountType: enums.PromotionTypePercent, PercentOff: nullDec("10")},
	}, base), "overlaps")
	requireValidation(t, ValidatePersonPriceTiers([]models.PersonPriceTier{
		{MinPersons: 5, DiscountType: enums.PromotionTypeFixed, PricePerPerson: nullDec("10")},
		{MinPersons: 5, DiscountType: enums.PromotionTypeFixed, PricePerPerson: nullDec("9")},
	}, base), "duplicate tier minimum 5")
	requireValidation(t, ValidatePersonPriceTiers([]models.PersonPriceTier{
		{MinPersons: 5, DiscountType: enums.PromotionTypeFixed, PricePerPerson: nullDec("12.00")},
	}, base), "lower than the product price per person")
	requireValidation(t, ValidatePersonPriceTiers([]models.PersonPriceTier{
		{MinPersons: 5, DiscountType: enums.PromotionTypePercent, PercentOff: nullDec("100")},
	}, base), "between 0 and 100")
	requireValidation(t, ValidatePersonPriceTiers([]models.PersonPriceTier{
		{MinPersons: 5, DiscountType: enums.PromotionType("bogus"), PercentOff: nullDec("5")},
	}, base), "fixed or percent")
	requireValidation(t, ValidatePersonPriceTiers([]models.PersonPriceTier{
		{MinPersons: 0, DiscountType: enums.PromotionTypeFixed, PricePerPerson: nullDec("5")},
	}, base), "minimum persons must be at least 1")

	if err := ValidatePersonPriceTiers([]models.PersonPriceTier{
		{MinPersons: 5, DiscountType: enums.PromotionTypeFixed, PricePerPerson: nullDec("20")},
	}, decimal.NullDecimal{}); err != nil {
		t.Fatalf("without a known base only positivity applies: %v", err)
	}
}

func TestValidateRangesAndSections(t *testing.T) {
	t.Parallel()

	requireValidation(t, ValidateRanges([]models.ProductRange{{Name: " ", PricePerPerson: dec("6"), MinPersons: 1}}), "range name is required")
	requireValidation(t, ValidateRanges([]models.ProductRange{{Name: "Fruits exotiques", PricePerPerson: dec("0"), MinPersons: 1}}), "price per person must be positive")
	requireValidation(t, ValidateRanges([]models.ProductRange{{Name: "Fruits exotiques", PricePerPerson: dec("6"), MinPersons: 8, MaxPersons: intPtr(4)}}), "maximum persons")

	requireValidation(t, ValidateSections([]models.ProductSection{{Name: "Quart", Fraction: dec("0"), Price: dec("4")}}), "fraction must be positive")
	requireValidation(t, ValidateSections([]models.ProductSection{{Name: "Quart", Fraction: dec("0.25"), Price: dec("-1")}}), "section price must be positive")
	if err := ValidateSections([]models.ProductSection{{Name: "Double", Fraction: dec("2"), Price: dec("30")}}); err != nil {
		t.Fatalf("fractions above one are allowed: %v", err)
	}
}
