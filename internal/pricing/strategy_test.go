package pricing

import (
	"testing"

	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
)

func TestSelectStrategy(t *testing.T) {
	t.Parallel()

	if got := SelectStrategy(models.Product{PricingStrategy: enums.PricingStrategySection}); got != enums.PricingStrategySection {
		t.Fatalf("expected section, got %s", got)
	}
	if got := SelectStrategy(models.Product{}); got != enums.PricingStrategyFlat {
		t.Fatalf("expected flat for empty strategy, got %s", got)
	}
}

func TestStrategyFromFlags(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		flags   StrategyFlags
		want    enums.PricingStrategy
		wantErr string
	}{
		{name: "none", flags: StrategyFlags{}, want: enums.PricingStrategyFlat},
		{name: "tiers", flags: StrategyFlags{UsePriceTiers: true}, want: enums.PricingStrategyQuantityTier},
		{name: "weight", flags: StrategyFlags{UseWeightTiers: true}, want: enums.PricingStrategyWeightTier},
		{name: "person", flags: StrategyFlags{PerPerson: true}, want: enums.PricingStrategyPerson},
		{name: "ranges", flags: StrategyFlags{PerPerson: true, PerPersonRanges: true}, want: enums.PricingStrategyPersonRange},
		{name: "sections", flags: StrategyFlags{UseSections: true}, want: enums.PricingStrategySection},
		{name: "ranges without person", flags: StrategyFlags{PerPersonRanges: true}, wantErr: "require per-person"},
		{name: "two flags", flags: StrategyFlags{UsePriceTiers: true, UseSections: true}, wantErr: "only one pricing strategy"},
		{name: "person and weight", flags: StrategyFlags{PerPerson: true, PerPersonRanges: true, UseWeightTiers: true}, wantErr: "only one pricing strategy"},
	}

	for _, tc := range cases {
		got, err := StrategyFromFlags(tc.flags)
		if tc.wantErr != "" {
			requireValidation(t, err, tc.wantErr)
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %s got %s", tc.name, tc.want, got)
		}
	}
}

func TestValidateProductPricing(t *testing.T) {
	t.Parallel()

	valid := models.Product{Name: "Panier", BasePrice: dec("20"), PricingStrategy: enums.PricingStrategyFlat, MinPersons: 1, Promotion: percentPromo("25")}
	if err := ValidateProductPricing(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unknown := valid
	unknown.PricingStrategy = "bundle"
	requireValidation(t, ValidateProductPricing(unknown), "unknown pricing strategy")

	person := models.Product{BasePrice: dec("0"), PricingStrategy: enums.PricingStrategyPerson, MinPersons: 4}
	requireValidation(t, ValidateProductPricing(person), "price per person must be positive")

	person.PricePerPerson = nullDec("6")
	person.MaxPersons = intPtr(2)
	requireValidation(t, ValidateProductPricing(person), "maximum persons")

	person.MaxPersons = nil
	if err := ValidateProductPricing(person); err != nil {
		t.Fatalf("unbounded person product should be valid: %v", err)
	}

	badPromo := valid
	badPromo.Promotion = fixedPromo("25")
	requireValidation(t, ValidateProductPricing(badPromo), "fixed promotion price must be lower")

	flatZero := valid
	flatZero.BasePrice = dec("0")
	requireValidation(t, ValidateProductPricing(flatZero), "base price must be positive")
}
