package enums

import "testing"

func TestParsePricingStrategy(t *testing.T) {
	got, err := ParsePricingStrategy(" Person_Range ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != PricingStrategyPersonRange {
		t.Fatalf("expected person_range, got %s", got)
	}
	if _, err := ParsePricingStrategy("bundle"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestPricingStrategyLabels(t *testing.T) {
	cases := map[PricingStrategy]string{
		PricingStrategyFlat:         "Prix normal",
		PricingStrategySection:      "Par section",
		PricingStrategyPersonRange:  "Par gamme",
		PricingStrategyWeightTier:   "Au poids",
		PricingStrategyQuantityTier: "Par palier",
		PricingStrategyPerson:       "Par personne",
		PricingStrategy("unknown"):  "Prix normal",
	}
	for strategy, want := range cases {
		if got := strategy.Label(); got != want {
			t.Fatalf("%s: expected %q got %q", strategy, want, got)
		}
	}
}

func TestItemScoped(t *testing.T) {
	if PricingStrategyFlat.ItemScoped() || PricingStrategyPerson.ItemScoped() {
		t.Fatalf("flat and person contexts carry no item id")
	}
	if !PricingStrategySection.ItemScoped() || !PricingStrategyQuantityTier.ItemScoped() {
		t.Fatalf("section and tier contexts are item scoped")
	}
}

func TestPromoRejectReasonMessages(t *testing.T) {
	for _, reason := range []PromoRejectReason{PromoRejectNotFound, PromoRejectNotYetValid, PromoRejectExpired, PromoRejectLimitReached} {
		if !reason.IsValid() || reason.Message() == "" {
			t.Fatalf("expected message for %s", reason)
		}
	}
	if PromoRejectReason("other").IsValid() {
		t.Fatalf("unexpected reason reported valid")
	}
}
