package pricing

import "testing"

func TestFractionLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"0.25": "1/4",
		"0.5":  "1/2",
		"0.50": "1/2",
		"0.75": "3/4",
		"1":    "Entier",
		"2":    "Double",
		"1.5":  "1.5x",
	}
	for in, want := range cases {
		if got := FractionLabel(dec(in)); got != want {
			t.Fatalf("%s: expected %q got %q", in, want, got)
		}
	}
}

func TestPricePer100g(t *testing.T) {
	t.Parallel()

	price, ok := PricePer100g(dec("6.00"), 250)
	if !ok {
		t.Fatalf("expected a price per 100g")
	}
	assertDecimal(t, "per 100g", price, "2.40")

	if _, ok := PricePer100g(dec("6.00"), 0); ok {
		t.Fatalf("expected no price without a base weight")
	}
}
