package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nullDec(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(v))
}

func intPtr(v int) *int {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func percentPromo(pct string) models.Promotion {
	typ := enums.PromotionTypePercent
	return models.Promotion{Active: true, Type: &typ, Percent: nullDec(pct)}
}

func fixedPromo(price string) models.Promotion {
	typ := enums.PromotionTypeFixed
	return models.Promotion{Active: true, Type: &typ, FixedPrice: nullDec(price)}
}

func assertDecimal(t interface {
	Helper()
	Fatalf(string, ...any)
}, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: expected %s got %s", name, want, got)
	}
}
