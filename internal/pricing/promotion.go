package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

// PromotionIsValid reports whether promo currently overrides base.
func PromotionIsValid(base decimal.Decimal, promo models.Promotion, now time.Time) bool {
	if !promo.Active || promo.Type == nil {
		return false
	}
	switch *promo.Type {
	case enums.PromotionTypeFixed:
		if !promo.FixedPrice.Valid || !promo.FixedPrice.Decimal.LessThan(base) {
			return false
		}
	case enums.PromotionTypePercent:
		if !promo.Percent.Valid || !percentInOpenRange(promo.Percent.Decimal) {
			return false
		}
	default:
		return false
	}
	if promo.StartsAt != nil && now.Before(*promo.StartsAt) {
		return false
	}
	if promo.EndsAt != nil && now.After(*promo.EndsAt) {
		return false
	}
	return true
}

// EvaluatePromotion returns the effective price of base under promo. Invalid,
// inactive or out-of-window promotions leave base unchanged.
func EvaluatePromotion(base decimal.Decimal, promo models.Promotion, now time.Time) decimal.Decimal {
	if !PromotionIsValid(base, promo, now) {
		return base
	}
	if *promo.Type == enums.PromotionTypeFixed {
		return promo.FixedPrice.Decimal
	}
	return applyPercentOff(base, promo.Percent.Decimal)
}

// PromotionDisplayPercent is the badge percentage shown next to a promoted
// price, zero when the promotion does not apply.
func PromotionDisplayPercent(base decimal.Decimal, promo models.Promotion, now time.Time) decimal.Decimal {
	if !PromotionIsValid(base, promo, now) {
		return zero
	}
	if *promo.Type == enums.PromotionTypePercent {
		return promo.Percent.Decimal
	}
	if !base.IsPositive() {
		return zero
	}
	effective := promo.FixedPrice.Decimal
	return base.Sub(effective).Mul(hundred).Div(base).Round(0)
}

// ValidatePromotion checks a promotion against the price it overlays before it
// is persisted. An unset promotion is always accepted.
func ValidatePromotion(field string, base decimal.Decimal, promo models.Promotion) error {
	if !promo.IsSet() {
		return nil
	}
	if promo.Type == nil || !promo.Type.IsValid() {
		return validationError(field+".type", "promotion type must be fixed or percent")
	}
	switch *promo.Type {
	case enums.PromotionTypeFixed:
		if !promo.FixedPrice.Valid {
			return validationError(field+".fixed_price", "fixed promotion requires a fixed price")
		}
		if !promo.FixedPrice.Decimal.IsPositive() {
			return validationError(field+".fixed_price", "fixed promotion price must be positive")
		}
		if !promo.FixedPrice.Decimal.LessThan(base) {
			return validationError(field+".fixed_price", "fixed promotion price must be lower than the price it discounts")
		}
	case enums.PromotionTypePercent:
		if !promo.Percent.Valid || !percentInOpenRange(promo.Percent.Decimal) {
			return validationError(field+".percent", "promotion percentage must be between 0 and 100 exclusive")
		}
	}
	if promo.StartsAt != nil && promo.EndsAt != nil && promo.EndsAt.Before(*promo.StartsAt) {
		return validationError(field+".ends_at", "promotion end must not precede its start")
	}
	return nil
}

// NormalizeDayBounds widens date-only bounds to whole days in loc: a start
// becomes 00:00:00 and an end becomes the last instant of its day.
func NormalizeDayBounds(start, end *time.Time, loc *time.Location) (*time.Time, *time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	var outStart, outEnd *time.Time
	if start != nil {
		s := start.In(loc)
		day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
		outStart = &day
	}
	if end != nil {
		e := end.In(loc)
		day := time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
		outEnd = &day
	}
	return outStart, outEnd
}

func validationError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}
