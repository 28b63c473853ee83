package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

// Input is the pricing data of one product as read from the tier store.
type Input struct {
	Product     models.Product
	PriceTiers  []models.ProductPriceTier
	WeightTiers []models.ProductWeightTier
	Ranges      []models.ProductRange
	Sections    []models.ProductSection
	Ladder      []models.QuantityDiscountRule
	PersonTiers []models.PersonPriceTier
}

// Selection is what the customer asked to buy. Quantity counts purchase
// units; Grams and Persons are the strategy magnitudes for weight and
// per-person products.
type Selection struct {
	Quantity  int
	Grams     int
	Persons   int
	RangeID   *uuid.UUID
	SectionID *uuid.UUID
	PromoCode string
}

// PricingContext identifies which price of a product a promo code discounts.
type PricingContext struct {
	Strategy enums.PricingStrategy `json:"pricing_type"`
	ItemID   *uuid.UUID            `json:"pricing_item_id,omitempty"`
}

// FlatContext is the context codes issued before contextual scoping target.
var FlatContext = PricingContext{Strategy: enums.PricingStrategyFlat}

// CodeCheck is the outcome of validating a promo code for a context.
type CodeCheck struct {
	Code    string                  `json:"code"`
	Valid   bool                    `json:"valid"`
	Percent decimal.Decimal         `json:"percent"`
	Reason  enums.PromoRejectReason `json:"reason,omitempty"`
}

// CodeChecker validates promo codes without consuming them.
type CodeChecker interface {
	CheckCode(ctx context.Context, code string, productID uuid.UUID, pc PricingContext) (CodeCheck, error)
}

// CodeCheckerFunc adapts a function to CodeChecker.
type CodeCheckerFunc func(ctx context.Context, code string, productID uuid.UUID, pc PricingContext) (CodeCheck, error)

func (f CodeCheckerFunc) CheckCode(ctx context.Context, code string, productID uuid.UUID, pc PricingContext) (CodeCheck, error) {
	return f(ctx, code, productID, pc)
}

// PromotionSource names where a promotion-stage discount came from.
type PromotionSource string

const (
	PromotionSourceNone       PromotionSource = ""
	PromotionSourceProduct    PromotionSource = "product"
	PromotionSourceTier       PromotionSource = "tier"
	PromotionSourceRangeTier  PromotionSource = "range_tier"
	PromotionSourcePersonTier PromotionSource = "person_tier"
)

// Breakdown keeps every stage of the composition for "you saved" displays.
type Breakdown struct {
	Strategy         enums.PricingStrategy   `json:"strategy"`
	Context          PricingContext          `json:"context"`
	Units            int                     `json:"units"`
	BasePrice        decimal.Decimal         `json:"base_price"`
	PromotionPrice   decimal.Decimal         `json:"promotion_price"`
	PromotionPercent decimal.Decimal         `json:"promotion_percent"`
	PromotionSource  PromotionSource         `json:"promotion_source,omitempty"`
	LadderPrice      decimal.Decimal         `json:"ladder_price"`
	LadderPercent    decimal.Decimal         `json:"ladder_percent"`
	CodePrice        decimal.Decimal         `json:"code_price"`
	CodePercent      decimal.Decimal         `json:"code_percent"`
	Code             string                  `json:"code,omitempty"`
	CodeRejection    enums.PromoRejectReason `json:"code_rejection,omitempty"`
	Savings          decimal.Decimal         `json:"savings"`
}

// Warning is a non-fatal note attached to a priced line.
type Warning struct {
	Type    enums.QuoteWarningType `json:"type"`
	Message string                 `json:"message"`
}

// Result is the composed price of one selection.
type Result struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Breakdown Breakdown       `json:"breakdown"`
	Warnings  []Warning       `json:"warnings,omitempty"`
}

// Compose prices a selection in a fixed order: strategy base, promotion or
// range discount, quantity ladder, promo code. Magnitudes outside the
// strategy bounds are rejected with a validation error. codes may be nil when
// no promo code can be supplied.
func Compose(ctx context.Context, in Input, sel Selection, codes CodeChecker, now time.Time) (Result, error) {
	if sel.Quantity < 1 {
		return Result{}, validationError("quantity", "quantity must be at least 1")
	}

	base, err := resolveBase(in, sel, now)
	if err != nil {
		return Result{}, err
	}

	bd := Breakdown{
		Strategy:         base.strategy,
		Context:          base.context,
		Units:            sel.Quantity,
		BasePrice:        base.price,
		PromotionPrice:   base.promoted,
		PromotionPercent: base.promoPercent,
		PromotionSource:  base.promoSource,
	}

	bd.LadderPrice, bd.LadderPercent = ApplyLadder(bd.PromotionPrice, sel.Quantity, in.Ladder)
	bd.CodePrice = bd.LadderPrice
	bd.CodePercent = zero

	var warnings []Warning
	if code := strings.TrimSpace(sel.PromoCode); code != "" && codes != nil {
		check, err := codes.CheckCode(ctx, code, in.Product.ID, base.context)
		if err != nil {
			return Result{}, err
		}
		bd.Code = check.Code
		if check.Valid {
			bd.CodePercent = check.Percent
			bd.CodePrice = applyPercentOff(bd.LadderPrice, check.Percent)
		} else {
			bd.CodeRejection = check.Reason
			warnings = append(warnings, Warning{Type: enums.QuoteWarningPromoRejected, Message: check.Reason.Message()})
		}
	}

	units := decimal.NewFromInt(int64(sel.Quantity))
	unit := bd.CodePrice
	lineTotal := roundMoney(unit.Mul(units))
	bd.Savings = roundMoney(bd.BasePrice.Mul(units)).Sub(lineTotal)

	return Result{
		UnitPrice: unit,
		LineTotal: lineTotal,
		Breakdown: bd,
		Warnings:  warnings,
	}, nil
}

// Fallback prices a selection at its strategy base with every discount
// dropped. It is used when composition fails unexpectedly.
func Fallback(in Input, sel Selection, reason string) Result {
	units := sel.Quantity
	if units < 1 {
		units = 1
	}
	price := in.Product.BasePrice
	strategy := SelectStrategy(in.Product)
	pc := FlatContext
	if b, err := resolveBase(in, sel, time.Time{}); err == nil {
		price = b.price
		pc = b.context
	}
	lineTotal := roundMoney(price.Mul(decimal.NewFromInt(int64(units))))
	return Result{
		UnitPrice: price,
		LineTotal: lineTotal,
		Breakdown: Breakdown{
			Strategy:       strategy,
			Context:        pc,
			Units:          units,
			BasePrice:      price,
			PromotionPrice: price,
			LadderPrice:    price,
			CodePrice:      price,
		},
		Warnings: []Warning{{Type: enums.QuoteWarningPricingFallback, Message: reason}},
	}
}

type baseResolution struct {
	strategy     enums.PricingStrategy
	context      PricingContext
	price        decimal.Decimal
	promoted     decimal.Decimal
	promoPercent decimal.Decimal
	promoSource  PromotionSource
}

func resolveBase(in Input, sel Selection, now time.Time) (baseResolution, error) {
	strategy := SelectStrategy(in.Product)
	switch strategy {
	case enums.PricingStrategyQuantityTier:
		return resolveQuantityTier(in, sel, now), nil
	case enums.PricingStrategyWeightTier:
		return resolveWeightTier(in, sel, now)
	case enums.PricingStrategyPerson:
		return resolvePerson(in, sel)
	case enums.PricingStrategyPersonRange:
		return resolvePersonRange(in, sel)
	case enums.PricingStrategySection:
		return resolveSection(in, sel)
	default:
		return productBase(in.Product, enums.PricingStrategyFlat, now), nil
	}
}

// productBase prices from the product base price and its own promotion.
func productBase(product models.Product, strategy enums.PricingStrategy, now time.Time) baseResolution {
	res := baseResolution{
		strategy:     strategy,
		context:      FlatContext,
		price:        product.BasePrice,
		promoted:     EvaluatePromotion(product.BasePrice, product.Promotion, now),
		promoPercent: PromotionDisplayPercent(product.BasePrice, product.Promotion, now),
	}
	if res.promoted.LessThan(res.price) {
		res.promoSource = PromotionSourceProduct
	}
	return res
}

func resolveQuantityTier(in Input, sel Selection, now time.Time) baseResolution {
	tier, ok := ResolveTier(in.PriceTiers, sel.Quantity)
	if !ok {
		return productBase(in.Product, enums.PricingStrategyQuantityTier, now)
	}
	id := tier.ID
	res := baseResolution{
		strategy:     enums.PricingStrategyQuantityTier,
		context:      PricingContext{Strategy: enums.PricingStrategyQuantityTier, ItemID: &id},
		price:        tier.Price,
		promoted:     EvaluatePromotion(tier.Price, tier.Promotion, now),
		promoPercent: PromotionDisplayPercent(tier.Price, tier.Promotion, now),
	}
	if res.promoted.LessThan(res.price) {
		res.promoSource = PromotionSourceTier
	}
	return res
}

func resolveWeightTier(in Input, sel Selection, now time.Time) (baseResolution, error) {
	if sel.Grams <= 0 {
		return baseResolution{}, validationError("grams", "weight in grams must be positive")
	}
	tier, ok := ResolveTier(in.WeightTiers, sel.Grams)
	if !ok {
		return productBase(in.Product, enums.PricingStrategyWeightTier, now), nil
	}
	id := tier.ID
	return baseResolution{
		strategy:     enums.PricingStrategyWeightTier,
		context:      PricingContext{Strategy: enums.PricingStrategyWeightTier, ItemID: &id},
		price:        tier.Price,
		promoted:     tier.Price,
		promoPercent: zero,
	}, nil
}

func resolvePerson(in Input, sel Selection) (baseResolution, error) {
	product := in.Product
	if err := checkPersons(sel.Persons, product.MinPersons, product.MaxPersons); err != nil {
		return baseResolution{}, err
	}
	if !product.PricePerPerson.Valid {
		return baseResolution{}, pkgerrors.New(pkgerrors.CodeInternal, "per-person product has no price per person")
	}
	persons := decimal.NewFromInt(int64(sel.Persons))
	price := roundMoney(product.PricePerPerson.Decimal.Mul(persons))
	res := baseResolution{
		strategy:     enums.PricingStrategyPerson,
		context:      PricingContext{Strategy: enums.PricingStrategyPerson},
		price:        price,
		promoted:     price,
		promoPercent: zero,
	}
	tier, ok := ResolvePersonTier(in.PersonTiers, sel.Persons)
	if !ok {
		return res, nil
	}
	var promoted decimal.Decimal
	if tier.DiscountType == enums.PromotionTypePercent {
		promoted = applyPercentOff(price, tier.PercentOff.Decimal)
	} else {
		promoted = roundMoney(tier.PricePerPerson.Decimal.Mul(persons))
	}
	if !promoted.LessThan(price) {
		return res, nil
	}
	res.promoted = promoted
	res.promoSource = PromotionSourcePersonTier
	if tier.DiscountType == enums.PromotionTypePercent {
		res.promoPercent = tier.PercentOff.Decimal
	} else {
		res.promoPercent = price.Sub(promoted).Mul(hundred).Div(price).Round(0)
	}
	return res, nil
}

// ResolvePersonTier picks the tier with the largest minimum not above persons.
// The tier's maximum is honoured, and a tier whose price or percentage is
// missing or out of range never applies.
func ResolvePersonTier(tiers []models.PersonPriceTier, persons int) (models.PersonPriceTier, bool) {
	tier, ok := ResolveTier(tiers, persons)
	if !ok {
		return tier, false
	}
	if tier.MaxPersons != nil && persons > *tier.MaxPersons {
		return tier, false
	}
	switch tier.DiscountType {
	case enums.PromotionTypePercent:
		return tier, tier.PercentOff.Valid && percentInOpenRange(tier.PercentOff.Decimal)
	case enums.PromotionTypeFixed, "":
		return tier, tier.PricePerPerson.Valid && tier.PricePerPerson.Decimal.IsPositive()
	default:
		return tier, false
	}
}

func resolvePersonRange(in Input, sel Selection) (baseResolution, error) {
	if sel.RangeID == nil {
		return baseResolution{}, validationError("range_id", "a range must be selected")
	}
	var selected *models.ProductRange
	for i := range in.Ranges {
		if in.Ranges[i].ID == *sel.RangeID && in.Ranges[i].IsActive {
			selected = &in.Ranges[i]
			break
		}
	}
	if selected == nil {
		return baseResolution{}, validationError("range_id", "range is not available for this product")
	}
	if err := checkPersons(sel.Persons, selected.MinPersons, selected.MaxPersons); err != nil {
		return baseResolution{}, err
	}

	id := selected.ID
	price := roundMoney(selected.PricePerPerson.Mul(decimal.NewFromInt(int64(sel.Persons))))
	res := baseResolution{
		strategy:     enums.PricingStrategyPersonRange,
		context:      PricingContext{Strategy: enums.PricingStrategyPersonRange, ItemID: &id},
		price:        price,
		promoted:     price,
		promoPercent: zero,
	}
	if tier, ok := resolveRangeDiscount(selected.DiscountTiers, sel.Persons); ok {
		res.promoted = applyPercentOff(price, tier.PercentOff)
		res.promoPercent = tier.PercentOff
		res.promoSource = PromotionSourceRangeTier
	}
	return res, nil
}

// resolveRangeDiscount picks among active tiers the largest minimum not above
// persons, honouring the tier's own maximum when one is set.
func resolveRangeDiscount(tiers []models.RangeDiscountTier, persons int) (models.RangeDiscountTier, bool) {
	active := make([]models.RangeDiscountTier, 0, len(tiers))
	for _, tier := range tiers {
		if tier.IsActive {
			active = append(active, tier)
		}
	}
	tier, ok := ResolveTier(active, persons)
	if !ok {
		return tier, false
	}
	if tier.MaxPersons != nil && persons > *tier.MaxPersons {
		return tier, false
	}
	if !percentInOpenRange(tier.PercentOff) {
		return tier, false
	}
	return tier, true
}

func resolveSection(in Input, sel Selection) (baseResolution, error) {
	if sel.SectionID == nil {
		return baseResolution{}, validationError("section_id", "a section must be selected")
	}
	for _, section := range in.Sections {
		if section.ID != *sel.SectionID || !section.IsActive {
			continue
		}
		id := section.ID
		return baseResolution{
			strategy:     enums.PricingStrategySection,
			context:      PricingContext{Strategy: enums.PricingStrategySection, ItemID: &id},
			price:        section.Price,
			promoted:     section.Price,
			promoPercent: zero,
		}, nil
	}
	return baseResolution{}, validationError("section_id", "section is not available for this product")
}

func checkPersons(persons, lo int, hi *int) error {
	if lo < 1 {
		lo = 1
	}
	if persons < lo {
		return validationError("persons", fmt.Sprintf("at least %d persons required", lo))
	}
	if hi != nil && persons > *hi {
		return validationError("persons", fmt.Sprintf("at most %d persons allowed", *hi))
	}
	return nil
}
