package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/internal/pricing"
	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
)

// PricingDTO is the pricing configuration returned to storefront and admin
// clients.
type PricingDTO struct {
	ProductID         uuid.UUID             `json:"product_id"`
	Name              string                `json:"name"`
	Strategy          enums.PricingStrategy `json:"pricing_strategy"`
	StrategyLabel     string                `json:"pricing_strategy_label"`
	BasePrice         decimal.Decimal       `json:"base_price"`
	EffectivePrice    decimal.Decimal       `json:"effective_price"`
	PromotionPercent  decimal.Decimal       `json:"promotion_percent"`
	Promotion         *PromotionDTO         `json:"promotion,omitempty"`
	PricePerPerson    *decimal.Decimal      `json:"price_per_person,omitempty"`
	MinPersons        int                   `json:"min_persons"`
	MaxPersons        *int                  `json:"max_persons,omitempty"`
	BaseWeightGrams   *int                  `json:"base_weight_grams,omitempty"`
	BaseWeightPrice   *decimal.Decimal      `json:"base_weight_price,omitempty"`
	PricePer100g      *decimal.Decimal      `json:"price_per_100g,omitempty"`
	PriceTiers        []PriceTierDTO        `json:"price_tiers"`
	WeightTiers       []WeightTierDTO       `json:"weight_tiers"`
	Ranges            []RangeDTO            `json:"ranges"`
	Sections          []SectionDTO          `json:"sections"`
	QuantityDiscounts []QuantityDiscountDTO `json:"quantity_discounts"`
	PersonTiers       []PersonPriceTierDTO  `json:"person_tiers"`
	NextDiscount      *pricing.LadderHint   `json:"next_discount,omitempty"`
	IsActive          bool                  `json:"is_active"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// PromotionDTO echoes the stored promotion.
type PromotionDTO struct {
	Active     bool                 `json:"active"`
	Type       *enums.PromotionType `json:"type,omitempty"`
	FixedPrice *decimal.Decimal     `json:"fixed_price,omitempty"`
	Percent    *decimal.Decimal     `json:"percent,omitempty"`
	StartsAt   *time.Time           `json:"starts_at,omitempty"`
	EndsAt     *time.Time           `json:"ends_at,omitempty"`
}

type PriceTierDTO struct {
	ID               uuid.UUID       `json:"id"`
	BreakpointQty    int             `json:"breakpoint_qty"`
	Price            decimal.Decimal `json:"price"`
	EffectivePrice   decimal.Decimal `json:"effective_price"`
	PromotionPercent decimal.Decimal `json:"promotion_percent"`
	Promotion        *PromotionDTO   `json:"promotion,omitempty"`
}

type WeightTierDTO struct {
	ID              uuid.UUID       `json:"id"`
	BreakpointGrams int             `json:"breakpoint_grams"`
	Price           decimal.Decimal `json:"price"`
}

type RangeDTO struct {
	ID             uuid.UUID              `json:"id"`
	Name           string                 `json:"name"`
	Description    *string                `json:"description,omitempty"`
	PricePerPerson decimal.Decimal        `json:"price_per_person"`
	MinPersons     int                    `json:"min_persons"`
	MaxPersons     *int                   `json:"max_persons,omitempty"`
	IsActive       bool                   `json:"is_active"`
	DiscountTiers  []RangeDiscountTierDTO `json:"discount_tiers"`
}

type RangeDiscountTierDTO struct {
	ID         uuid.UUID       `json:"id"`
	MinPersons int             `json:"min_persons"`
	MaxPersons *int            `json:"max_persons,omitempty"`
	PercentOff decimal.Decimal `json:"percent_off"`
	IsActive   bool            `json:"is_active"`
}

type SectionDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Fraction      decimal.Decimal `json:"fraction"`
	FractionLabel string          `json:"fraction_label"`
	Price         decimal.Decimal `json:"price"`
	IsActive      bool            `json:"is_active"`
}

type QuantityDiscountDTO struct {
	BreakpointQty int             `json:"breakpoint_qty"`
	PercentOff    decimal.Decimal `json:"percent_off"`
}

type PersonPriceTierDTO struct {
	ID             uuid.UUID           `json:"id"`
	MinPersons     int                 `json:"min_persons"`
	MaxPersons     *int                `json:"max_persons,omitempty"`
	DiscountType   enums.PromotionType `json:"discount_type"`
	PricePerPerson *decimal.Decimal    `json:"price_per_person,omitempty"`
	PercentOff     *decimal.Decimal    `json:"percent_off,omitempty"`
}

// NewPricingDTO builds the display payload from a preloaded product.
// Promotion figures are evaluated at now.
func NewPricingDTO(product *models.Product, quantity int, now time.Time) *PricingDTO {
	dto := &PricingDTO{
		ProductID:         product.ID,
		Name:              product.Name,
		Strategy:          pricing.SelectStrategy(*product),
		BasePrice:         product.BasePrice,
		EffectivePrice:    pricing.EvaluatePromotion(product.BasePrice, product.Promotion, now),
		PromotionPercent:  pricing.PromotionDisplayPercent(product.BasePrice, product.Promotion, now),
		Promotion:         newPromotionDTO(product.Promotion),
		PricePerPerson:    decimalPtr(product.PricePerPerson),
		MinPersons:        product.MinPersons,
		MaxPersons:        product.MaxPersons,
		BaseWeightGrams:   product.BaseWeightGrams,
		BaseWeightPrice:   decimalPtr(product.BaseWeightPrice),
		PriceTiers:        make([]PriceTierDTO, 0, len(product.PriceTiers)),
		WeightTiers:       make([]WeightTierDTO, 0, len(product.WeightTiers)),
		Ranges:            make([]RangeDTO, 0, len(product.Ranges)),
		Sections:          make([]SectionDTO, 0, len(product.Sections)),
		QuantityDiscounts: make([]QuantityDiscountDTO, 0, len(product.QuantityDiscounts)),
		PersonTiers:       make([]PersonPriceTierDTO, 0, len(product.PersonTiers)),
		IsActive:          product.IsActive,
		UpdatedAt:         product.UpdatedAt,
	}
	dto.StrategyLabel = dto.Strategy.Label()

	if product.BaseWeightGrams != nil && product.BaseWeightPrice.Valid {
		if per100, ok := pricing.PricePer100g(product.BaseWeightPrice.Decimal, *product.BaseWeightGrams); ok {
			dto.PricePer100g = &per100
		}
	}

	for _, tier := range product.PriceTiers {
		dto.PriceTiers = append(dto.PriceTiers, PriceTierDTO{
			ID:               tier.ID,
			BreakpointQty:    tier.BreakpointQty,
			Price:            tier.Price,
			EffectivePrice:   pricing.EvaluatePromotion(tier.Price, tier.Promotion, now),
			PromotionPercent: pricing.PromotionDisplayPercent(tier.Price, tier.Promotion, now),
			Promotion:        newPromotionDTO(tier.Promotion),
		})
	}
	for _, tier := range product.WeightTiers {
		dto.WeightTiers = append(dto.WeightTiers, WeightTierDTO{
			ID:              tier.ID,
			BreakpointGrams: tier.BreakpointGrams,
			Price:           tier.Price,
		})
	}
	for _, r := range product.Ranges {
		item := RangeDTO{
			ID:             r.ID,
			Name:           r.Name,
			Description:    r.Description,
			PricePerPerson: r.PricePerPerson,
			MinPersons:     r.MinPersons,
			MaxPersons:     r.MaxPersons,
			IsActive:       r.IsActive,
			DiscountTiers:  make([]RangeDiscountTierDTO, 0, len(r.DiscountTiers)),
		}
		for _, tier := range r.DiscountTiers {
			item.DiscountTiers = append(item.DiscountTiers, RangeDiscountTierDTO{
				ID:         tier.ID,
				MinPersons: tier.MinPersons,
				MaxPersons: tier.MaxPersons,
				PercentOff: tier.PercentOff,
				IsActive:   tier.IsActive,
			})
		}
		dto.Ranges = append(dto.Ranges, item)
	}
	for _, section := range product.Sections {
		dto.Sections = append(dto.Sections, SectionDTO{
			ID:            section.ID,
			Name:          section.Name,
			Description:   section.Description,
			Fraction:      section.Fraction,
			FractionLabel: pricing.FractionLabel(section.Fraction),
			Price:         section.Price,
			IsActive:      section.IsActive,
		})
	}
	for _, rule := range product.QuantityDiscounts {
		dto.QuantityDiscounts = append(dto.QuantityDiscounts, QuantityDiscountDTO{
			BreakpointQty: rule.BreakpointQty,
			PercentOff:    rule.PercentOff,
		})
	}
	for _, tier := range product.PersonTiers {
		dto.PersonTiers = append(dto.PersonTiers, PersonPriceTierDTO{
			ID:             tier.ID,
			MinPersons:     tier.MinPersons,
			MaxPersons:     tier.MaxPersons,
			DiscountType:   tier.DiscountType,
			PricePerPerson: decimalPtr(tier.PricePerPerson),
			PercentOff:     decimalPtr(tier.PercentOff),
		})
	}

	if quantity > 0 {
		if hint, ok := pricing.NextLadderRule(quantity, product.QuantityDiscounts); ok {
			dto.NextDiscount = &hint
		}
	}
	return dto
}

func newPromotionDTO(promo models.Promotion) *PromotionDTO {
	if !promo.IsSet() {
		return nil
	}
	return &PromotionDTO{
		Active:     promo.Active,
		Type:       promo.Type,
		FixedPrice: decimalPtr(promo.FixedPrice),
		Percent:    decimalPtr(promo.Percent),
		StartsAt:   promo.StartsAt,
		EndsAt:     promo.EndsAt,
	}
}

func decimalPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}
