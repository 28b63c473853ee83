package controllers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/internal/pricing"
	productsvc "github.com/aumatinvert/storefront-api/internal/products"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

const (
	maxNameLen        = 120
	maxDescriptionLen = 500
)

type promotionRequest struct {
	Active     bool             `json:"active"`
	Type       *string          `json:"type,omitempty"`
	FixedPrice *decimal.Decimal `json:"fixed_price,omitempty" validate:"omitempty,gt=0"`
	Percent    *decimal.Decimal `json:"percent,omitempty" validate:"omitempty,gt=0,lte=100"`
	StartsAt   *time.Time       `json:"starts_at,omitempty"`
	EndsAt     *time.Time       `json:"ends_at,omitempty"`
	WholeDays  bool             `json:"whole_days"`
}

func (p *promotionRequest) toInput() (*productsvc.PromotionInput, error) {
	if p == nil {
		return nil, nil
	}
	input := &productsvc.PromotionInput{
		Active:     p.Active,
		FixedPrice: p.FixedPrice,
		Percent:    p.Percent,
		StartsAt:   p.StartsAt,
		EndsAt:     p.EndsAt,
		WholeDays:  p.WholeDays,
	}
	if p.Type != nil && strings.TrimSpace(*p.Type) != "" {
		parsed, err := enums.ParsePromotionType(strings.TrimSpace(*p.Type))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion type").
				WithDetails(map[string]any{"field": "promotion.type"})
		}
		input.Type = &parsed
	}
	return input, nil
}

// parseContext reads a pricing context; a blank type means flat.
func parseContext(pricingType string, itemID *uuid.UUID) (pricing.PricingContext, error) {
	raw := strings.TrimSpace(pricingType)
	if raw == "" {
		return pricing.PricingContext{Strategy: enums.PricingStrategyFlat, ItemID: itemID}, nil
	}
	strategy, err := enums.ParsePricingStrategy(raw)
	if err != nil {
		return pricing.PricingContext{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing type").
			WithDetails(map[string]any{"field": "pricing_type"})
	}
	return pricing.PricingContext{Strategy: strategy, ItemID: itemID}, nil
}
