package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/api/responses"
	"github.com/aumatinvert/storefront-api/api/validators"
	"github.com/aumatinvert/storefront-api/internal/pricing"
	productsvc "github.com/aumatinvert/storefront-api/internal/products"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
	"github.com/aumatinvert/storefront-api/pkg/logger"
)

type pricingRequest struct {
	Name            string                 `json:"name" validate:"required,max=120"`
	BasePrice       decimal.Decimal        `json:"base_price" validate:"gte=0"`
	PricingStrategy *string                `json:"pricing_strategy,omitempty"`
	Flags           *pricing.StrategyFlags `json:"flags,omitempty"`
	PricePerPerson  *decimal.Decimal       `json:"price_per_person,omitempty" validate:"omitempty,gt=0"`
	MinPersons      int                    `json:"min_persons" validate:"gte=0"`
	MaxPersons      *int                   `json:"max_persons,omitempty" validate:"omitempty,gt=0"`
	BaseWeightGrams *int                   `json:"base_weight_grams,omitempty" validate:"omitempty,gt=0"`
	BaseWeightPrice *decimal.Decimal       `json:"base_weight_price,omitempty" validate:"omitempty,gt=0"`
	Promotion       *promotionRequest      `json:"promotion,omitempty"`
	IsActive        *bool                  `json:"is_active,omitempty"`
}

func (r pricingRequest) toInput() (productsvc.ProductPricingInput, error) {
	input := productsvc.ProductPricingInput{
		Name:            validators.SanitizeString(r.Name, maxNameLen),
		BasePrice:       r.BasePrice,
		Flags:           r.Flags,
		PricePerPerson:  r.PricePerPerson,
		MinPersons:      r.MinPersons,
		MaxPersons:      r.MaxPersons,
		BaseWeightGrams: r.BaseWeightGrams,
		BaseWeightPrice: r.BaseWeightPrice,
		IsActive:        r.IsActive,
	}
	if r.PricingStrategy != nil && strings.TrimSpace(*r.PricingStrategy) != "" {
		strategy, err := enums.ParsePricingStrategy(strings.TrimSpace(*r.PricingStrategy))
		if err != nil {
			return productsvc.ProductPricingInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing strategy").
				WithDetails(map[string]any{"field": "pricing_strategy"})
		}
		input.Strategy = &strategy
	}
	promo, err := r.Promotion.toInput()
	if err != nil {
		return productsvc.ProductPricingInput{}, err
	}
	input.Promotion = promo
	return input, nil
}

type priceTiersRequest struct {
	Tiers []priceTierRequest `json:"tiers" validate:"dive"`
}

type priceTierRequest struct {
	ID            *uuid.UUID        `json:"id,omitempty"`
	BreakpointQty int               `json:"breakpoint_qty"`
	Price         decimal.Decimal   `json:"price"`
	Promotion     *promotionRequest `json:"promotion,omitempty"`
}

type weightTiersRequest struct {
	Tiers []weightTierRequest `json:"tiers"`
}

type weightTierRequest struct {
	ID              *uuid.UUID      `json:"id,omitempty"`
	BreakpointGrams int             `json:"breakpoint_grams"`
	Price           decimal.Decimal `json:"price"`
}

type quantityDiscountsRequest struct {
	Rules []quantityDiscountRequest `json:"rules"`
}

type quantityDiscountRequest struct {
	BreakpointQty int             `json:"breakpoint_qty"`
	PercentOff    decimal.Decimal `json:"percent_off"`
}

type sectionsRequest struct {
	Sections []sectionRequest `json:"sections" validate:"dive"`
}

type sectionRequest struct {
	ID          *uuid.UUID      `json:"id,omitempty"`
	Name        string          `json:"name" validate:"required,max=120"`
	Description *string         `json:"description,omitempty"`
	Fraction    decimal.Decimal `json:"fraction"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

type rangesRequest struct {
	Ranges []rangeRequest `json:"ranges" validate:"dive"`
}

type rangeRequest struct {
	ID             *uuid.UUID                 `json:"id,omitempty"`
	Name           string                     `json:"name" validate:"required,max=120"`
	Description    *string                    `json:"description,omitempty"`
	PricePerPerson decimal.Decimal            `json:"price_per_person"`
	MinPersons     int                        `json:"min_persons"`
	MaxPersons     *int                       `json:"max_persons,omitempty"`
	IsActive       *bool                      `json:"is_active,omitempty"`
	DiscountTiers  []rangeDiscountTierRequest `json:"discount_tiers,omitempty"`
}

type rangeDiscountTiersRequest struct {
	Tiers []rangeDiscountTierRequest `json:"tiers"`
}

type rangeDiscountTierRequest struct {
	MinPersons int             `json:"min_persons"`
	MaxPersons *int            `json:"max_persons,omitempty"`
	PercentOff decimal.Decimal `json:"percent_off"`
	IsActive   *bool           `json:"is_active,omitempty"`
}

type personTiersRequest struct {
	Tiers []personTierRequest `json:"tiers"`
}

type personTierRequest struct {
	ID             *uuid.UUID       `json:"id,omitempty"`
	MinPersons     int              `json:"min_persons"`
	MaxPersons     *int             `json:"max_persons,omitempty"`
	DiscountType   string           `json:"discount_type,omitempty"`
	PricePerPerson *decimal.Decimal `json:"price_per_person,omitempty"`
	PercentOff     *decimal.Decimal `json:"percent_off,omitempty"`
}

func toRangeDiscountInputs(tiers []rangeDiscountTierRequest) []productsvc.RangeDiscountTierInput {
	out := make([]productsvc.RangeDiscountTierInput, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, productsvc.RangeDiscountTierInput{
			MinPersons: t.MinPersons,
			MaxPersons: t.MaxPersons,
			PercentOff: t.PercentOff,
			IsActive:   t.IsActive,
		})
	}
	return out
}

// AdminCreateProduct registers a product with its pricing configuration.
func AdminCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload pricingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithProductID(r.Context(), dto.ProductID.String()), "product.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminUpdatePricing(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productWrite(logg, func(ctx context.Context, productID uuid.UUID, r *http.Request) (*productsvc.PricingDTO, error) {
		var payload pricingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		input, err := payload.toInput()
		if err != nil {
			return nil, err
		}
		return svc.UpdatePricing(ctx, productID, input)
	})
}

func AdminReplacePriceTiers(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productWrite(logg, func(ctx context.Context, productID uuid.UUID, r *http.Request) (*productsvc.PricingDTO, error) {
		var payload priceTiersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		tiers := make([]productsvc.PriceTierInput, 0, len(payload.Tiers))
		for _, t := range payload.Tiers {
			promo, err := t.Promotion.toInput()
			if err != nil {
				return nil, err
			}
			tiers = append(tiers, productsvc.PriceTierInput{
				ID:            t.ID,
				BreakpointQty: t.BreakpointQty,
				Price:         t.Price,
				Promotion:     promo,
			})
		}
		return svc.ReplacePriceTiers(ctx, productID, tiers)
	})
}

func AdminReplaceWeightTiers(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productWrite(logg, func(ctx context.Context, productID uuid.UUID, r *http.Request) (*productsvc.PricingDTO, error) {
		var payload weightTiersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		tiers := make([]productsvc.WeightTierInput, 0, len(payload.Tiers))
		for _, t := range payload.Tiers {
			tiers = append(tiers, productsvc.WeightTierInput{
				ID:              t.ID,
				BreakpointGrams: t.BreakpointGrams,
				Price:           t.Price,
			})
		}
		return svc.ReplaceWeightTiers(ctx, productID, tiers)
	})
}

func AdminReplaceQuantityDiscounts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productWrite(logg, func(ctx context.Context, productID uuid.UUID, r *http.Request) (*productsvc.PricingDTO, error) {
		var payload quantityDiscountsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		rules := make([]productsvc.QuantityDiscountInput, 0, len(payload.Rules))
		for _, rule := range payload.Rules {
			rules = append(rules, productsvc.QuantityDiscountInput{
				BreakpointQty: rule.BreakpointQty,
				PercentOff:    rule.PercentOff,
			})
		}
		return svc.ReplaceQuantityDiscounts(ctx, productID, rules)
	})
}

func AdminReplaceSections(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productWrite(logg, func(ctx context.Context, productID uuid.UUID, r *http.Request) (*productsvc.PricingDTO, error) {
		var payload sectionsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		sections := make([]productsvc.SectionInput, 0, len(payload.Sections))
		for _, s := range payload.Sections {
			sections = append(sections, productsvc.SectionInput{
				ID:          s.ID,
				Name:        validators.SanitizeString(s.Name, maxNameLen),
				Description: validators.SanitizeOptional(s.Description, maxDescriptionLen),
				Fraction:    s.Fraction,
				Price:       s.Price,
				IsActive:    s.IsActive,
			})
		}
		return svc.ReplaceSections(ctx, productID, sections)
	})
}

func AdminReplaceRanges(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productWrite(logg, func(ctx context.Context, productID uuid.UUID, r *http.Request) (*productsvc.PricingDTO, error) {
		var payload rangesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		ranges := make([]productsvc.RangeInput, 0, len(payload.Ranges))
		for _, rg := range payload.Ranges {
			ranges = append(ranges, productsvc.RangeInput{
				ID:             rg.ID,
				Name:           validators.SanitizeString(rg.Name, maxNameLen),
				Description:    validators.SanitizeOptional(rg.Description, maxDescriptionLen),
				PricePerPerson: rg.PricePerPerson,
				MinPersons:     rg.MinPersons,
				MaxPersons:     rg.MaxPersons,
				IsActive:       rg.IsActive,
				DiscountTiers:  toRangeDiscountInputs(rg.DiscountTiers),
			})
		}
		return svc.ReplaceRanges(ctx, productID, ranges)
	})
}

func AdminReplacePersonPriceTiers(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productWrite(logg, func(ctx context.Context, productID uuid.UUID, r *http.Request) (*productsvc.PricingDTO, error) {
		var payload personTiersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		tiers := make([]productsvc.PersonPriceTierInput, 0, len(payload.Tiers))
		for i, t := range payload.Tiers {
			discountType := enums.PromotionTypeFixed
			if raw := strings.TrimSpace(t.DiscountType); raw != "" {
				parsed, err := enums.ParsePromotionType(raw)
				if err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type").
						WithDetails(map[string]any{"field": fmt.Sprintf("tiers[%d].discount_type", i)})
				}
				discountType = parsed
			}
			tiers = append(tiers, productsvc.PersonPriceTierInput{
				ID:             t.ID,
				MinPersons:     t.MinPersons,
				MaxPersons:     t.MaxPersons,
				DiscountType:   discountType,
				PricePerPerson: t.PricePerPerson,
				PercentOff:     t.PercentOff,
			})
		}
		return svc.ReplacePersonPriceTiers(ctx, productID, tiers)
	})
}

// AdminReplaceRangeDiscountTiers is keyed by range rather than product.
func AdminReplaceRangeDiscountTiers(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rangeID, err := validators.ParseUUIDParam(r, "rangeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload rangeDiscountTiersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "range_id", rangeID.String())
		}
		dto, err := svc.ReplaceRangeDiscountTiers(ctx, rangeID, toRangeDiscountInputs(payload.Tiers))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// productWrite parses {productId}, tags the log context and writes the
// resulting pricing DTO.
func productWrite(logg *logger.Logger, fn func(ctx context.Context, productID uuid.UUID, r *http.Request) (*productsvc.PricingDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithProductID(ctx, productID.String())
		}
		dto, err := fn(ctx, productID, r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
