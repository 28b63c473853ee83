package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/aumatinvert/storefront-api/api/responses"
	"github.com/aumatinvert/storefront-api/api/validators"
	promosvc "github.com/aumatinvert/storefront-api/internal/promocodes"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
	"github.com/aumatinvert/storefront-api/pkg/logger"
	"github.com/aumatinvert/storefront-api/pkg/metrics"
)

type promoValidator interface {
	Validate(ctx context.Context, input promosvc.ValidateInput) (*promosvc.ValidationDTO, error)
}

type promoRedeemer interface {
	Redeem(ctx context.Context, input promosvc.RedeemInput) (*promosvc.RedemptionDTO, error)
}

type validatePromoCodeRequest struct {
	Code          string     `json:"code" validate:"required,max=64"`
	ProductID     uuid.UUID  `json:"product_id" validate:"required"`
	PricingType   string     `json:"pricing_type,omitempty"`
	PricingItemID *uuid.UUID `json:"pricing_item_id,omitempty"`
}

type redeemPromoCodeRequest struct {
	Code           string     `json:"code" validate:"required,max=64"`
	ProductID      uuid.UUID  `json:"product_id" validate:"required"`
	PricingType    string     `json:"pricing_type,omitempty"`
	PricingItemID  *uuid.UUID `json:"pricing_item_id,omitempty"`
	OrderReference string     `json:"order_reference" validate:"required,max=128"`
}

// ValidatePromoCode answers whether a code applies. A rejected code is a
// normal 200 response carrying the reason.
func ValidatePromoCode(svc promoValidator, m *metrics.PricingMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo code service unavailable"))
			return
		}

		var payload validatePromoCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pc, err := parseContext(payload.PricingType, payload.PricingItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), promosvc.ValidateInput{
			Code:      payload.Code,
			ProductID: payload.ProductID,
			Context:   pc,
		})
		if err != nil {
			m.IncValidation("error")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Valid {
			m.IncValidation("valid")
		} else {
			m.IncValidation(string(result.Reason))
		}
		responses.WriteSuccess(w, result)
	}
}

// RedeemPromoCode consumes one use of a code for an order.
func RedeemPromoCode(svc promoRedeemer, m *metrics.PricingMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo code service unavailable"))
			return
		}

		var payload redeemPromoCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pc, err := parseContext(payload.PricingType, payload.PricingItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"product_id":      payload.ProductID.String(),
				"order_reference": payload.OrderReference,
			})
		}

		redemption, err := svc.Redeem(ctx, promosvc.RedeemInput{
			Code:           payload.Code,
			ProductID:      payload.ProductID,
			Context:        pc,
			OrderReference: validators.SanitizeString(payload.OrderReference, 128),
		})
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				m.IncRedemption("rejected")
			} else {
				m.IncRedemption("error")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if redemption.Replayed {
			m.IncRedemption("replayed")
			responses.WriteSuccess(w, redemption)
			return
		}
		m.IncRedemption("redeemed")
		if logg != nil {
			logg.Info(ctx, "promo_code.redeemed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, redemption)
	}
}
