package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/api/responses"
	"github.com/aumatinvert/storefront-api/api/validators"
	promosvc "github.com/aumatinvert/storefront-api/internal/promocodes"
	"github.com/aumatinvert/storefront-api/pkg/logger"
)

type createPromoCodeRequest struct {
	Code          string          `json:"code" validate:"required,min=3,max=64"`
	PricingType   string          `json:"pricing_type,omitempty"`
	PricingItemID *uuid.UUID      `json:"pricing_item_id,omitempty"`
	Percent       decimal.Decimal `json:"percent" validate:"gt=0,lte=100"`
	Description   *string         `json:"description,omitempty"`
	UsageLimit    *int            `json:"usage_limit,omitempty" validate:"omitempty,gt=0"`
	ValidFrom     *time.Time      `json:"valid_from,omitempty"`
	ValidUntil    *time.Time      `json:"valid_until,omitempty"`
}

type updatePromoCodeRequest struct {
	Percent         *decimal.Decimal `json:"percent,omitempty" validate:"omitempty,gt=0,lte=100"`
	Description     *string          `json:"description,omitempty"`
	UsageLimit      *int             `json:"usage_limit,omitempty" validate:"omitempty,gt=0"`
	ClearUsageLimit bool             `json:"clear_usage_limit"`
	ValidFrom       *time.Time       `json:"valid_from,omitempty"`
	ValidUntil      *time.Time       `json:"valid_until,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
}

func AdminCreatePromoCode(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload createPromoCodeRequest
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
			ctx = logg.WithProductID(ctx, productID.String())
		}
		dto, err := svc.Create(ctx, productID, promosvc.CreateInput{
			Code:        payload.Code,
			Context:     pc,
			Percent:     payload.Percent,
			Description: validators.SanitizeOptional(payload.Description, maxDescriptionLen),
			UsageLimit:  payload.UsageLimit,
			ValidFrom:   payload.ValidFrom,
			ValidUntil:  payload.ValidUntil,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminListPromoCodes(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		codes, err := svc.List(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, codes)
	}
}

func AdminUpdatePromoCode(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "promoCodeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updatePromoCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Update(r.Context(), id, promosvc.UpdateInput{
			Percent:     payload.Percent,
			Description: validators.SanitizeOptional(payload.Description, maxDescriptionLen),
			UsageLimit:  payload.UsageLimit,
			ClearLimit:  payload.ClearUsageLimit,
			ValidFrom:   payload.ValidFrom,
			ValidUntil:  payload.ValidUntil,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminDeactivatePromoCode keeps the row for redemption history.
func AdminDeactivatePromoCode(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "promoCodeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
