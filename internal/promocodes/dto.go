package promocodes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
)

// ValidationDTO is returned by the storefront validate endpoint.
type ValidationDTO struct {
	Code    string                  `json:"code"`
	Valid   bool                    `json:"valid"`
	Percent decimal.Decimal         `json:"percent"`
	Reason  enums.PromoRejectReason `json:"reason,omitempty"`
	Message string                  `json:"message,omitempty"`
}

func newValidationDTO(v Validation) *ValidationDTO {
	dto := &ValidationDTO{Code: v.Code, Valid: v.Valid, Percent: v.Percent, Reason: v.Reason}
	if !v.Valid {
		dto.Message = v.Reason.Message()
	}
	return dto
}

// RedemptionDTO reports a consumed use. Replayed is set when the order had
// already redeemed the code.
type RedemptionDTO struct {
	PromoCodeID    uuid.UUID       `json:"promo_code_id"`
	Code           string          `json:"code"`
	Percent        decimal.Decimal `json:"percent"`
	OrderReference string          `json:"order_reference"`
	UsageCount     int             `json:"usage_count"`
	RemainingUses  *int            `json:"remaining_uses,omitempty"`
	Replayed       bool            `json:"replayed"`
	RedeemedAt     time.Time       `json:"redeemed_at"`
}

func newRedemptionDTO(code *models.PromoCode, redemption *models.PromoCodeRedemption, replayed bool) *RedemptionDTO {
	return &RedemptionDTO{
		PromoCodeID:    code.ID,
		Code:           code.Code,
		Percent:        code.Percent,
		OrderReference: redemption.OrderReference,
		UsageCount:     code.UsageCount,
		RemainingUses:  code.RemainingUses(),
		Replayed:       replayed,
		RedeemedAt:     redemption.CreatedAt,
	}
}

// PromoCodeDTO is the admin view of a code.
type PromoCodeDTO struct {
	ID               uuid.UUID             `json:"id"`
	Code             string                `json:"code"`
	ProductID        uuid.UUID             `json:"product_id"`
	PricingType      enums.PricingStrategy `json:"pricing_type"`
	PricingTypeLabel string                `json:"pricing_type_label"`
	PricingItemID    *uuid.UUID            `json:"pricing_item_id,omitempty"`
	Percent          decimal.Decimal       `json:"percent"`
	Description      *string               `json:"description,omitempty"`
	UsageLimit       *int                  `json:"usage_limit,omitempty"`
	UsageCount       int                   `json:"usage_count"`
	RemainingUses    *int                  `json:"remaining_uses,omitempty"`
	ValidFrom        *time.Time            `json:"valid_from,omitempty"`
	ValidUntil       *time.Time            `json:"valid_until,omitempty"`
	LapsedAt         *time.Time            `json:"lapsed_at,omitempty"`
	IsActive         bool                  `json:"is_active"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

func NewPromoCodeDTO(row models.PromoCode) PromoCodeDTO {
	return PromoCodeDTO{
		ID:               row.ID,
		Code:             row.Code,
		ProductID:        row.ProductID,
		PricingType:      row.PricingType,
		PricingTypeLabel: row.PricingType.Label(),
		PricingItemID:    row.PricingItemID,
		Percent:          row.Percent,
		Description:      row.Description,
		UsageLimit:       row.UsageLimit,
		UsageCount:       row.UsageCount,
		RemainingUses:    row.RemainingUses(),
		ValidFrom:        row.ValidFrom,
		ValidUntil:       row.ValidUntil,
		LapsedAt:         row.LapsedAt,
		IsActive:         row.IsActive,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
