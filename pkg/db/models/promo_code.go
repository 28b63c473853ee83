package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/enums"
)

// PromoCode is a merchant-issued percentage discount scoped to one pricing
// context of a product.
type PromoCode struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string                `gorm:"column:code;not null"`
	ProductID     uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	PricingType   enums.PricingStrategy `gorm:"column:pricing_type;type:pricing_strategy;not null;default:'flat'"`
	PricingItemID *uuid.UUID            `gorm:"column:pricing_item_id;type:uuid"`
	Percent       decimal.Decimal       `gorm:"column:percent;type:numeric(5,2);not null"`
	Description   *string               `gorm:"column:description"`
	UsageLimit    *int                  `gorm:"column:usage_limit"`
	UsageCount    int                   `gorm:"column:usage_count;not null;default:0"`
	ValidFrom     *time.Time            `gorm:"column:valid_from"`
	ValidUntil    *time.Time            `gorm:"column:valid_until"`
	LapsedAt      *time.Time            `gorm:"column:lapsed_at"`
	IsActive      bool                  `gorm:"column:is_active;not null"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// RemainingUses returns nil when the code is unlimited.
func (p PromoCode) RemainingUses() *int {
	if p.UsageLimit == nil {
		return nil
	}
	remaining := *p.UsageLimit - p.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// PromoCodeRedemption records one confirmed purchase that consumed a code.
type PromoCodeRedemption struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PromoCodeID    uuid.UUID `gorm:"column:promo_code_id;type:uuid;not null"`
	OrderReference string    `gorm:"column:order_reference;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
