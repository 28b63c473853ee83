package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductPriceTier is one breakpoint of a quantity-tiered product.
type ProductPriceTier struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	BreakpointQty int             `gorm:"column:breakpoint_qty;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	TierOrder     int             `gorm:"column:tier_order;not null;default:0"`
	Promotion     Promotion       `gorm:"embedded;embeddedPrefix:promo_"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t ProductPriceTier) Breakpoint() int { return t.BreakpointQty }
