package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityDiscountRule is one rung of a product's quantity-discount ladder.
type QuantityDiscountRule struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	BreakpointQty int             `gorm:"column:breakpoint_qty;not null"`
	PercentOff    decimal.Decimal `gorm:"column:percent_off;type:numeric(5,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (r QuantityDiscountRule) Breakpoint() int { return r.BreakpointQty }
