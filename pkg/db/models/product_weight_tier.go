package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductWeightTier prices a product at a given weight in grams.
type ProductWeightTier struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	BreakpointGrams int             `gorm:"column:breakpoint_grams;not null"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	TierOrder       int             `gorm:"column:tier_order;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t ProductWeightTier) Breakpoint() int { return t.BreakpointGrams }
