package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSection is a fractional purchase unit priced as its own SKU.
type ProductSection struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Fraction    decimal.Decimal `gorm:"column:fraction;type:numeric(6,3);not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	SortOrder   int             `gorm:"column:sort_order;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
