package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRange is a named per-person variant with its own bounds and
// percentage discount tiers.
type ProductRange struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Name           string              `gorm:"column:name;not null"`
	Description    *string             `gorm:"column:description"`
	PricePerPerson decimal.Decimal     `gorm:"column:price_per_person;type:numeric(10,2);not null"`
	MinPersons     int                 `gorm:"column:min_persons;not null;default:1"`
	MaxPersons     *int                `gorm:"column:max_persons"`
	SortOrder      int                 `gorm:"column:sort_order;not null;default:0"`
	IsActive       bool                `gorm:"column:is_active;not null"`
	DiscountTiers  []RangeDiscountTier `gorm:"foreignKey:RangeID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// RangeDiscountTier grants a percentage off a range from a person count.
type RangeDiscountTier struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RangeID    uuid.UUID       `gorm:"column:range_id;type:uuid;not null"`
	MinPersons int             `gorm:"column:min_persons;not null"`
	MaxPersons *int            `gorm:"column:max_persons"`
	PercentOff decimal.Decimal `gorm:"column:percent_off;type:numeric(5,2);not null"`
	IsActive   bool            `gorm:"column:is_active;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t RangeDiscountTier) Breakpoint() int { return t.MinPersons }
