package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/enums"
)

// PersonPriceTier lowers the per-person price of a per-person product from a
// person count. A fixed tier carries its own price per person; a percent tier
// takes PercentOff from the product's price per person.
type PersonPriceTier struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	MinPersons     int                 `gorm:"column:min_persons;not null"`
	MaxPersons     *int                `gorm:"column:max_persons"`
	DiscountType   enums.PromotionType `gorm:"column:discount_type;not null;default:'fixed'"`
	PricePerPerson decimal.NullDecimal `gorm:"column:price_per_person;type:numeric(10,2)"`
	PercentOff     decimal.NullDecimal `gorm:"column:percent_off;type:numeric(5,2)"`
	TierOrder      int                 `gorm:"column:tier_order;not null;default:0"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (t PersonPriceTier) Breakpoint() int { return t.MinPersons }
