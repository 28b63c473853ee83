package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/enums"
)

// Promotion is the optional time-bounded override attached to a product or a
// price tier. It is stored inline with a column prefix on the owning row.
type Promotion struct {
	Active     bool                 `gorm:"column:active;not null;default:false"`
	Type       *enums.PromotionType `gorm:"column:type"`
	FixedPrice decimal.NullDecimal  `gorm:"column:fixed_price;type:numeric(10,2)"`
	Percent    decimal.NullDecimal  `gorm:"column:percent;type:numeric(5,2)"`
	StartsAt   *time.Time           `gorm:"column:starts_at"`
	EndsAt     *time.Time           `gorm:"column:ends_at"`
}

// IsSet reports whether any promotion data has been captured.
func (p Promotion) IsSet() bool {
	return p.Active || p.Type != nil || p.FixedPrice.Valid || p.Percent.Valid
}
