package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/pkg/enums"
)

// Product holds the pricing configuration of a catalog item.
type Product struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string                 `gorm:"column:name;not null"`
	BasePrice         decimal.Decimal        `gorm:"column:base_price;type:numeric(10,2);not null"`
	PricingStrategy   enums.PricingStrategy  `gorm:"column:pricing_strategy;type:pricing_strategy;not null;default:'flat'"`
	PricePerPerson    decimal.NullDecimal    `gorm:"column:price_per_person;type:numeric(10,2)"`
	MinPersons        int                    `gorm:"column:min_persons;not null;default:1"`
	MaxPersons        *int                   `gorm:"column:max_persons"`
	BaseWeightGrams   *int                   `gorm:"column:base_weight_grams"`
	BaseWeightPrice   decimal.NullDecimal    `gorm:"column:base_weight_price;type:numeric(10,2)"`
	Promotion         Promotion              `gorm:"embedded;embeddedPrefix:promo_"`
	IsActive          bool                   `gorm:"column:is_active;not null"`
	PriceTiers        []ProductPriceTier     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	WeightTiers       []ProductWeightTier    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Ranges            []ProductRange         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Sections          []ProductSection       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	QuantityDiscounts []QuantityDiscountRule `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	PersonTiers       []PersonPriceTier      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
