package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aumatinvert/storefront-api/pkg/db/models"
)

// Repository is the tier store: product pricing configuration and every
// tier set owned by a product or one of its ranges.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves the pricing configuration columns of a product.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// LoadPricing fetches a product with every tier set needed to price it.
func (r *Repository) LoadPricing(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("PriceTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("breakpoint_qty ASC")
		}).
		Preload("WeightTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("breakpoint_grams ASC")
		}).
		Preload("Ranges", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Ranges.DiscountTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_persons ASC")
		}).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("QuantityDiscounts", func(db *gorm.DB) *gorm.DB {
			return db.Order("breakpoint_qty ASC")
		}).
		Preload("PersonTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_persons ASC")
		}).
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListPriceTiers returns the quantity tiers of a product in breakpoint order.
func (r *Repository) ListPriceTiers(ctx context.Context, productID uuid.UUID) ([]models.ProductPriceTier, error) {
	var rows []models.ProductPriceTier
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("breakpoint_qty ASC").
		Find(&rows).
		Error
	return rows, err
}

// ReplacePriceTiers replaces all quantity tiers for the product. Callers run
// it inside a transaction so readers never see an empty set.
func (r *Repository) ReplacePriceTiers(ctx context.Context, productID uuid.UUID, tiers []models.ProductPriceTier) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductPriceTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].ProductID = productID
		if tiers[i].ID == uuid.Nil {
			tiers[i].ID = uuid.New()
		}
	}
	return tx.Create(&tiers).Error
}

// ReplaceWeightTiers replaces all weight tiers for the product.
func (r *Repository) ReplaceWeightTiers(ctx context.Context, productID uuid.UUID, tiers []models.ProductWeightTier) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductWeightTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].ProductID = productID
		if tiers[i].ID == uuid.Nil {
			tiers[i].ID = uuid.New()
		}
	}
	return tx.Create(&tiers).Error
}

// ReplaceQuantityDiscounts replaces the quantity-discount ladder.
func (r *Repository) ReplaceQuantityDiscounts(ctx context.Context, productID uuid.UUID, rules []models.QuantityDiscountRule) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.QuantityDiscountRule{}).Error; err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}
	for i := range rules {
		rules[i].ProductID = productID
		if rules[i].ID == uuid.Nil {
			rules[i].ID = uuid.New()
		}
	}
	return tx.Create(&rules).Error
}

// ReplacePersonPriceTiers replaces the person-count tiers of a per-person
// product.
func (r *Repository) ReplacePersonPriceTiers(ctx context.Context, productID uuid.UUID, tiers []models.PersonPriceTier) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.PersonPriceTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].ProductID = productID
		if tiers[i].ID == uuid.Nil {
			tiers[i].ID = uuid.New()
		}
	}
	return tx.Create(&tiers).Error
}

// ReplaceSections replaces the section SKUs of a product. Supplied IDs are
// kept so promo codes scoped to a section survive an edit.
func (r *Repository) ReplaceSections(ctx context.Context, productID uuid.UUID, sections []models.ProductSection) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductSection{}).Error; err != nil {
		return err
	}
	if len(sections) == 0 {
		return nil
	}
	for i := range sections {
		sections[i].ProductID = productID
		if sections[i].ID == uuid.Nil {
			sections[i].ID = uuid.New()
		}
	}
	return tx.Create(&sections).Error
}

// ReplaceRanges replaces the ranges of a product together with their
// discount tiers.
func (r *Repository) ReplaceRanges(ctx context.Context, productID uuid.UUID, ranges []models.ProductRange) error {
	tx := r.db.WithContext(ctx)
	existing := tx.Model(&models.ProductRange{}).Select("id").Where("product_id = ?", productID)
	if err := tx.Where("range_id IN (?)", existing).Delete(&models.RangeDiscountTier{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductRange{}).Error; err != nil {
		return err
	}
	if len(ranges) == 0 {
		return nil
	}

	var tiers []models.RangeDiscountTier
	for i := range ranges {
		ranges[i].ProductID = productID
		if ranges[i].ID == uuid.Nil {
			ranges[i].ID = uuid.New()
		}
		for _, tier := range ranges[i].DiscountTiers {
			tier.RangeID = ranges[i].ID
			if tier.ID == uuid.Nil {
				tier.ID = uuid.New()
			}
			tiers = append(tiers, tier)
		}
	}
	if err := tx.Omit("DiscountTiers").Create(&ranges).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	return tx.Create(&tiers).Error
}

// FindRange loads one range with its discount tiers.
func (r *Repository) FindRange(ctx context.Context, rangeID uuid.UUID) (*models.ProductRange, error) {
	var row models.ProductRange
	err := r.db.WithContext(ctx).
		Preload("DiscountTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_persons ASC")
		}).
		First(&row, "id = ?", rangeID).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ReplaceRangeDiscountTiers replaces the discount tiers of a single range.
func (r *Repository) ReplaceRangeDiscountTiers(ctx context.Context, rangeID uuid.UUID, tiers []models.RangeDiscountTier) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("range_id = ?", rangeID).Delete(&models.RangeDiscountTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].RangeID = rangeID
		if tiers[i].ID == uuid.Nil {
			tiers[i].ID = uuid.New()
		}
	}
	return tx.Create(&tiers).Error
}

// ItemBelongsToProduct reports whether itemID names a tier, range or section
// of productID. Promo codes use it to check their pricing context.
func (r *Repository) ItemBelongsToProduct(ctx context.Context, productID, itemID uuid.UUID, table string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND product_id = ?", itemID, productID).
		Count(&count).
		Error
	return count > 0, err
}

// ExpirePromotions switches off product and tier promotions that ended
// before cutoff and returns how many rows changed.
func (r *Repository) ExpirePromotions(ctx context.Context, cutoff time.Time) (int64, error) {
	db := r.db.WithContext(ctx)
	products := db.Model(&models.Product{}).
		Where("promo_active = ? AND promo_ends_at IS NOT NULL AND promo_ends_at < ?", true, cutoff).
		Update("promo_active", false)
	if products.Error != nil {
		return 0, products.Error
	}
	tiers := db.Model(&models.ProductPriceTier{}).
		Where("promo_active = ? AND promo_ends_at IS NOT NULL AND promo_ends_at < ?", true, cutoff).
		Update("promo_active", false)
	if tiers.Error != nil {
		return products.RowsAffected, tiers.Error
	}
	return products.RowsAffected + tiers.RowsAffected, nil
}
