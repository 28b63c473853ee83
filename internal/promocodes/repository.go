package promocodes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aumatinvert/storefront-api/internal/pricing"
	"github.com/aumatinvert/storefront-api/pkg/db/models"
)

// Repository persists promo codes and their redemptions.
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

// FindMatching returns the active code for the exact product and pricing
// context, or nil when none exists. code must already be normalized.
func (r *Repository) FindMatching(ctx context.Context, code string, productID uuid.UUID, pc pricing.PricingContext) (*models.PromoCode, error) {
	query := r.db.WithContext(ctx).
		Where("upper(code) = ? AND product_id = ? AND pricing_type = ? AND is_active = ?", code, productID, pc.Strategy, true)
	if pc.ItemID == nil {
		query = query.Where("pricing_item_id IS NULL")
	} else {
		query = query.Where("pricing_item_id = ?", *pc.ItemID)
	}

	var row models.PromoCode
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindByID loads a promo code regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error) {
	var row models.PromoCode
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByProduct returns every code of a product, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.PromoCode, error) {
	var rows []models.PromoCode
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// Create inserts a promo code.
func (r *Repository) Create(ctx context.Context, code *models.PromoCode) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(code).Error
}

// Update saves every column of a promo code.
func (r *Repository) Update(ctx context.Context, code *models.PromoCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

// IncrementUsage consumes one use of the code. The check against the limit
// and the increment happen in one statement; false means the budget was
// already exhausted.
func (r *Repository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", id).
		UpdateColumns(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindRedemption returns the redemption recorded for an order, or nil.
func (r *Repository) FindRedemption(ctx context.Context, promoCodeID uuid.UUID, orderReference string) (*models.PromoCodeRedemption, error) {
	var row models.PromoCodeRedemption
	err := r.db.WithContext(ctx).
		Where("promo_code_id = ? AND order_reference = ?", promoCodeID, orderReference).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// InsertRedemption records a confirmed purchase against a code.
func (r *Repository) InsertRedemption(ctx context.Context, redemption *models.PromoCodeRedemption) error {
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(redemption).Error
}

// MarkLapsed stamps lapsed_at on codes whose window closed before now or
// whose usage budget is spent. is_active is left untouched so FindMatching
// still returns them and validation keeps its expired or limit reason.
func (r *Repository) MarkLapsed(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("lapsed_at IS NULL").
		Where("(valid_until IS NOT NULL AND valid_until < ?) OR (usage_limit IS NOT NULL AND usage_count >= usage_limit)", now).
		UpdateColumn("lapsed_at", now)
	return res.RowsAffected, res.Error
}

// FindRedeemed returns the redemption an order already made with code on
// productID, along with the code, whether or not the code is still active.
func (r *Repository) FindRedeemed(ctx context.Context, code string, productID uuid.UUID, orderReference string) (*models.PromoCode, *models.PromoCodeRedemption, error) {
	codes := r.db.Model(&models.PromoCode{}).
		Select("id").
		Where("upper(code) = ? AND product_id = ?", code, productID)

	var redemption models.PromoCodeRedemption
	err := r.db.WithContext(ctx).
		Where("order_reference = ? AND promo_code_id IN (?)", orderReference, codes).
		First(&redemption).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	promo, err := r.FindByID(ctx, redemption.PromoCodeID)
	if err != nil {
		return nil, nil, err
	}
	return promo, &redemption, nil
}
