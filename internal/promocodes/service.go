package promocodes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aumatinvert/storefront-api/internal/pricing"
	"github.com/aumatinvert/storefront-api/pkg/db"
	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
	"github.com/aumatinvert/storefront-api/pkg/retry"
)

const (
	redemptionConstraint = "promo_code_redemptions"
	contextConstraint    = "promo_codes_context_key"
)

var itemTables = map[enums.PricingStrategy]string{
	enums.PricingStrategyQuantityTier: "product_price_tiers",
	enums.PricingStrategyWeightTier:   "product_weight_tiers",
	enums.PricingStrategyPersonRange:  "product_ranges",
	enums.PricingStrategySection:      "product_sections",
}

// Service exposes promo code validation, redemption and administration.
type Service interface {
	Validate(ctx context.Context, input ValidateInput) (*ValidationDTO, error)
	Redeem(ctx context.Context, input RedeemInput) (*RedemptionDTO, error)
	Create(ctx context.Context, productID uuid.UUID, input CreateInput) (*PromoCodeDTO, error)
	List(ctx context.Context, productID uuid.UUID) ([]PromoCodeDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PromoCodeDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	MarkLapsed(ctx context.Context, now time.Time) (int64, error)
	Checker() pricing.CodeChecker
}

// ValidateInput names the code and the price it should discount.
type ValidateInput struct {
	Code      string
	ProductID uuid.UUID
	Context   pricing.PricingContext
}

// RedeemInput consumes a code for a confirmed order.
type RedeemInput struct {
	Code           string
	ProductID      uuid.UUID
	Context        pricing.PricingContext
	OrderReference string
}

// CreateInput is the admin payload for a new code.
type CreateInput struct {
	Code        string
	Context     pricing.PricingContext
	Percent     decimal.Decimal
	Description *string
	UsageLimit  *int
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

// UpdateInput carries optional changes to an existing code.
type UpdateInput struct {
	Percent     *decimal.Decimal
	Description *string
	UsageLimit  *int
	ClearLimit  bool
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	IsActive    *bool
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ItemBelongsToProduct(ctx context.Context, productID, itemID uuid.UUID, table string) (bool, error)
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	products  productReader
	validator *Validator
	policy    retry.Policy
	now       func() time.Time
}

// NewService constructs the promo code service.
func NewService(repo *Repository, dbClient *db.Client, products productReader, policy retry.Policy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo code repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{
		repo:      repo,
		dbClient:  dbClient,
		products:  products,
		validator: NewValidator(repo, policy),
		policy:    policy,
		now:       time.Now,
	}, nil
}

func (s *service) Checker() pricing.CodeChecker {
	return s.validator
}

// Validate never writes; repeated calls return the same outcome.
func (s *service) Validate(ctx context.Context, input ValidateInput) (*ValidationDTO, error) {
	if err := validateContext(input.Context); err != nil {
		return nil, err
	}
	res, err := s.validator.Validate(ctx, input.Code, input.ProductID, input.Context)
	if err != nil {
		return nil, err
	}
	return newValidationDTO(res), nil
}

// Redeem consumes one use of a valid code for an order. Redeeming the same
// order twice returns the first redemption without consuming another use.
func (s *service) Redeem(ctx context.Context, input RedeemInput) (*RedemptionDTO, error) {
	orderRef := strings.TrimSpace(input.OrderReference)
	if orderRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference is required").
			WithDetails(map[string]any{"field": "order_reference"})
	}
	if err := validateContext(input.Context); err != nil {
		return nil, err
	}
	code := NormalizeCode(input.Code)

	var out *RedemptionDTO
	err := retry.Do(ctx, s.policy, func() error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			validator := s.validator.withStore(txRepo)

			if promo, existing, err := txRepo.FindRedeemed(ctx, code, input.ProductID, orderRef); err != nil {
				return err
			} else if existing != nil {
				out = newRedemptionDTO(promo, existing, true)
				return nil
			}

			record, err := validator.Lookup(ctx, code, input.ProductID, input.Context)
			if err != nil {
				return err
			}
			check := Evaluate(code, record, s.now())
			if !check.Valid {
				return rejection(check.Reason)
			}

			redemption := &models.PromoCodeRedemption{PromoCodeID: record.ID, OrderReference: orderRef}
			if err := txRepo.InsertRedemption(ctx, redemption); err != nil {
				return err
			}
			consumed, err := txRepo.IncrementUsage(ctx, record.ID)
			if err != nil {
				return err
			}
			if !consumed {
				return rejection(enums.PromoRejectLimitReached)
			}
			record.UsageCount++
			out = newRedemptionDTO(record, redemption, false)
			return nil
		})
	})
	if err == nil {
		return out, nil
	}
	if db.IsUniqueViolation(err, redemptionConstraint) {
		return s.replay(ctx, code, orderRef, input.ProductID)
	}
	if pkgerrors.As(err) != nil {
		return nil, err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem promo code")
}

// replay answers a redemption that lost a race with the same order.
func (s *service) replay(ctx context.Context, code, orderRef string, productID uuid.UUID) (*RedemptionDTO, error) {
	promo, existing, err := s.repo.FindRedeemed(ctx, code, productID, orderRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load redemption")
	}
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "redemption is already in progress")
	}
	return newRedemptionDTO(promo, existing, true), nil
}

func (s *service) Create(ctx context.Context, productID uuid.UUID, input CreateInput) (*PromoCodeDTO, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, fieldError("code", "code is required")
	}
	if err := validateContext(input.Context); err != nil {
		return nil, err
	}
	if err := validateTerms(input.Percent, input.UsageLimit, input.ValidFrom, input.ValidUntil); err != nil {
		return nil, err
	}
	if err := s.ensureContext(ctx, productID, input.Context); err != nil {
		return nil, err
	}

	row := &models.PromoCode{
		Code:          code,
		ProductID:     productID,
		PricingType:   input.Context.Strategy,
		PricingItemID: input.Context.ItemID,
		Percent:       input.Percent,
		Description:   input.Description,
		UsageLimit:    input.UsageLimit,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
		IsActive:      true,
	}
	err := retry.Do(ctx, s.policy, func() error {
		return s.repo.Create(ctx, row)
	})
	if err != nil {
		if db.IsUniqueViolation(err, contextConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a code with this name already exists for this price").
				WithDetails(map[string]any{"field": "code"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert promo code")
	}
	dto := NewPromoCodeDTO(*row)
	return &dto, nil
}

func (s *service) List(ctx context.Context, productID uuid.UUID) ([]PromoCodeDTO, error) {
	rows, err := retry.Value(ctx, s.policy, func() ([]models.PromoCode, error) {
		return s.repo.ListByProduct(ctx, productID)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promo codes")
	}
	out := make([]PromoCodeDTO, len(rows))
	for i, row := range rows {
		out[i] = NewPromoCodeDTO(row)
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PromoCodeDTO, error) {
	var updated models.PromoCode
	err := retry.Do(ctx, s.policy, func() error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			row, err := txRepo.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
				}
				return err
			}
			applyUpdate(row, input)
			if err := validateTerms(row.Percent, row.UsageLimit, row.ValidFrom, row.ValidUntil); err != nil {
				return err
			}
			if err := txRepo.Update(ctx, row); err != nil {
				return err
			}
			updated = *row
			return nil
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promo code")
	}
	dto := NewPromoCodeDTO(updated)
	return &dto, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.Update(ctx, id, UpdateInput{IsActive: &inactive})
	return err
}

// MarkLapsed flags expired and used-up codes for admin listings. Lapsed
// codes stay matchable so customers see why they were refused.
func (s *service) MarkLapsed(ctx context.Context, now time.Time) (int64, error) {
	count, err := retry.Value(ctx, s.policy, func() (int64, error) {
		return s.repo.MarkLapsed(ctx, now)
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark lapsed promo codes")
	}
	return count, nil
}

// ensureContext checks that the product exists and that an item-scoped
// context names one of its tiers, ranges or sections.
func (s *service) ensureContext(ctx context.Context, productID uuid.UUID, pc pricing.PricingContext) error {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if pc.ItemID == nil {
		return nil
	}
	ok, err := s.products.ItemBelongsToProduct(ctx, productID, *pc.ItemID, itemTables[pc.Strategy])
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing item")
	}
	if !ok {
		return fieldError("pricing_item_id", "pricing item does not belong to this product")
	}
	return nil
}

func validateContext(pc pricing.PricingContext) error {
	if !pc.Strategy.IsValid() {
		return fieldError("pricing_type", "unknown pricing type")
	}
	if pc.Strategy.ItemScoped() && pc.ItemID == nil {
		return fieldError("pricing_item_id", fmt.Sprintf("pricing item is required for %s codes", pc.Strategy))
	}
	if !pc.Strategy.ItemScoped() && pc.ItemID != nil {
		return fieldError("pricing_item_id", fmt.Sprintf("%s codes cannot target a pricing item", pc.Strategy))
	}
	return nil
}

func validateTerms(percent decimal.Decimal, limit *int, from, until *time.Time) error {
	if !percent.IsPositive() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return fieldError("percent", "percentage must be greater than 0 and at most 100")
	}
	if limit != nil && *limit <= 0 {
		return fieldError("usage_limit", "usage limit must be positive")
	}
	if from != nil && until != nil && until.Before(*from) {
		return fieldError("valid_until", "end of validity must not precede its start")
	}
	return nil
}

// applyUpdate merges input into row. Changing the limit or the window clears
// lapsed_at; the next sweep stamps it again if the code is still spent.
func applyUpdate(row *models.PromoCode, input UpdateInput) {
	if input.ClearLimit || input.UsageLimit != nil || input.ValidFrom != nil || input.ValidUntil != nil {
		row.LapsedAt = nil
	}
	if input.Percent != nil {
		row.Percent = *input.Percent
	}
	if input.Description != nil {
		row.Description = input.Description
	}
	if input.ClearLimit {
		row.UsageLimit = nil
	} else if input.UsageLimit != nil {
		row.UsageLimit = input.UsageLimit
	}
	if input.ValidFrom != nil {
		row.ValidFrom = input.ValidFrom
	}
	if input.ValidUntil != nil {
		row.ValidUntil = input.ValidUntil
	}
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}
}

func rejection(reason enums.PromoRejectReason) error {
	return pkgerrors.New(pkgerrors.CodeConflict, reason.Message()).
		WithDetails(map[string]any{"reason": reason})
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}
