package product

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

// Service exposes product pricing administration and the read paths used by
// the storefront.
type Service interface {
	CreateProduct(ctx context.Context, input ProductPricingInput) (*PricingDTO, error)
	UpdatePricing(ctx context.Context, productID uuid.UUID, input ProductPricingInput) (*PricingDTO, error)
	GetPricing(ctx context.Context, productID uuid.UUID, quantity int) (*PricingDTO, error)
	LoadInput(ctx context.Context, productID uuid.UUID) (pricing.Input, error)
	ReplacePriceTiers(ctx context.Context, productID uuid.UUID, tiers []PriceTierInput) (*PricingDTO, error)
	ReplaceWeightTiers(ctx context.Context, productID uuid.UUID, tiers []WeightTierInput) (*PricingDTO, error)
	ReplaceQuantityDiscounts(ctx context.Context, productID uuid.UUID, rules []QuantityDiscountInput) (*PricingDTO, error)
	ReplaceSections(ctx context.Context, productID uuid.UUID, sections []SectionInput) (*PricingDTO, error)
	ReplaceRanges(ctx context.Context, productID uuid.UUID, ranges []RangeInput) (*PricingDTO, error)
	ReplaceRangeDiscountTiers(ctx context.Context, rangeID uuid.UUID, tiers []RangeDiscountTierInput) (*PricingDTO, error)
	ReplacePersonPriceTiers(ctx context.Context, productID uuid.UUID, tiers []PersonPriceTierInput) (*PricingDTO, error)
}

// ProductPricingInput is the full pricing configuration of a product. Either
// Strategy or the legacy Flags must be provided.
type ProductPricingInput struct {
	Name            string
	BasePrice       decimal.Decimal
	Strategy        *enums.PricingStrategy
	Flags           *pricing.StrategyFlags
	PricePerPerson  *decimal.Decimal
	MinPersons      int
	MaxPersons      *int
	BaseWeightGrams *int
	BaseWeightPrice *decimal.Decimal
	Promotion       *PromotionInput
	IsActive        *bool
}

// PromotionInput is an admin promotion. WholeDays widens the window to full
// days in the shop time zone.
type PromotionInput struct {
	Active     bool
	Type       *enums.PromotionType
	FixedPrice *decimal.Decimal
	Percent    *decimal.Decimal
	StartsAt   *time.Time
	EndsAt     *time.Time
	WholeDays  bool
}

// PriceTierInput keeps ID when supplied so codes scoped to the tier survive
// a replace.
type PriceTierInput struct {
	ID            *uuid.UUID
	BreakpointQty int
	Price         decimal.Decimal
	Promotion     *PromotionInput
}

type WeightTierInput struct {
	ID              *uuid.UUID
	BreakpointGrams int
	Price           decimal.Decimal
}

type QuantityDiscountInput struct {
	BreakpointQty int
	PercentOff    decimal.Decimal
}

type SectionInput struct {
	ID          *uuid.UUID
	Name        string
	Description *string
	Fraction    decimal.Decimal
	Price       decimal.Decimal
	IsActive    *bool
}

type RangeInput struct {
	ID             *uuid.UUID
	Name           string
	Description    *string
	PricePerPerson decimal.Decimal
	MinPersons     int
	MaxPersons     *int
	IsActive       *bool
	DiscountTiers  []RangeDiscountTierInput
}

type RangeDiscountTierInput struct {
	MinPersons int
	MaxPersons *int
	PercentOff decimal.Decimal
	IsActive   *bool
}

// PersonPriceTierInput is one person-count tier. PricePerPerson is read for
// fixed tiers and PercentOff for percent tiers.
type PersonPriceTierInput struct {
	ID             *uuid.UUID
	MinPersons     int
	MaxPersons     *int
	DiscountType   enums.PromotionType
	PricePerPerson *decimal.Decimal
	PercentOff     *decimal.Decimal
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	policy   retry.Policy
	loc      *time.Location
	now      func() time.Time
}

// NewService constructs the product pricing service.
func NewService(repo *Repository, dbClient *db.Client, policy retry.Policy, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		policy:   policy,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// CreateProduct stores a new product with its base pricing configuration.
func (s *service) CreateProduct(ctx context.Context, input ProductPricingInput) (*PricingDTO, error) {
	product := &models.Product{IsActive: true}
	if err := s.applyPricingInput(product, input); err != nil {
		return nil, err
	}
	product.ID = uuid.New()

	err := retry.Do(ctx, s.policy, func() error {
		_, err := s.repo.CreateProduct(ctx, product)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return s.GetPricing(ctx, product.ID, 0)
}

// UpdatePricing overwrites the pricing columns and product promotion.
func (s *service) UpdatePricing(ctx context.Context, productID uuid.UUID, input ProductPricingInput) (*PricingDTO, error) {
	err := s.write(ctx, productID, func(tx *Repository, product *models.Product) error {
		if err := s.applyPricingInput(product, input); err != nil {
			return err
		}
		if _, err := tx.UpdateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPricing(ctx, productID, 0)
}

// GetPricing returns the pricing configuration for display. A positive
// quantity adds the next quantity-discount hint.
func (s *service) GetPricing(ctx context.Context, productID uuid.UUID, quantity int) (*PricingDTO, error) {
	product, err := s.loadPricing(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewPricingDTO(product, quantity, s.now()), nil
}

// LoadInput reads every tier set of a product for the price composer.
func (s *service) LoadInput(ctx context.Context, productID uuid.UUID) (pricing.Input, error) {
	product, err := s.loadPricing(ctx, productID)
	if err != nil {
		return pricing.Input{}, err
	}
	return InputFromProduct(product), nil
}

func (s *service) ReplacePriceTiers(ctx context.Context, productID uuid.UUID, tiers []PriceTierInput) (*PricingDTO, error) {
	rows := make([]models.ProductPriceTier, len(tiers))
	for i, in := range tiers {
		rows[i] = models.ProductPriceTier{
			ID:            derefID(in.ID),
			BreakpointQty: in.BreakpointQty,
			Price:         in.Price,
			TierOrder:     i,
		}
		if in.Promotion != nil {
			rows[i].Promotion = s.promotionModel(*in.Promotion)
		}
	}
	if err := pricing.ValidatePriceTiers(rows); err != nil {
		return nil, err
	}

	err := s.write(ctx, productID, func(tx *Repository, _ *models.Product) error {
		if err := tx.ReplacePriceTiers(ctx, productID, rows); err != nil {
			return replaceError(err, "price tiers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPricing(ctx, productID, 0)
}

func (s *service) ReplaceWeightTiers(ctx context.Context, productID uuid.UUID, tiers []WeightTierInput) (*PricingDTO, error) {
	rows := make([]models.ProductWeightTier, len(tiers))
	for i, in := range tiers {
		rows[i] = models.ProductWeightTier{
			ID:              derefID(in.ID),
			BreakpointGrams: in.BreakpointGrams,
			Price:           in.Price,
			TierOrder:       i,
		}
	}
	if err := pricing.ValidateWeightTiers(rows); err != nil {
		return nil, err
	}

	err := s.write(ctx, productID, func(tx *Repository, _ *models.Product) error {
		if err := tx.ReplaceWeightTiers(ctx, productID, rows); err != nil {
			return replaceError(err, "weight tiers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPricing(ctx, productID, 0)
}

func (s *service) ReplaceQuantityDiscounts(ctx context.Context, productID uuid.UUID, rules []QuantityDiscountInput) (*PricingDTO, error) {
	rows := make([]models.QuantityDiscountRule, len(rules))
	for i, in := range rules {
		rows[i] = models.QuantityDiscountRule{
			BreakpointQty: in.BreakpointQty,
			PercentOff:    in.PercentOff,
		}
	}
	if err := pricing.ValidateLadder(rows); err != nil {
		return nil, err
	}

	err := s.write(ctx, productID, func(tx *Repository, _ *models.Product) error {
		if err := tx.ReplaceQuantityDiscounts(ctx, productID, rows); err != nil {
			return replaceError(err, "quantity discounts")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPricing(ctx, productID, 0)
}

func (s *service) ReplaceSections(ctx context.Context, productID uuid.UUID, sections []SectionInput) (*PricingDTO, error) {
	rows := make([]models.ProductSection, len(sections))
	for i, in := range sections {
		rows[i] = models.ProductSection{
			ID:          derefID(in.ID),
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Fraction:    in.Fraction,
			Price:       in.Price,
			SortOrder:   i,
			IsActive:    boolOr(in.IsActive, true),
		}
	}
	if err := pricing.ValidateSections(rows); err != nil {
		return nil, err
	}

	err := s.write(ctx, productID, func(tx *Repository, _ *models.Product) error {
		if err := tx.ReplaceSections(ctx, productID, rows); err != nil {
			return replaceError(err, "sections")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPricing(ctx, productID, 0)
}

func (s *service) ReplaceRanges(ctx context.Context, productID uuid.UUID, ranges []RangeInput) (*PricingDTO, error) {
	rows := make([]models.ProductRange, len(ranges))
	for i, in := range ranges {
		rows[i] = models.ProductRange{
			ID:             derefID(in.ID),
			Name:           strings.TrimSpace(in.Name),
			Description:    in.Description,
			PricePerPerson: in.PricePerPerson,
			MinPersons:     in.MinPersons,
			MaxPersons:     in.MaxPersons,
			SortOrder:      i,
			IsActive:       boolOr(in.IsActive, true),
			DiscountTiers:  rangeDiscountTierModels(in.DiscountTiers),
		}
	}
	if err := pricing.ValidateRanges(rows); err != nil {
		return nil, err
	}

	err := s.write(ctx, productID, func(tx *Repository, _ *models.Product) error {
		if err := tx.ReplaceRanges(ctx, productID, rows); err != nil {
			return replaceError(err, "ranges")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPricing(ctx, productID, 0)
}

func (s *service) ReplaceRangeDiscountTiers(ctx context.Context, rangeID uuid.UUID, tiers []RangeDiscountTierInput) (*PricingDTO, error) {
	rows := rangeDiscountTierModels(tiers)
	if err := pricing.ValidateRangeDiscountTiers(rows); err != nil {
		return nil, err
	}

	var productID uuid.UUID
	err := retry.Do(ctx, s.policy, func() error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			rng, err := txRepo.FindRange(ctx, rangeID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "range not found")
				}
				return err
			}
			productID = rng.ProductID
			if err := txRepo.ReplaceRangeDiscountTiers(ctx, rangeID, rows); err != nil {
				return replaceError(err, "range discount tiers")
			}
			return nil
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace range discount tiers")
	}
	return s.GetPricing(ctx, productID, 0)
}

func (s *service) ReplacePersonPriceTiers(ctx context.Context, productID uuid.UUID, tiers []PersonPriceTierInput) (*PricingDTO, error) {
	rows := make([]models.PersonPriceTier, len(tiers))
	for i, in := range tiers {
		rows[i] = models.PersonPriceTier{
			ID:             derefID(in.ID),
			MinPersons:     in.MinPersons,
			MaxPersons:     in.MaxPersons,
			DiscountType:   in.DiscountType,
			PricePerPerson: nullDecimal(in.PricePerPerson),
			PercentOff:     nullDecimal(in.PercentOff),
			TierOrder:      i,
		}
		if rows[i].DiscountType == "" {
			rows[i].DiscountType = enums.PromotionTypeFixed
		}
	}
	if err := pricing.ValidatePersonPriceTiers(rows, decimal.NullDecimal{}); err != nil {
		return nil, err
	}

	err := s.write(ctx, productID, func(tx *Repository, product *models.Product) error {
		if err := pricing.ValidatePersonPriceTiers(rows, product.PricePerPerson); err != nil {
			return err
		}
		if err := tx.ReplacePersonPriceTiers(ctx, productID, rows); err != nil {
			return replaceError(err, "person price tiers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPricing(ctx, productID, 0)
}

// write loads the product inside a transaction and runs fn against it. The
// whole transaction is retried on transient failures.
func (s *service) write(ctx context.Context, productID uuid.UUID, fn func(tx *Repository, product *models.Product) error) error {
	err := retry.Do(ctx, s.policy, func() error {
		return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			product, err := txRepo.FindByID(ctx, productID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return err
			}
			return fn(txRepo, product)
		})
	})
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product pricing")
}

func (s *service) loadPricing(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := retry.Value(ctx, s.policy, func() (*models.Product, error) {
		return s.repo.LoadPricing(ctx, productID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product pricing")
	}
	return product, nil
}

func (s *service) applyPricingInput(product *models.Product, input ProductPricingInput) error {
	strategy, err := resolveStrategy(input)
	if err != nil {
		return err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		product.Name = name
	}
	if strings.TrimSpace(product.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required").
			WithDetails(map[string]any{"field": "name"})
	}

	product.BasePrice = input.BasePrice
	product.PricingStrategy = strategy
	product.PricePerPerson = nullDecimal(input.PricePerPerson)
	product.MinPersons = input.MinPersons
	if product.MinPersons == 0 {
		product.MinPersons = 1
	}
	product.MaxPersons = input.MaxPersons
	product.BaseWeightGrams = input.BaseWeightGrams
	product.BaseWeightPrice = nullDecimal(input.BaseWeightPrice)
	product.Promotion = models.Promotion{}
	if input.Promotion != nil {
		product.Promotion = s.promotionModel(*input.Promotion)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	return pricing.ValidateProductPricing(*product)
}

func (s *service) promotionModel(in PromotionInput) models.Promotion {
	starts, ends := in.StartsAt, in.EndsAt
	if in.WholeDays {
		starts, ends = pricing.NormalizeDayBounds(starts, ends, s.loc)
	}
	return models.Promotion{
		Active:     in.Active,
		Type:       in.Type,
		FixedPrice: nullDecimal(in.FixedPrice),
		Percent:    nullDecimal(in.Percent),
		StartsAt:   starts,
		EndsAt:     ends,
	}
}

func resolveStrategy(input ProductPricingInput) (enums.PricingStrategy, error) {
	if input.Strategy != nil {
		if !input.Strategy.IsValid() {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown pricing strategy").
				WithDetails(map[string]any{"field": "pricing_strategy"})
		}
		return *input.Strategy, nil
	}
	if input.Flags != nil {
		return pricing.StrategyFromFlags(*input.Flags)
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "pricing strategy is required").
		WithDetails(map[string]any{"field": "pricing_strategy"})
}

func rangeDiscountTierModels(tiers []RangeDiscountTierInput) []models.RangeDiscountTier {
	rows := make([]models.RangeDiscountTier, len(tiers))
	for i, in := range tiers {
		rows[i] = models.RangeDiscountTier{
			MinPersons: in.MinPersons,
			MaxPersons: in.MaxPersons,
			PercentOff: in.PercentOff,
			IsActive:   boolOr(in.IsActive, true),
		}
	}
	return rows
}

// InputFromProduct splits a preloaded product into composer input.
func InputFromProduct(product *models.Product) pricing.Input {
	return pricing.Input{
		Product:     *product,
		PriceTiers:  product.PriceTiers,
		WeightTiers: product.WeightTiers,
		Ranges:      product.Ranges,
		Sections:    product.Sections,
		Ladder:      product.QuantityDiscounts,
		PersonTiers: product.PersonTiers,
	}
}

// replaceError maps a failed replace-all write. Breakpoints are checked
// beforehand, so a unique violation means a supplied id is owned by a row of
// another product.
func replaceError(err error, what string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "%s: an id belongs to another product", what).
			WithDetails(map[string]any{"field": "id"})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace "+what)
}

func derefID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}
