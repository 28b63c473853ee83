package promocodes

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/internal/pricing"
	"github.com/aumatinvert/storefront-api/pkg/db/models"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
	"github.com/aumatinvert/storefront-api/pkg/retry"
)

type codeFinder interface {
	FindMatching(ctx context.Context, code string, productID uuid.UUID, pc pricing.PricingContext) (*models.PromoCode, error)
}

// Validation is the outcome of checking a code. Record is set whenever a
// code matched, even if it was rejected afterwards.
type Validation struct {
	Code    string
	Valid   bool
	Percent decimal.Decimal
	Reason  enums.PromoRejectReason
	Record  *models.PromoCode
}

// Validator checks promo codes without consuming them.
type Validator struct {
	store  codeFinder
	policy retry.Policy
	now    func() time.Time
}

// NewValidator builds a validator over store.
func NewValidator(store codeFinder, policy retry.Policy) *Validator {
	return &Validator{store: store, policy: policy, now: time.Now}
}

// withStore binds the validator to a transaction store. Lookups make one
// attempt; the caller retries the whole transaction.
func (v *Validator) withStore(store codeFinder) *Validator {
	return &Validator{store: store, policy: retry.Once(), now: v.now}
}

// NormalizeCode trims and upper-cases a customer-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate resolves code for the product and pricing context. Rejections are
// returned as a Validation with a reason; only store failures are errors.
func (v *Validator) Validate(ctx context.Context, code string, productID uuid.UUID, pc pricing.PricingContext) (Validation, error) {
	record, err := v.Lookup(ctx, code, productID, pc)
	if err != nil {
		return Validation{}, err
	}
	return Evaluate(NormalizeCode(code), record, v.now()), nil
}

// Lookup finds the code for the exact context and, failing that, a code
// issued for the flat context of the same product.
func (v *Validator) Lookup(ctx context.Context, code string, productID uuid.UUID, pc pricing.PricingContext) (*models.PromoCode, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, nil
	}

	record, err := v.find(ctx, normalized, productID, pc)
	if err != nil || record != nil {
		return record, err
	}
	if pc.Strategy == enums.PricingStrategyFlat && pc.ItemID == nil {
		return nil, nil
	}
	return v.find(ctx, normalized, productID, pricing.FlatContext)
}

func (v *Validator) find(ctx context.Context, code string, productID uuid.UUID, pc pricing.PricingContext) (*models.PromoCode, error) {
	record, err := retry.Value(ctx, v.policy, func() (*models.PromoCode, error) {
		return v.store.FindMatching(ctx, code, productID, pc)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup promo code")
	}
	return record, nil
}

// Evaluate applies the window and usage checks to a matched record. A nil
// record is rejected as not found.
func Evaluate(code string, record *models.PromoCode, now time.Time) Validation {
	out := Validation{Code: code, Record: record, Percent: decimal.Zero}
	switch {
	case record == nil:
		out.Reason = enums.PromoRejectNotFound
	case record.ValidFrom != nil && now.Before(*record.ValidFrom):
		out.Reason = enums.PromoRejectNotYetValid
	case record.ValidUntil != nil && now.After(*record.ValidUntil):
		out.Reason = enums.PromoRejectExpired
	case record.UsageLimit != nil && record.UsageCount >= *record.UsageLimit:
		out.Reason = enums.PromoRejectLimitReached
	default:
		out.Valid = true
		out.Percent = record.Percent
	}
	return out
}

// CheckCode lets the price composer consult the validator.
func (v *Validator) CheckCode(ctx context.Context, code string, productID uuid.UUID, pc pricing.PricingContext) (pricing.CodeCheck, error) {
	res, err := v.Validate(ctx, code, productID, pc)
	if err != nil {
		return pricing.CodeCheck{}, err
	}
	return pricing.CodeCheck{
		Code:    res.Code,
		Valid:   res.Valid,
		Percent: res.Percent,
		Reason:  res.Reason,
	}, nil
}
