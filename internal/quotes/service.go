package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/internal/pricing"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
	"github.com/aumatinvert/storefront-api/pkg/logger"
	"github.com/aumatinvert/storefront-api/pkg/metrics"
)

const maxLines = 100

type inputLoader interface {
	LoadInput(ctx context.Context, productID uuid.UUID) (pricing.Input, error)
}

// Service prices storefront baskets.
type Service interface {
	Quote(ctx context.Context, req QuoteRequest) (*QuoteDTO, error)
}

// QuoteRequest is a basket to price.
type QuoteRequest struct {
	Lines []LineRequest
}

// LineRequest is one product selection of a basket.
type LineRequest struct {
	ProductID uuid.UUID
	Quantity  int
	Grams     int
	Persons   int
	RangeID   *uuid.UUID
	SectionID *uuid.UUID
	PromoCode string
}

type service struct {
	products inputLoader
	codes    pricing.CodeChecker
	metrics  *metrics.PricingMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the quote service. codes may be nil to disable promo
// codes; metrics and logg are optional.
func NewService(products inputLoader, codes pricing.CodeChecker, m *metrics.PricingMetrics, logg *logger.Logger) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{
		products: products,
		codes:    codes,
		metrics:  m,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Quote prices every line at the same instant. Selections outside a
// product's bounds fail the whole quote; unexpected failures on a line
// degrade that line to its base price with a warning.
func (s *service) Quote(ctx context.Context, req QuoteRequest) (*QuoteDTO, error) {
	if len(req.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote must contain at least one line").
			WithDetails(map[string]any{"field": "lines"})
	}
	if len(req.Lines) > maxLines {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quote cannot contain more than %d lines", maxLines).
			WithDetails(map[string]any{"field": "lines"})
	}

	now := s.now()
	inputs := make(map[uuid.UUID]pricing.Input, len(req.Lines))
	codeByProduct := make(map[uuid.UUID]string, len(req.Lines))

	out := &QuoteDTO{
		Currency: currency,
		Lines:    make([]LineQuote, 0, len(req.Lines)),
		Subtotal: decimal.Zero,
		Savings:  decimal.Zero,
		QuotedAt: now,
	}

	for i, line := range req.Lines {
		in, ok := inputs[line.ProductID]
		if !ok {
			loaded, err := s.products.LoadInput(ctx, line.ProductID)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", line.ProductID).
						WithDetails(map[string]any{"field": fmt.Sprintf("lines[%d].product_id", i)})
				}
				return nil, err
			}
			in = loaded
			inputs[line.ProductID] = in
		}

		sel := pricing.Selection{
			Quantity:  line.Quantity,
			Grams:     line.Grams,
			Persons:   line.Persons,
			RangeID:   line.RangeID,
			SectionID: line.SectionID,
			PromoCode: strings.TrimSpace(line.PromoCode),
		}

		var warnings []pricing.Warning
		if code := strings.ToUpper(sel.PromoCode); code != "" {
			if prev, seen := codeByProduct[line.ProductID]; seen && prev != code {
				warnings = append(warnings, pricing.Warning{
					Type:    enums.QuoteWarningPromoAlreadyUsed,
					Message: fmt.Sprintf("le code %s est déjà appliqué à ce produit", prev),
				})
				sel.PromoCode = ""
			} else {
				codeByProduct[line.ProductID] = code
			}
		}

		res, err := pricing.Compose(ctx, in, sel, s.codes, now)
		fallback := false
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				return nil, prefixField(err, i)
			}
			s.logWarn(ctx, line.ProductID, err)
			res = pricing.Fallback(in, sel, "prix de base appliqué suite à une erreur de calcul")
			fallback = true
		}
		res.Warnings = append(warnings, res.Warnings...)
		if !fallback && tierNotReached(res.Breakdown) {
			res.Warnings = append(res.Warnings, pricing.Warning{
				Type:    enums.QuoteWarningTierNotReached,
				Message: "aucun palier atteint, prix de base appliqué",
			})
		}
		s.metrics.IncQuoteLine(string(res.Breakdown.Strategy), fallback)

		out.Lines = append(out.Lines, newLineQuote(line, in, res, fallback))
		out.Subtotal = out.Subtotal.Add(res.LineTotal)
		out.Savings = out.Savings.Add(res.Breakdown.Savings)
	}
	return out, nil
}

func (s *service) logWarn(ctx context.Context, productID uuid.UUID, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithProductID(ctx, productID.String())
	ctx = s.logg.WithField(ctx, "error_code", string(pkgerrors.As(err).Code()))
	s.logg.Warn(ctx, "pricing fallback applied: "+err.Error())
}

func tierNotReached(bd pricing.Breakdown) bool {
	switch bd.Strategy {
	case enums.PricingStrategyQuantityTier, enums.PricingStrategyWeightTier:
		return bd.Context.ItemID == nil
	default:
		return false
	}
}

// prefixField points a line validation error at the offending line.
func prefixField(err error, index int) error {
	typed := pkgerrors.As(err)
	details, _ := typed.Details().(map[string]any)
	field, _ := details["field"].(string)
	return pkgerrors.New(typed.Code(), typed.Message()).
		WithDetails(map[string]any{"field": fmt.Sprintf("lines[%d].%s", index, field)})
}
