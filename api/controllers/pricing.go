package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/aumatinvert/storefront-api/api/responses"
	"github.com/aumatinvert/storefront-api/api/validators"
	productsvc "github.com/aumatinvert/storefront-api/internal/products"
	quotesvc "github.com/aumatinvert/storefront-api/internal/quotes"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
	"github.com/aumatinvert/storefront-api/pkg/logger"
)

type quoter interface {
	Quote(ctx context.Context, req quotesvc.QuoteRequest) (*quotesvc.QuoteDTO, error)
}

type pricingReader interface {
	GetPricing(ctx context.Context, productID uuid.UUID, quantity int) (*productsvc.PricingDTO, error)
}

type quoteRequest struct {
	Lines []quoteLineRequest `json:"lines" validate:"required,min=1,max=100,dive"`
}

type quoteLineRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	Quantity  int        `json:"quantity"`
	Grams     int        `json:"grams"`
	Persons   int        `json:"persons"`
	RangeID   *uuid.UUID `json:"range_id,omitempty"`
	SectionID *uuid.UUID `json:"section_id,omitempty"`
	PromoCode string     `json:"promo_code,omitempty" validate:"max=64"`
}

func (r quoteRequest) toQuoteRequest() quotesvc.QuoteRequest {
	lines := make([]quotesvc.LineRequest, 0, len(r.Lines))
	for _, line := range r.Lines {
		lines = append(lines, quotesvc.LineRequest{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Grams:     line.Grams,
			Persons:   line.Persons,
			RangeID:   line.RangeID,
			SectionID: line.SectionID,
			PromoCode: validators.SanitizeString(line.PromoCode, 64),
		})
	}
	return quotesvc.QuoteRequest{Lines: lines}
}

// Quote prices a basket. Lines that cannot be priced exactly come back with
// the flat fallback and a warning rather than failing the request.
func Quote(svc quoter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), payload.toQuoteRequest())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// ProductPricing returns the display configuration of a product. The optional
// quantity query parameter drives the next-discount hint.
func ProductPricing(svc pricingReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithProductID(ctx, productID.String())
		}
		dto, err := svc.GetPricing(ctx, productID, quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
