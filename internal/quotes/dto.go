package quotes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aumatinvert/storefront-api/internal/pricing"
	"github.com/aumatinvert/storefront-api/pkg/enums"
)

const currency = "EUR"

// QuoteDTO is the priced basket.
type QuoteDTO struct {
	Currency string          `json:"currency"`
	Lines    []LineQuote     `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Savings  decimal.Decimal `json:"savings"`
	QuotedAt time.Time       `json:"quoted_at"`
}

// LineQuote is one priced line with the stage-by-stage breakdown.
type LineQuote struct {
	ProductID     uuid.UUID             `json:"product_id"`
	ProductName   string                `json:"product_name"`
	Strategy      enums.PricingStrategy `json:"pricing_strategy"`
	StrategyLabel string                `json:"pricing_strategy_label"`
	Quantity      int                   `json:"quantity"`
	Grams         int                   `json:"grams,omitempty"`
	Persons       int                   `json:"persons,omitempty"`
	RangeID       *uuid.UUID            `json:"range_id,omitempty"`
	SectionID     *uuid.UUID            `json:"section_id,omitempty"`
	UnitPrice     decimal.Decimal       `json:"unit_price"`
	LineTotal     decimal.Decimal       `json:"line_total"`
	Breakdown     pricing.Breakdown     `json:"breakdown"`
	NextDiscount  *pricing.LadderHint   `json:"next_discount,omitempty"`
	Fallback      bool                  `json:"fallback"`
	Warnings      []pricing.Warning     `json:"warnings,omitempty"`
}

func newLineQuote(line LineRequest, in pricing.Input, res pricing.Result, fallback bool) LineQuote {
	strategy := res.Breakdown.Strategy
	out := LineQuote{
		ProductID:     line.ProductID,
		ProductName:   in.Product.Name,
		Strategy:      strategy,
		StrategyLabel: strategy.Label(),
		Quantity:      res.Breakdown.Units,
		Grams:         line.Grams,
		Persons:       line.Persons,
		RangeID:       line.RangeID,
		SectionID:     line.SectionID,
		UnitPrice:     res.UnitPrice,
		LineTotal:     res.LineTotal,
		Breakdown:     res.Breakdown,
		Fallback:      fallback,
		Warnings:      res.Warnings,
	}
	if !fallback {
		if hint, ok := pricing.NextLadderRule(res.Breakdown.Units, in.Ladder); ok {
			out.NextDiscount = &hint
		}
	}
	return out
}
