package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics counts quote and promo code outcomes.
type PricingMetrics struct {
	quoteLines  *prometheus.CounterVec
	validations *prometheus.CounterVec
	redemptions *prometheus.CounterVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	quoteLines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_quote_lines_total",
		Help: "Quoted lines by pricing strategy and outcome.",
	}, []string{"strategy", "outcome"})
	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_code_validations_total",
		Help: "Promo code validations by result.",
	}, []string{"result"})
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_code_redemptions_total",
		Help: "Promo code redemptions by result.",
	}, []string{"result"})
	reg.MustRegister(quoteLines, validations, redemptions)
	return &PricingMetrics{
		quoteLines:  quoteLines,
		validations: validations,
		redemptions: redemptions,
	}
}

// IncQuoteLine counts one priced line; fallback marks a degraded price.
func (m *PricingMetrics) IncQuoteLine(strategy string, fallback bool) {
	if m == nil || m.quoteLines == nil {
		return
	}
	outcome := "priced"
	if fallback {
		outcome = "fallback"
	}
	m.quoteLines.WithLabelValues(normalizeLabel(strategy), outcome).Inc()
}

// IncValidation counts a validation; result is "valid" or a reject reason.
func (m *PricingMetrics) IncValidation(result string) {
	if m == nil || m.validations == nil {
		return
	}
	m.validations.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncRedemption counts a redemption attempt by result.
func (m *PricingMetrics) IncRedemption(result string) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.WithLabelValues(normalizeLabel(result)).Inc()
}
