package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	productsvc "github.com/aumatinvert/storefront-api/internal/products"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

type stubProductService struct {
	productsvc.Service

	pricingInput  productsvc.ProductPricingInput
	priceTiers    []productsvc.PriceTierInput
	sections      []productsvc.SectionInput
	ranges        []productsvc.RangeInput
	rangeTiers    []productsvc.RangeDiscountTierInput
	rangeID       uuid.UUID
	quantityRules []productsvc.QuantityDiscountInput
	personTiers   []productsvc.PersonPriceTierInput
	err           error
}

func (s *stubProductService) result(id uuid.UUID) (*productsvc.PricingDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &productsvc.PricingDTO{ProductID: id}, nil
}

func (s *stubProductService) CreateProduct(_ context.Context, input productsvc.ProductPricingInput) (*productsvc.PricingDTO, error) {
	s.pricingInput = input
	return s.result(uuid.New())
}

func (s *stubProductService) UpdatePricing(_ context.Context, id uuid.UUID, input productsvc.ProductPricingInput) (*productsvc.PricingDTO, error) {
	s.pricingInput = input
	return s.result(id)
}

func (s *stubProductService) ReplacePriceTiers(_ context.Context, id uuid.UUID, tiers []productsvc.PriceTierInput) (*productsvc.PricingDTO, error) {
	s.priceTiers = tiers
	return s.result(id)
}

func (s *stubProductService) ReplaceQuantityDiscounts(_ context.Context, id uuid.UUID, rules []productsvc.QuantityDiscountInput) (*productsvc.PricingDTO, error) {
	s.quantityRules = rules
	return s.result(id)
}

func (s *stubProductService) ReplaceSections(_ context.Context, id uuid.UUID, sections []productsvc.SectionInput) (*productsvc.PricingDTO, error) {
	s.sections = sections
	return s.result(id)
}

func (s *stubProductService) ReplaceRanges(_ context.Context, id uuid.UUID, ranges []productsvc.RangeInput) (*productsvc.PricingDTO, error) {
	s.ranges = ranges
	return s.result(id)
}

func (s *stubProductService) ReplaceRangeDiscountTiers(_ context.Context, rangeID uuid.UUID, tiers []productsvc.RangeDiscountTierInput) (*productsvc.PricingDTO, error) {
	s.rangeID = rangeID
	s.rangeTiers = tiers
	return s.result(uuid.New())
}

func (s *stubProductService) ReplacePersonPriceTiers(_ context.Context, id uuid.UUID, tiers []productsvc.PersonPriceTierInput) (*productsvc.PricingDTO, error) {
	s.personTiers = tiers
	return s.result(id)
}

func productParams(id uuid.UUID) map[string]string {
	return map[string]string{"productId": id.String()}
}

func TestAdminCreateProduct(t *testing.T) {
	svc := &stubProductService{}
	body := `{"name":" Fraisier ","base_price":"32.00","pricing_strategy":"section"}`

	rec := serve(AdminCreateProduct(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/admin/products", body, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.pricingInput.Name != "Fraisier" {
		t.Fatalf("expected sanitized name, got %q", svc.pricingInput.Name)
	}
	if svc.pricingInput.Strategy == nil || *svc.pricingInput.Strategy != enums.PricingStrategySection {
		t.Fatalf("unexpected strategy %v", svc.pricingInput.Strategy)
	}
}

func TestAdminUpdatePricingParsesPromotionAndFlags(t *testing.T) {
	svc := &stubProductService{}
	id := uuid.New()
	body := `{"name":"Baguette","base_price":"1.20","flags":{"use_price_tiers":true},` +
		`"promotion":{"active":true,"type":"percent","percent":"15","whole_days":true}}`

	rec := serve(AdminUpdatePricing(svc, testLogger()), newRequest(http.MethodPut, "/", body, productParams(id)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.pricingInput
	if in.Flags == nil || !in.Flags.UsePriceTiers {
		t.Fatalf("expected legacy flags to pass through")
	}
	if in.Promotion == nil || in.Promotion.Type == nil || *in.Promotion.Type != enums.PromotionTypePercent || !in.Promotion.WholeDays {
		t.Fatalf("unexpected promotion %+v", in.Promotion)
	}
	if !in.Promotion.Percent.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected percent %s", in.Promotion.Percent)
	}
}

func TestAdminUpdatePricingRejectsInvalidInput(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name string
		body string
	}{
		{"unknown strategy", `{"name":"Baguette","base_price":"1.20","pricing_strategy":"bulk"}`},
		{"unknown promotion type", `{"name":"Baguette","base_price":"1.20","promotion":{"active":true,"type":"bogo"}}`},
		{"percent above 100", `{"name":"Baguette","base_price":"1.20","promotion":{"active":true,"type":"percent","percent":"120"}}`},
		{"negative base price", `{"name":"Baguette","base_price":"-1"}`},
		{"missing name", `{"base_price":"1.20"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubProductService{}
			rec := serve(AdminUpdatePricing(svc, nil), newRequest(http.MethodPut, "/", tt.body, productParams(id)))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422 got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAdminReplacePriceTiersKeepsIDs(t *testing.T) {
	svc := &stubProductService{}
	id := uuid.New()
	tierID := uuid.New()
	body := `{"tiers":[{"id":"` + tierID.String() + `","breakpoint_qty":6,"price":"11.00"},{"breakpoint_qty":12,"price":"10.00"}]}`

	rec := serve(AdminReplacePriceTiers(svc, testLogger()), newRequest(http.MethodPut, "/", body, productParams(id)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.priceTiers) != 2 {
		t.Fatalf("expected two tiers, got %d", len(svc.priceTiers))
	}
	if svc.priceTiers[0].ID == nil || *svc.priceTiers[0].ID != tierID || svc.priceTiers[1].ID != nil {
		t.Fatalf("tier ids not preserved: %+v", svc.priceTiers)
	}
}

func TestAdminReplacePriceTiersSurfacesServiceValidation(t *testing.T) {
	svc := &stubProductService{err: pkgerrors.New(pkgerrors.CodeValidation, "breakpoint 6 duplicated")}
	body := `{"tiers":[{"breakpoint_qty":6,"price":"11.00"},{"breakpoint_qty":6,"price":"10.00"}]}`

	rec := serve(AdminReplacePriceTiers(svc, nil), newRequest(http.MethodPut, "/", body, productParams(uuid.New())))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	if msg := decodeEnvelope(t, rec).Error.Message; msg != "breakpoint 6 duplicated" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAdminReplaceQuantityDiscounts(t *testing.T) {
	svc := &stubProductService{}
	body := `{"rules":[{"breakpoint_qty":10,"percent_off":"10"},{"breakpoint_qty":20,"percent_off":"15"}]}`

	rec := serve(AdminReplaceQuantityDiscounts(svc, nil), newRequest(http.MethodPut, "/", body, productParams(uuid.New())))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(svc.quantityRules) != 2 || !svc.quantityRules[1].PercentOff.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected rules %+v", svc.quantityRules)
	}
}

func TestAdminReplaceSectionsSanitizesText(t *testing.T) {
	svc := &stubProductService{}
	body := `{"sections":[{"name":"  Quart ","description":"   ","fraction":"0.25","price":"9.50"}]}`

	rec := serve(AdminReplaceSections(svc, nil), newRequest(http.MethodPut, "/", body, productParams(uuid.New())))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.sections[0].Name != "Quart" || svc.sections[0].Description != nil {
		t.Fatalf("unexpected section %+v", svc.sections[0])
	}

	rec = serve(AdminReplaceSections(svc, nil), newRequest(http.MethodPut, "/", `{"sections":[{"fraction":"0.25","price":"9.50"}]}`, productParams(uuid.New())))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unnamed section, got %d", rec.Code)
	}
}

func TestAdminReplaceRangesCarriesDiscountTiers(t *testing.T) {
	svc := &stubProductService{}
	body := `{"ranges":[{"name":"Buffet","price_per_person":"18.00","min_persons":10,"max_persons":80,` +
		`"discount_tiers":[{"min_persons":30,"percent_off":"5"},{"min_persons":50,"max_persons":80,"percent_off":"10"}]}]}`

	rec := serve(AdminReplaceRanges(svc, nil), newRequest(http.MethodPut, "/", body, productParams(uuid.New())))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.ranges) != 1 || len(svc.ranges[0].DiscountTiers) != 2 {
		t.Fatalf("unexpected ranges %+v", svc.ranges)
	}
	if max := svc.ranges[0].DiscountTiers[1].MaxPersons; max == nil || *max != 80 {
		t.Fatalf("expected max persons on second tier")
	}
}

func TestAdminReplaceRangeDiscountTiers(t *testing.T) {
	svc := &stubProductService{}
	rangeID := uuid.New()
	body := `{"tiers":[{"min_persons":20,"percent_off":"7.5"}]}`

	rec := serve(AdminReplaceRangeDiscountTiers(svc, nil),
		newRequest(http.MethodPut, "/", body, map[string]string{"rangeId": rangeID.String()}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.rangeID != rangeID || len(svc.rangeTiers) != 1 {
		t.Fatalf("unexpected call %s %+v", svc.rangeID, svc.rangeTiers)
	}

	rec = serve(AdminReplaceRangeDiscountTiers(svc, nil),
		newRequest(http.MethodPut, "/", body, map[string]string{"rangeId": "buffet"}))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestAdminReplacePersonPriceTiersParsesDiscountType(t *testing.T) {
	svc := &stubProductService{}
	body := `{"tiers":[{"min_persons":5,"max_persons":9,"price_per_person":"10.50"},` +
		`{"min_persons":10,"discount_type":"percent","percent_off":"10"}]}`

	rec := serve(AdminReplacePersonPriceTiers(svc, testLogger()), newRequest(http.MethodPut, "/", body, productParams(uuid.New())))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.personTiers) != 2 {
		t.Fatalf("expected two tiers, got %d", len(svc.personTiers))
	}
	if svc.personTiers[0].DiscountType != enums.PromotionTypeFixed || svc.personTiers[1].DiscountType != enums.PromotionTypePercent {
		t.Fatalf("unexpected discount types %+v", svc.personTiers)
	}
	if max := svc.personTiers[0].MaxPersons; max == nil || *max != 9 {
		t.Fatalf("expected max persons on first tier")
	}

	svc = &stubProductService{}
	rec = serve(AdminReplacePersonPriceTiers(svc, nil), newRequest(http.MethodPut, "/",
		`{"tiers":[{"min_persons":5,"discount_type":"half","percent_off":"50"}]}`, productParams(uuid.New())))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	if svc.personTiers != nil {
		t.Fatalf("service must not be called for an unknown discount type")
	}
}

func TestAdminReplaceSurfacesForeignIDConflict(t *testing.T) {
	svc := &stubProductService{err: pkgerrors.New(pkgerrors.CodeConflict, "sections: an id belongs to another product").
		WithDetails(map[string]any{"field": "id"})}
	body := `{"sections":[{"id":"` + uuid.NewString() + `","name":"Quart","fraction":"0.25","price":"9.50"}]}`

	rec := serve(AdminReplaceSections(svc, nil), newRequest(http.MethodPut, "/", body, productParams(uuid.New())))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rec.Code, rec.Body.String())
	}
}
