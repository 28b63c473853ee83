package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"

	promosvc "github.com/aumatinvert/storefront-api/internal/promocodes"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
)

func TestAdminCreatePromoCode(t *testing.T) {
	svc := &stubPromoService{}
	productID := uuid.New()
	tierID := uuid.New()
	body := `{"code":"LOT12","pricing_type":"quantity_tier","pricing_item_id":"` + tierID.String() + `",` +
		`"percent":"12.5","description":"  Offre lot ","usage_limit":50}`

	rec := serve(AdminCreatePromoCode(svc, testLogger()), newRequest(http.MethodPost, "/", body, productParams(productID)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.createInput
	if svc.createdFor != productID || in.Context.Strategy != enums.PricingStrategyQuantityTier || *in.Context.ItemID != tierID {
		t.Fatalf("unexpected create call %+v", in)
	}
	if in.Description == nil || *in.Description != "Offre lot" {
		t.Fatalf("expected sanitized description, got %v", in.Description)
	}
	if in.UsageLimit == nil || *in.UsageLimit != 50 {
		t.Fatalf("unexpected usage limit %v", in.UsageLimit)
	}
}

func TestAdminCreatePromoCodeRejectsBadTerms(t *testing.T) {
	productID := uuid.New()
	tests := []struct {
		name string
		body string
	}{
		{"zero percent", `{"code":"ZERO","percent":"0"}`},
		{"over 100 percent", `{"code":"TROP","percent":"101"}`},
		{"short code", `{"code":"AB","percent":"10"}`},
		{"negative usage limit", `{"code":"NEG","percent":"10","usage_limit":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubPromoService{}
			rec := serve(AdminCreatePromoCode(svc, nil), newRequest(http.MethodPost, "/", tt.body, productParams(productID)))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422 got %d", rec.Code)
			}
		})
	}
}

func TestAdminCreatePromoCodeConflict(t *testing.T) {
	svc := &stubPromoService{err: pkgerrors.New(pkgerrors.CodeConflict, "promo code already exists for this context")}
	rec := serve(AdminCreatePromoCode(svc, nil), newRequest(http.MethodPost, "/", `{"code":"BIENVENUE","percent":"10"}`, productParams(uuid.New())))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestAdminListPromoCodes(t *testing.T) {
	svc := &stubPromoService{}
	productID := uuid.New()
	rec := serve(AdminListPromoCodes(svc, nil), newRequest(http.MethodGet, "/", "", productParams(productID)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var codes []promosvc.PromoCodeDTO
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &codes); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(codes) != 1 || codes[0].ProductID != productID {
		t.Fatalf("unexpected codes %+v", codes)
	}
}

func TestAdminUpdatePromoCode(t *testing.T) {
	svc := &stubPromoService{}
	id := uuid.New()
	body := `{"percent":"20","clear_usage_limit":true,"is_active":false}`

	rec := serve(AdminUpdatePromoCode(svc, nil), newRequest(http.MethodPatch, "/", body, map[string]string{"promoCodeId": id.String()}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.updateInput
	if in.Percent == nil || in.Percent.String() != "20" || !in.ClearLimit || in.IsActive == nil || *in.IsActive {
		t.Fatalf("unexpected update %+v", in)
	}
}

func TestAdminDeactivatePromoCode(t *testing.T) {
	svc := &stubPromoService{}
	id := uuid.New()

	rec := serve(AdminDeactivatePromoCode(svc, nil), newRequest(http.MethodDelete, "/", "", map[string]string{"promoCodeId": id.String()}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if svc.deactivated != id {
		t.Fatalf("expected %s deactivated, got %s", id, svc.deactivated)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
	rec = serve(AdminDeactivatePromoCode(svc, nil), newRequest(http.MethodDelete, "/", "", map[string]string{"promoCodeId": id.String()}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
