package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aumatinvert/storefront-api/pkg/auth"
	"github.com/aumatinvert/storefront-api/pkg/config"
	"github.com/aumatinvert/storefront-api/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "au-matin-vert"}

func mintTestToken(t *testing.T, subject string, role enums.APIRole) string {
	t.Helper()
	token, err := auth.MintToken(testJWT, time.Now(), subject, role, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireTokenRejectsMissingToken(t *testing.T) {
	handler := RequireToken(testJWT, nil, enums.APIRoleAdmin)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequireTokenRejectsInvalidToken(t *testing.T) {
	handler := RequireToken(testJWT, nil, enums.APIRoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequireTokenRejectsOtherRole(t *testing.T) {
	handler := RequireToken(testJWT, nil, enums.APIRoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, "checkout-svc", enums.APIRoleCheckout))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireTokenSeedsContext(t *testing.T) {
	var subject string
	var role enums.APIRole
	handler := RequireToken(testJWT, nil, enums.APIRoleAdmin, enums.APIRoleCheckout)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
		role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+mintTestToken(t, "checkout-svc", enums.APIRoleCheckout))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if subject != "checkout-svc" || role != enums.APIRoleCheckout {
		t.Fatalf("unexpected caller %q %q", subject, role)
	}
}
