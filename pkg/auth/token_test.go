package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aumatinvert/storefront-api/pkg/config"
	"github.com/aumatinvert/storefront-api/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "au-matin-vert"}

func TestMintAndParseToken(t *testing.T) {
	now := time.Now().UTC()
	token, err := MintToken(testJWT, now, "marie@aumatinvert.fr", enums.APIRoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	claims, err := ParseToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != enums.APIRoleAdmin {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Subject != "marie@aumatinvert.fr" {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Issuer != testJWT.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := MintToken(testJWT, time.Now().Add(-2*time.Hour), "checkout", enums.APIRoleCheckout, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if _, err := ParseToken(testJWT, token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestParseTokenRejectsWrongIssuerAndSecret(t *testing.T) {
	token, _ := MintToken(testJWT, time.Now(), "checkout", enums.APIRoleCheckout, time.Hour)

	if _, err := ParseToken(config.JWTConfig{Secret: "secret", Issuer: "other"}, token); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
	if _, err := ParseToken(config.JWTConfig{Secret: "nope", Issuer: testJWT.Issuer}, token); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestParseTokenRejectsUnknownRole(t *testing.T) {
	claims := Claims{
		Role: "customer",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testJWT.Issuer,
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(testJWT, token); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestMintTokenValidatesInput(t *testing.T) {
	now := time.Now()
	if _, err := MintToken(config.JWTConfig{Issuer: "x"}, now, "s", enums.APIRoleAdmin, time.Hour); err == nil {
		t.Fatalf("expected missing secret error")
	}
	if _, err := MintToken(testJWT, now, " ", enums.APIRoleAdmin, time.Hour); err == nil {
		t.Fatalf("expected missing subject error")
	}
	if _, err := MintToken(testJWT, now, "s", "owner", time.Hour); err == nil {
		t.Fatalf("expected role error")
	}
	if _, err := MintToken(testJWT, now, "s", enums.APIRoleAdmin, 0); err == nil {
		t.Fatalf("expected ttl error")
	}
}
