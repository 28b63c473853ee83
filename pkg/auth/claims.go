package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/aumatinvert/storefront-api/pkg/enums"
)

// Claims is the token issued by the admin console or the checkout service.
// Subject identifies the operator or service.
type Claims struct {
	Role enums.APIRole `json:"role"`
	jwt.RegisteredClaims
}
