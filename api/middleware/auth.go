package middleware

import (
	"net/http"
	"strings"

	"github.com/aumatinvert/storefront-api/api/responses"
	pkgAuth "github.com/aumatinvert/storefront-api/pkg/auth"
	"github.com/aumatinvert/storefront-api/pkg/config"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	pkgerrors "github.com/aumatinvert/storefront-api/pkg/errors"
	"github.com/aumatinvert/storefront-api/pkg/logger"
)

// RequireToken validates a bearer token and admits only the listed roles.
func RequireToken(cfg config.JWTConfig, logg *logger.Logger, roles ...enums.APIRole) func(http.Handler) http.Handler {
	allowed := make(map[enums.APIRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if _, ok := allowed[claims.Role]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeForbidden, "role %s not permitted", claims.Role))
				return
			}

			ctx := WithSubject(r.Context(), claims.Subject, claims.Role)
			if logg != nil {
				ctx = logg.WithAdmin(ctx, claims.Subject)
				ctx = logg.WithField(ctx, "api_role", string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
