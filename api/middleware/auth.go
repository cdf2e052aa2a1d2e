package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/verdantmarket/catalog-maintenance/api/responses"
	pkgAuth "github.com/verdantmarket/catalog-maintenance/pkg/auth"
	"github.com/verdantmarket/catalog-maintenance/pkg/config"
	pkgerrors "github.com/verdantmarket/catalog-maintenance/pkg/errors"
	"github.com/verdantmarket/catalog-maintenance/pkg/logger"
)

// Auth validates a bearer service token and seeds the request context
// with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseServiceToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxSubject, claims.Subject)
			ctx = context.WithValue(ctx, ctxScopes, claims.Scopes)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"token_subject": claims.Subject,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects callers whose token does not grant the scope.
func RequireScope(scope string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := pkgAuth.ServiceTokenClaims{Scopes: ScopesFromContext(r.Context())}
			if !claims.HasScope(scope) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "insufficient scope"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
