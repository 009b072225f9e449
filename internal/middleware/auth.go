package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityResolver turns a bearer token into the caller's identity. Unknown tokens resolve to
// the zero identity without error.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (models.Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Authenticate resolves the bearer token, if any, and stores the identity on the request
// context. Anonymous requests pass through; RequireAuth rejects them where needed.
func Authenticate(resolver IdentityResolver, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.WithError(err).Error("failed to resolve session", nil)
				writeError(w, apperrors.From(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAuth rejects requests without a signed-in identity.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFrom(r.Context()).Authenticated() {
			writeError(w, apperrors.Unauthorized("sign in to continue"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the caller's identity, or the zero identity for anonymous requests.
func IdentityFrom(ctx context.Context) models.Identity {
	identity, _ := ctx.Value(identityKey).(models.Identity)
	return identity
}
