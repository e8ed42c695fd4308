package appMiddleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-korea-tour-explorer/internal/api"
)

// OptionalAuth attaches the caller identity when a valid bearer token is
// present. Missing or invalid tokens leave the request anonymous.
func OptionalAuth(v *Verifier, logger *slog.Logger) func(next http.Handler) http.Handler {
	l := logger.With(slog.String("middleware", "OptionalAuth"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			id, err := v.Verify(tokenString)
			if err != nil {
				l.WarnContext(r.Context(), "Ignoring invalid bearer token", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *id)))
		})
	}
}

// RequireAuth rejects requests without an identity. It must run after OptionalAuth.
func RequireAuth(logger *slog.Logger) func(next http.Handler) http.Handler {
	l := logger.With(slog.String("middleware", "RequireAuth"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				l.WarnContext(r.Context(), "Rejecting unauthenticated request", slog.String("path", r.URL.Path))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	headerParts := strings.SplitN(authHeader, " ", 2)
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(headerParts[1])
	return token, token != ""
}
