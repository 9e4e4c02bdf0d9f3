package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/gearstore/api/responses"
	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
	"github.com/angelmondragon/gearstore/pkg/logger"
)

// SessionReader exposes the locally held session.
type SessionReader interface {
	IsAuthenticated(ctx context.Context) bool
	Subject(ctx context.Context) string
}

// Session seeds the request context with the shopper's user id when a
// session is held. Guests pass through untouched.
func Session(reader SessionReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reader == nil {
				next.ServeHTTP(w, r)
				return
			}
			subject := reader.Subject(r.Context())
			if subject == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithSubject(r.Context(), subject)
			if logg != nil {
				ctx = logg.WithUserID(ctx, subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests made without a held access token.
func RequireSession(reader SessionReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reader == nil || !reader.IsAuthenticated(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
