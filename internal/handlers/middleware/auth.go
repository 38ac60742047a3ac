package middleware

import (
	"context"
	"net/http"

	"github.com/dsim/backend/internal/handlers/render"
	"github.com/dsim/backend/internal/handlers/userctx"
	"github.com/dsim/backend/internal/models"
)

type AuthService interface {
	// Resolve the request to a verified session identity
	Auth(ctx context.Context, r *http.Request) (models.Session, error)
}

// NewAuth guards protected routes: requests without a verifiable access
// token are rejected before any handler logic runs
func NewAuth(as AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := as.Auth(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
