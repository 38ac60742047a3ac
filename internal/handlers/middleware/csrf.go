package middleware

import (
	"net/http"

	"github.com/dsim/backend/internal/handlers/render"
)

type CSRFService interface {
	// Verify the double-submit cookie/header pair
	CheckCSRF(r *http.Request) error
}

// NewCSRF rejects state-changing session calls whose CSRF header does not
// echo the CSRF cookie. This is a forgery rejection, not a missing-identity
// one, hence 403 rather than 401.
func NewCSRF(cs CSRFService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := cs.CheckCSRF(r); err != nil {
				render.ServiceError(w, "Invalid CSRF token", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
