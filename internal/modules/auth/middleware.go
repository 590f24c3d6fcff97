package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/georgemunganga/supplier-onboarding/internal/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey struct{}

// AdminPasswordHeader carries the shared admin password on review routes.
const AdminPasswordHeader = "X-Admin-Password"

// SupplierIDFromContext returns the supplier id authenticated by RequireSupplier.
func SupplierIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}

// RequireSupplier rejects requests without a valid bearer token. When the route
// carries a {supplier_id} parameter it must match the token subject.
func RequireSupplier(issuer TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			token := strings.TrimPrefix(raw, "Bearer ")
			if raw == "" || token == raw {
				httpx.Error(w, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			supplierID, err := issuer.Parse(token)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, err)
				return
			}

			if param := chi.URLParam(r, "supplier_id"); param != "" && param != supplierID.String() {
				httpx.Error(w, http.StatusForbidden, ErrForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, supplierID)))
		})
	}
}

// AdminGuard checks the admin password header against a bcrypt hash.
func AdminGuard(passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			password := r.Header.Get(AdminPasswordHeader)
			if password == "" || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
				httpx.Error(w, http.StatusUnauthorized, ErrAdminPassword)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
