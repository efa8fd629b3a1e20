package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/mind-engage/answerset/internal/rbac"
	"github.com/mind-engage/answerset/internal/users"
)

type RoleLookup interface {
	ByID(ctx context.Context, id string) (users.User, error)
}

// AttachRoleFromDB replaces the token's role with the stored one, so role
// changes and removed accounts take effect before the token expires. The
// configured admin has no row and keeps its claim.
func AttachRoleFromDB(lookup RoleLookup, adminUser string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			if sub != "" && sub == adminUser && rbac.RoleFromContext(ctx) == RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			u, err := lookup.ByID(ctx, sub)
			switch {
			case err == nil && u.Role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, u.Role)))
			case err == nil, errors.Is(err, users.ErrNotFound):
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "role lookup failed", http.StatusServiceUnavailable)
			}
		})
	}
}
