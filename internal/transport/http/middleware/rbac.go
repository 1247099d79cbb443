package middleware

import (
	"context"
	"net/http"

	"bizdash/internal/requestctx"
	"bizdash/internal/transport/http/api"
)

// PermissionStore answers whether a role name grants a permission.
type PermissionStore interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

// RequirePermission rejects anonymous callers and callers without a tenant
// with 401, and callers whose role lacks permission with 403.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok || user.TenantID == "" {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}

			allowed, err := store.HasPermission(r.Context(), user.RoleName, permission)
			if err != nil {
				requestctx.Logger(r.Context()).Error("permission check failed", "permission", permission, "err", err)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
				return
			}
			if !allowed {
				requestctx.Logger(r.Context()).Debug("permission denied", "role", user.RoleName, "permission", permission, "userId", user.UserID)
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
