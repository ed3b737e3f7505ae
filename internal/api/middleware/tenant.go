package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/tenancy"
	"go.uber.org/zap"
)

const (
	TenantHeader = "X-Tenant"
	TenantCookie = "tenant"
)

// TenantResolver looks tenants up by id or slug and answers membership.
type TenantResolver interface {
	FindTenant(ctx context.Context, ref string) (*domain.Tenant, error)
	IsMember(ctx context.Context, tenantID, userID int64) (bool, error)
}

// RoleChecker answers whether a user holds a named role in a tenant.
type RoleChecker interface {
	HasRole(ctx context.Context, userID int64, name string, tenantID int64) (bool, error)
}

// TenantContext binds the requested tenant to the request context when the
// authenticated user is a member of it. The tenant is read from the
// X-Tenant header, falling back to the tenant cookie. Unknown tenants and
// non-members leave the request unbound; it still proceeds.
func TenantContext(tenants TenantResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ref := requestedTenant(r)
			userID, authed := UserIDFromContext(r.Context())
			if ref == "" || !authed {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			t, err := tenants.FindTenant(ctx, ref)
			if err != nil {
				logger.Debug("requested tenant not resolved", zap.String("tenant", ref), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ok, err := tenants.IsMember(ctx, t.ID, userID)
			if err != nil {
				logger.Error("membership check failed", zap.Int64("tenant_id", t.ID), zap.Int64("user_id", userID), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				logger.Info("user is not a member of requested tenant", zap.Int64("tenant_id", t.ID), zap.Int64("user_id", userID))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(tenancy.WithTenant(ctx, t)))
		})
	}
}

// RequireTenant rejects requests that TenantContext left unbound.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tenancy.FromContext(r.Context()) == nil {
			writeError(w, http.StatusForbidden, "no tenant selected or not a member")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole allows the request only if the user holds role in the bound
// tenant.
func RequireRole(roles RoleChecker, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, bound := tenancy.IDFromContext(r.Context())
			userID, authed := UserIDFromContext(r.Context())
			if !bound || !authed {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}

			ok, err := roles.HasRole(r.Context(), userID, role, tenantID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to check role")
				return
			}
			if !ok {
				writeError(w, http.StatusForbidden, role+" role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestedTenant(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(TenantHeader)); v != "" {
		return v
	}
	if c, err := r.Cookie(TenantCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
