// Package tenancy carries the membership-validated tenant for a request or
// job through context.Context.
package tenancy

import (
	"context"

	"github.com/Harshitk-cp/clubledger/internal/domain"
)

type contextKey struct{}

// WithTenant returns a copy of ctx bound to t. A nil t leaves ctx unbound.
func WithTenant(ctx context.Context, t *domain.Tenant) context.Context {
	if t == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the bound tenant, or nil.
func FromContext(ctx context.Context) *domain.Tenant {
	t, _ := ctx.Value(contextKey{}).(*domain.Tenant)
	return t
}

// IDFromContext returns the bound tenant's id and whether one is bound.
func IDFromContext(ctx context.Context) (int64, bool) {
	t := FromContext(ctx)
	if t == nil {
		return 0, false
	}
	return t.ID, true
}
