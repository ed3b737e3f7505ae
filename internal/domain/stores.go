package domain

import (
	"context"
)

type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id int64) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	// ListByUser returns the tenants a user is a member of, oldest membership first.
	ListByUser(ctx context.Context, userID int64) ([]Tenant, error)
}

type MembershipStore interface {
	// Add attaches userID to tenantID. It reports false when the membership
	// already existed.
	Add(ctx context.Context, tenantID, userID int64) (bool, error)
	Exists(ctx context.Context, tenantID, userID int64) (bool, error)
	ListUsers(ctx context.Context, tenantID int64) ([]User, error)
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type RoleStore interface {
	Create(ctx context.Context, r *Role) error
	Get(ctx context.Context, name string, tenantID int64, guard string) (*Role, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]Role, error)
	// Assign grants roleID to userID. Granting an already held role is a no-op.
	Assign(ctx context.Context, userID, roleID int64) error
	Revoke(ctx context.Context, userID, roleID int64) error
	HasRole(ctx context.Context, userID int64, name string, tenantID int64) (bool, error)
	NamesForUser(ctx context.Context, userID, tenantID int64) ([]string, error)
}

type WalletStore interface {
	Create(ctx context.Context, w *Wallet) error
	GetByTenantAndUser(ctx context.Context, tenantID, userID int64) (*Wallet, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]Wallet, error)
}
