package handlers

import (
	"context"
	"io"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/importer"
	"github.com/Harshitk-cp/clubledger/internal/service"
)

// The interfaces below are the slices of the service layer each handler
// needs. The concrete services in internal/service satisfy them.

type Accounts interface {
	Register(ctx context.Context, email, name, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	AddMember(ctx context.Context, tenantID int64, email, name string) (*domain.User, error)
}

type TenantCreator interface {
	Create(ctx context.Context, in service.CreateTenantInput, creatorID int64) (*domain.Tenant, error)
}

type Directory interface {
	FindTenant(ctx context.Context, ref string) (*domain.Tenant, error)
	TenantsOf(ctx context.Context, userID int64) ([]domain.Tenant, error)
	MembersOf(ctx context.Context, tenantID int64) ([]domain.User, error)
	IsMember(ctx context.Context, tenantID, userID int64) (bool, error)
}

type Roles interface {
	FindRole(ctx context.Context, name string, tenantID int64) (*domain.Role, error)
	AssignRole(ctx context.Context, userID int64, role *domain.Role) error
	RevokeRole(ctx context.Context, userID int64, role *domain.Role) error
	RolesOf(ctx context.Context, userID, tenantID int64) ([]string, error)
}

type Wallets interface {
	ProvisionWallet(ctx context.Context, userID int64, tenant *domain.Tenant, opts domain.ProvisionOpts) (domain.ProvisionResult, error)
	GetWallet(ctx context.Context, userID, tenantID int64) (*domain.Wallet, error)
	ListWallets(ctx context.Context, tenantID int64) ([]domain.Wallet, error)
}

type MemberImporter interface {
	ImportReader(ctx context.Context, r io.Reader, source string, tenantID int64, mapping importer.ColumnMapping) (importer.Summary, error)
}

var (
	_ Accounts       = (*service.UserService)(nil)
	_ TenantCreator  = (*service.TenantService)(nil)
	_ Directory      = (*service.DirectoryService)(nil)
	_ Roles          = (*service.RoleService)(nil)
	_ Wallets        = (*service.WalletService)(nil)
	_ MemberImporter = (*importer.Importer)(nil)
)
