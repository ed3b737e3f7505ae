package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/tenancy"
	"go.uber.org/zap"
)

// EventPublisher enqueues domain events for asynchronous handling.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Subscriber registers handlers for event kinds.
type Subscriber interface {
	Subscribe(kind domain.EventKind, h func(ctx context.Context, ev domain.Event) error)
}

// Provisioner reacts to user and tenant lifecycle events by provisioning
// wallets and tenant roles. Every handler is safe to run more than once.
type Provisioner struct {
	dir     *DirectoryService
	users   domain.UserStore
	roles   *RoleService
	wallets *WalletService
	logger  *zap.Logger
}

func NewProvisioner(dir *DirectoryService, us domain.UserStore, roles *RoleService, wallets *WalletService, logger *zap.Logger) *Provisioner {
	return &Provisioner{dir: dir, users: us, roles: roles, wallets: wallets, logger: logger}
}

// Register wires the provisioner into the event registration table.
func (p *Provisioner) Register(sub Subscriber) {
	sub.Subscribe(domain.EventUserRegistered, func(ctx context.Context, ev domain.Event) error {
		return p.OnUserRegistered(ctx, ev.(domain.UserRegistered))
	})
	sub.Subscribe(domain.EventUserCreated, func(ctx context.Context, ev domain.Event) error {
		return p.OnUserCreated(ctx, ev.(domain.UserCreated))
	})
	sub.Subscribe(domain.EventTenantCreated, func(ctx context.Context, ev domain.Event) error {
		return p.OnTenantCreated(ctx, ev.(domain.TenantCreated))
	})
}

// OnUserRegistered provisions a wallet in the user's first tenant. A user
// with no tenant yet is left alone.
func (p *Provisioner) OnUserRegistered(ctx context.Context, ev domain.UserRegistered) error {
	tenants, err := p.dir.TenantsOf(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("list tenants of user %d: %w", ev.UserID, err)
	}
	if len(tenants) == 0 {
		p.logger.Debug("registered user has no tenant, skipping wallet", zap.Int64("user_id", ev.UserID))
		return nil
	}
	return p.provision(ctx, ev.UserID, &tenants[0])
}

// OnUserCreated resolves the tenant from the event, then from the tenant
// bound to ctx, then from the user's own memberships.
func (p *Provisioner) OnUserCreated(ctx context.Context, ev domain.UserCreated) error {
	tenant, err := p.resolveTenant(ctx, ev)
	if err != nil {
		return err
	}
	if tenant == nil {
		p.logger.Debug("created user has no tenant context, skipping wallet", zap.Int64("user_id", ev.UserID))
		return nil
	}
	return p.provision(ctx, ev.UserID, tenant)
}

// OnTenantCreated bootstraps the standard roles and the creator's wallet.
// A role bootstrap failure is already logged and reported by the role
// service; the wallet is still provisioned and the tenant is kept.
func (p *Provisioner) OnTenantCreated(ctx context.Context, ev domain.TenantCreated) error {
	tenant, err := p.dir.GetTenant(ctx, ev.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant %d: %w", ev.TenantID, err)
	}

	roleErr := p.roles.BootstrapTenantRoles(ctx, tenant, ev.CreatorID)
	if err := p.provision(ctx, ev.CreatorID, tenant); err != nil {
		return err
	}
	// Bootstrap is find-or-create, so returning the error lets the queue
	// retry it without duplicating roles.
	return roleErr
}

func (p *Provisioner) resolveTenant(ctx context.Context, ev domain.UserCreated) (*domain.Tenant, error) {
	if ev.TenantID != nil {
		return p.dir.GetTenant(ctx, *ev.TenantID)
	}
	if t := tenancy.FromContext(ctx); t != nil {
		return t, nil
	}
	tenants, err := p.dir.TenantsOf(ctx, ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("list tenants of user %d: %w", ev.UserID, err)
	}
	if len(tenants) == 0 {
		return nil, nil
	}
	return &tenants[0], nil
}

func (p *Provisioner) provision(ctx context.Context, userID int64, tenant *domain.Tenant) error {
	res, err := p.wallets.ProvisionWallet(ctx, userID, tenant, domain.ProvisionOpts{})
	if err != nil {
		return fmt.Errorf("provision wallet for user %d in tenant %d: %w", userID, tenant.ID, err)
	}
	p.logger.Debug("wallet provisioning finished",
		zap.Int64("tenant_id", tenant.ID),
		zap.Int64("user_id", userID),
		zap.String("outcome", string(res.Outcome)))
	return nil
}
