package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/metrics"
	"github.com/Harshitk-cp/clubledger/internal/monitoring"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"go.uber.org/zap"
)

var (
	ErrRoleNotFound  = errors.New("role not found")
	ErrRoleBootstrap = errors.New("role bootstrap failed")
)

type RoleService struct {
	roles    domain.RoleStore
	dir      *DirectoryService
	guard    string
	reporter monitoring.Reporter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewRoleService(rs domain.RoleStore, dir *DirectoryService, guard string, reporter monitoring.Reporter, m *metrics.Metrics, logger *zap.Logger) *RoleService {
	if reporter == nil {
		reporter = monitoring.Nop{}
	}
	return &RoleService{roles: rs, dir: dir, guard: guard, reporter: reporter, metrics: m, logger: logger}
}

// Guard returns the guard roles are scoped under when none is given.
func (s *RoleService) Guard() string {
	return s.guard
}

// EnsureRole returns the role keyed by (name, tenantID, guard), creating it
// if absent. A concurrent creator winning the insert is not an error.
func (s *RoleService) EnsureRole(ctx context.Context, name string, tenantID int64, guard string) (*domain.Role, error) {
	if guard == "" {
		guard = s.guard
	}

	r, err := s.roles.Get(ctx, name, tenantID, guard)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	r = &domain.Role{Name: name, TenantID: tenantID, Guard: guard}
	if err := s.roles.Create(ctx, r); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return s.roles.Get(ctx, name, tenantID, guard)
		}
		return nil, err
	}
	return r, nil
}

// FindRole looks up an existing role within tenantID.
func (s *RoleService) FindRole(ctx context.Context, name string, tenantID int64) (*domain.Role, error) {
	r, err := s.roles.Get(ctx, name, tenantID, s.guard)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return r, nil
}

// AssignRole grants role to userID. The user must be a member of the role's
// tenant. Re-granting a held role is a no-op.
func (s *RoleService) AssignRole(ctx context.Context, userID int64, role *domain.Role) error {
	if err := s.dir.RequireMember(ctx, role.TenantID, userID); err != nil {
		return err
	}
	return s.roles.Assign(ctx, userID, role.ID)
}

func (s *RoleService) RevokeRole(ctx context.Context, userID int64, role *domain.Role) error {
	return s.roles.Revoke(ctx, userID, role.ID)
}

func (s *RoleService) HasRole(ctx context.Context, userID int64, name string, tenantID int64) (bool, error) {
	return s.roles.HasRole(ctx, userID, name, tenantID)
}

func (s *RoleService) RolesOf(ctx context.Context, userID, tenantID int64) ([]string, error) {
	return s.roles.NamesForUser(ctx, userID, tenantID)
}

func (s *RoleService) ListRoles(ctx context.Context, tenantID int64) ([]domain.Role, error) {
	return s.roles.ListByTenant(ctx, tenantID)
}

// BootstrapTenantRoles creates the standard role set for tenant and grants
// Admin to creatorID. Failures are logged and reported with the tenant id;
// the tenant itself is left in place.
func (s *RoleService) BootstrapTenantRoles(ctx context.Context, tenant *domain.Tenant, creatorID int64) error {
	err := s.bootstrap(ctx, tenant, creatorID)
	s.metrics.RecordBootstrap(err)
	if err != nil {
		s.logger.Error("failed to bootstrap tenant roles",
			zap.Int64("tenant_id", tenant.ID),
			zap.Int64("creator_id", creatorID),
			zap.Error(err))
		s.reporter.Capture(ctx, err, map[string]string{
			"tenant_id":  strconv.FormatInt(tenant.ID, 10),
			"creator_id": strconv.FormatInt(creatorID, 10),
		})
		return err
	}
	s.logger.Info("tenant roles bootstrapped", zap.Int64("tenant_id", tenant.ID), zap.Int64("creator_id", creatorID))
	return nil
}

func (s *RoleService) bootstrap(ctx context.Context, tenant *domain.Tenant, creatorID int64) error {
	var admin *domain.Role
	var errs []error
	for _, name := range domain.StandardRoles {
		r, err := s.EnsureRole(ctx, name, tenant.ID, s.guard)
		if err != nil {
			errs = append(errs, fmt.Errorf("ensure role %q: %w", name, err))
			continue
		}
		if name == domain.RoleAdmin {
			admin = r
		}
	}

	if admin == nil {
		errs = append(errs, fmt.Errorf("admin role could not be resolved for tenant %d", tenant.ID))
	} else if err := s.AssignRole(ctx, creatorID, admin); err != nil {
		errs = append(errs, fmt.Errorf("assign admin to user %d: %w", creatorID, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrRoleBootstrap, errors.Join(errs...))
	}
	return nil
}
