package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"go.uber.org/zap"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrNotMember      = errors.New("user is not a member of the tenant")
)

// DirectoryService answers tenant lookups and tenant<->user membership.
type DirectoryService struct {
	tenants domain.TenantStore
	members domain.MembershipStore
	logger  *zap.Logger
}

func NewDirectoryService(ts domain.TenantStore, ms domain.MembershipStore, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{tenants: ts, members: ms, logger: logger}
}

// FindTenant resolves ref as a numeric id first and then as a slug.
func (s *DirectoryService) FindTenant(ctx context.Context, ref string) (*domain.Tenant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrTenantNotFound
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		t, err := s.tenants.GetByID(ctx, id)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	t, err := s.tenants.GetBySlug(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *DirectoryService) GetTenant(ctx context.Context, id int64) (*domain.Tenant, error) {
	t, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *DirectoryService) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	return s.tenants.List(ctx)
}

func (s *DirectoryService) MembersOf(ctx context.Context, tenantID int64) ([]domain.User, error) {
	return s.members.ListUsers(ctx, tenantID)
}

func (s *DirectoryService) TenantsOf(ctx context.Context, userID int64) ([]domain.Tenant, error) {
	return s.tenants.ListByUser(ctx, userID)
}

// AddMember attaches userID to tenantID. Attaching an existing member is a no-op.
func (s *DirectoryService) AddMember(ctx context.Context, tenantID, userID int64) error {
	added, err := s.members.Add(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if added {
		s.logger.Info("member added", zap.Int64("tenant_id", tenantID), zap.Int64("user_id", userID))
	}
	return nil
}

func (s *DirectoryService) IsMember(ctx context.Context, tenantID, userID int64) (bool, error) {
	return s.members.Exists(ctx, tenantID, userID)
}

// RequireMember returns ErrNotMember unless userID belongs to tenantID.
func (s *DirectoryService) RequireMember(ctx context.Context, tenantID, userID int64) error {
	ok, err := s.members.Exists(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}
