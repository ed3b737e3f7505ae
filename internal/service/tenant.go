package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSlugTaken   = errors.New("tenant slug already taken")
	ErrInvalidSlug = errors.New("slug must be lowercase letters, digits and dashes")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CreateTenantInput struct {
	Name         string
	Slug         string
	EnableWallet bool
}

// TenantService creates tenants. Role bootstrap and the creator's wallet are
// handled asynchronously by the TenantCreated event.
type TenantService struct {
	tenants   domain.TenantStore
	dir       *DirectoryService
	publisher EventPublisher
	logger    *zap.Logger
}

func NewTenantService(ts domain.TenantStore, dir *DirectoryService, pub EventPublisher, logger *zap.Logger) *TenantService {
	return &TenantService{tenants: ts, dir: dir, publisher: pub, logger: logger}
}

func (s *TenantService) Create(ctx context.Context, in CreateTenantInput, creatorID int64) (*domain.Tenant, error) {
	slug := in.Slug
	if slug == "" {
		slug = GenerateSlug(in.Name)
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}

	t := &domain.Tenant{Name: strings.TrimSpace(in.Name), Slug: slug, EnableWallet: in.EnableWallet}
	if err := s.tenants.Create(ctx, t); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	if err := s.dir.AddMember(ctx, t.ID, creatorID); err != nil {
		return nil, fmt.Errorf("attach creator to tenant %d: %w", t.ID, err)
	}

	s.logger.Info("tenant created",
		zap.Int64("tenant_id", t.ID),
		zap.String("slug", t.Slug),
		zap.Int64("creator_id", creatorID))

	if err := s.publisher.Publish(ctx, domain.TenantCreated{TenantID: t.ID, CreatorID: creatorID}); err != nil {
		// The tenant stays; `clubctl create-user-wallets` can repair the wallet.
		s.logger.Error("failed to publish tenant created event", zap.Int64("tenant_id", t.ID), zap.Error(err))
	}
	return t, nil
}

// GenerateSlug derives a URL-safe slug from name with a short random suffix.
func GenerateSlug(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '_', r == '-':
			return '-'
		default:
			return -1
		}
	}, base)
	base = strings.Trim(collapseDashes(base), "-")
	if base == "" {
		base = "club"
	}
	return base + "-" + uuid.NewString()[:8]
}

func collapseDashes(s string) string {
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}
