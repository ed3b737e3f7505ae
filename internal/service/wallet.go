package service

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/metrics"
	"github.com/Harshitk-cp/clubledger/internal/store"
	"go.uber.org/zap"
)

var ErrWalletNotFound = errors.New("wallet not found")

// WalletService provisions and reads per-(tenant, user) wallets.
type WalletService struct {
	wallets domain.WalletStore
	dir     *DirectoryService
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewWalletService(ws domain.WalletStore, dir *DirectoryService, m *metrics.Metrics, logger *zap.Logger) *WalletService {
	return &WalletService{wallets: ws, dir: dir, metrics: m, logger: logger}
}

// ProvisionWallet ensures userID has exactly one wallet in tenant.
//
// The existence check only short-circuits the common case; the
// (tenant_id, user_id) unique key is what prevents duplicates when several
// triggers race, and losing that race is reported as already_exists.
func (s *WalletService) ProvisionWallet(ctx context.Context, userID int64, tenant *domain.Tenant, opts domain.ProvisionOpts) (domain.ProvisionResult, error) {
	log := s.logger.With(zap.Int64("tenant_id", tenant.ID), zap.Int64("user_id", userID))

	if !tenant.EnableWallet && !opts.Force {
		log.Warn("wallet feature disabled for tenant, skipping")
		return s.result(domain.OutcomeSkippedFeatureDisabled, nil), nil
	}

	if err := s.dir.RequireMember(ctx, tenant.ID, userID); err != nil {
		return domain.ProvisionResult{}, err
	}

	existing, err := s.wallets.GetByTenantAndUser(ctx, tenant.ID, userID)
	if err == nil {
		log.Debug("wallet already exists")
		return s.result(domain.OutcomeSkippedAlreadyExists, existing), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.ProvisionResult{}, err
	}

	w := &domain.Wallet{TenantID: tenant.ID, UserID: userID, Balance: 0}
	if err := s.wallets.Create(ctx, w); err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Info("wallet created concurrently, skipping")
			return s.result(domain.OutcomeSkippedAlreadyExists, nil), nil
		}
		return domain.ProvisionResult{}, err
	}

	log.Info("wallet created", zap.Int64("wallet_id", w.ID))
	return s.result(domain.OutcomeCreated, w), nil
}

func (s *WalletService) GetWallet(ctx context.Context, userID, tenantID int64) (*domain.Wallet, error) {
	w, err := s.wallets.GetByTenantAndUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *WalletService) ListWallets(ctx context.Context, tenantID int64) ([]domain.Wallet, error) {
	return s.wallets.ListByTenant(ctx, tenantID)
}

func (s *WalletService) result(outcome domain.ProvisionOutcome, w *domain.Wallet) domain.ProvisionResult {
	s.metrics.RecordProvision(outcome)
	return domain.ProvisionResult{Outcome: outcome, Wallet: w}
}
