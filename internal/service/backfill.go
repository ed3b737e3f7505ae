package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"go.uber.org/zap"
)

var ErrInvalidSelector = errors.New("exactly one of --tenant or --all is required")

// Selector picks the tenants a backfill runs over.
type Selector struct {
	TenantRef string
	All       bool
}

func (s Selector) Validate() error {
	if (s.TenantRef == "") == !s.All {
		return ErrInvalidSelector
	}
	return nil
}

type TenantReport struct {
	TenantID int64  `json:"tenant_id"`
	Slug     string `json:"slug"`
	Created  int    `json:"created"`
	Skipped  int    `json:"skipped"`
	// Disabled is set when the tenant was skipped because the wallet
	// feature is off and the run was not forced.
	Disabled bool  `json:"disabled"`
	Err      error `json:"-"`
}

type BackfillReport struct {
	Tenants []TenantReport
	Created int
	Skipped int
	// Errors joins the per-tenant failures. The run itself still completed.
	Errors error
}

// BackfillService creates missing wallets for every member of the selected
// tenants.
type BackfillService struct {
	dir     *DirectoryService
	wallets *WalletService
	logger  *zap.Logger
}

func NewBackfillService(dir *DirectoryService, wallets *WalletService, logger *zap.Logger) *BackfillService {
	return &BackfillService{dir: dir, wallets: wallets, logger: logger}
}

// Run validates sel, resolves the tenant set and processes each tenant
// independently. Human-readable progress is written to out. The returned
// error is non-nil only for an invalid selector or an unresolvable tenant.
func (s *BackfillService) Run(ctx context.Context, sel Selector, force bool, out io.Writer) (BackfillReport, error) {
	if err := sel.Validate(); err != nil {
		return BackfillReport{}, err
	}

	tenants, err := s.resolve(ctx, sel)
	if err != nil {
		return BackfillReport{}, err
	}

	var report BackfillReport
	var errs []error
	for i := range tenants {
		tr := s.processTenant(ctx, &tenants[i], force, out)
		report.Tenants = append(report.Tenants, tr)
		report.Created += tr.Created
		report.Skipped += tr.Skipped
		if tr.Err != nil {
			errs = append(errs, fmt.Errorf("tenant %s: %w", tr.Slug, tr.Err))
		}
	}
	report.Errors = errors.Join(errs...)

	s.logger.Info("wallet backfill finished",
		zap.Int("tenants", len(report.Tenants)),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed_tenants", len(errs)))
	return report, nil
}

func (s *BackfillService) resolve(ctx context.Context, sel Selector) ([]domain.Tenant, error) {
	if sel.All {
		return s.dir.ListTenants(ctx)
	}
	t, err := s.dir.FindTenant(ctx, sel.TenantRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, sel.TenantRef)
	}
	return []domain.Tenant{*t}, nil
}

func (s *BackfillService) processTenant(ctx context.Context, t *domain.Tenant, force bool, out io.Writer) TenantReport {
	tr := TenantReport{TenantID: t.ID, Slug: t.Slug}

	if !t.EnableWallet && !force {
		tr.Disabled = true
		fmt.Fprintf(out, "Skipping tenant %s: wallet feature is disabled (use --force to override)\n", t.Slug)
		s.logger.Warn("wallet feature disabled, tenant skipped", zap.Int64("tenant_id", t.ID))
		return tr
	}

	fmt.Fprintf(out, "Processing tenant %s (id=%d)\n", t.Slug, t.ID)

	members, err := s.dir.MembersOf(ctx, t.ID)
	if err != nil {
		tr.Err = fmt.Errorf("list members: %w", err)
		fmt.Fprintf(out, "  error: %v\n", tr.Err)
		return tr
	}

	var errs []error
	for _, u := range members {
		res, err := s.wallets.ProvisionWallet(ctx, u.ID, t, domain.ProvisionOpts{Force: force})
		if err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", u.ID, err))
			continue
		}
		if res.Outcome == domain.OutcomeCreated {
			tr.Created++
		} else {
			tr.Skipped++
		}
	}
	tr.Err = errors.Join(errs...)

	fmt.Fprintf(out, "  Created %d wallets, skipped %d existing wallets\n", tr.Created, tr.Skipped)
	if tr.Err != nil {
		fmt.Fprintf(out, "  %d member(s) failed: %v\n", len(errs), tr.Err)
	}
	return tr
}
