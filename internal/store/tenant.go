package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tenantColumns = `t.id, t.slug, t.name, t.enable_wallet, t.created_at, t.updated_at`

type TenantStore struct {
	db *pgxpool.Pool
}

func NewTenantStore(db *pgxpool.Pool) *TenantStore {
	return &TenantStore{db: db}
}

func (s *TenantStore) Create(ctx context.Context, t *domain.Tenant) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO tenants (slug, name, enable_wallet) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		t.Slug, t.Name, t.EnableWallet,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *TenantStore) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	return s.getOne(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.id = $1`, id)
}

func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return s.getOne(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.slug = $1`, slug)
}

func (s *TenantStore) List(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.db.Query(ctx, `SELECT `+tenantColumns+` FROM tenants t ORDER BY t.id`)
	if err != nil {
		return nil, err
	}
	return scanTenants(rows)
}

func (s *TenantStore) ListByUser(ctx context.Context, userID int64) ([]domain.Tenant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+tenantColumns+`
		 FROM tenants t
		 JOIN tenant_user tu ON tu.tenant_id = t.id
		 WHERE tu.user_id = $1
		 ORDER BY tu.created_at, t.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return scanTenants(rows)
}

func (s *TenantStore) getOne(ctx context.Context, query string, arg any) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := s.db.QueryRow(ctx, query, arg).
		Scan(&t.ID, &t.Slug, &t.Name, &t.EnableWallet, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTenants(rows pgx.Rows) ([]domain.Tenant, error) {
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.EnableWallet, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}
