package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WalletStore struct {
	db *pgxpool.Pool
}

func NewWalletStore(db *pgxpool.Pool) *WalletStore {
	return &WalletStore{db: db}
}

// Create inserts w. The (tenant_id, user_id) unique key rejects a second
// wallet for the same pair with ErrConflict.
func (s *WalletStore) Create(ctx context.Context, w *domain.Wallet) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO wallets (tenant_id, user_id, balance) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		w.TenantID, w.UserID, w.Balance,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *WalletStore) GetByTenantAndUser(ctx context.Context, tenantID, userID int64) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, balance, created_at, updated_at
		 FROM wallets WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID,
	).Scan(&w.ID, &w.TenantID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *WalletStore) ListByTenant(ctx context.Context, tenantID int64) ([]domain.Wallet, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, user_id, balance, created_at, updated_at
		 FROM wallets WHERE tenant_id = $1 ORDER BY user_id`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.ID, &w.TenantID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}
