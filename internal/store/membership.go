package store

import (
	"context"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MembershipStore struct {
	db *pgxpool.Pool
}

func NewMembershipStore(db *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{db: db}
}

func (s *MembershipStore) Add(ctx context.Context, tenantID, userID int64) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO tenant_user (tenant_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (tenant_id, user_id) DO NOTHING`,
		tenantID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *MembershipStore) Exists(ctx context.Context, tenantID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenant_user WHERE tenant_id = $1 AND user_id = $2)`,
		tenantID, userID,
	).Scan(&exists)
	return exists, err
}

func (s *MembershipStore) ListUsers(ctx context.Context, tenantID int64) ([]domain.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.email, u.name, u.password_hash, u.created_at, u.updated_at
		 FROM users u
		 JOIN tenant_user tu ON tu.user_id = u.id
		 WHERE tu.tenant_id = $1
		 ORDER BY u.id`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
