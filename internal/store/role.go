package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleStore struct {
	db *pgxpool.Pool
}

func NewRoleStore(db *pgxpool.Pool) *RoleStore {
	return &RoleStore{db: db}
}

func (s *RoleStore) Create(ctx context.Context, r *domain.Role) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO roles (name, tenant_id, guard) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		r.Name, r.TenantID, r.Guard,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *RoleStore) Get(ctx context.Context, name string, tenantID int64, guard string) (*domain.Role, error) {
	r := &domain.Role{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, tenant_id, guard, created_at
		 FROM roles WHERE name = $1 AND tenant_id = $2 AND guard = $3`,
		name, tenantID, guard,
	).Scan(&r.ID, &r.Name, &r.TenantID, &r.Guard, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *RoleStore) ListByTenant(ctx context.Context, tenantID int64) ([]domain.Role, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, tenant_id, guard, created_at
		 FROM roles WHERE tenant_id = $1 ORDER BY id`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var r domain.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.TenantID, &r.Guard, &r.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (s *RoleStore) Assign(ctx context.Context, userID, roleID int64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO role_user (user_id, role_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID, roleID,
	)
	return err
}

func (s *RoleStore) Revoke(ctx context.Context, userID, roleID int64) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM role_user WHERE user_id = $1 AND role_id = $2`,
		userID, roleID,
	)
	return err
}

// HasRole resolves name within tenantID only; a same-named role in another
// tenant never matches.
func (s *RoleStore) HasRole(ctx context.Context, userID int64, name string, tenantID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM role_user ru
			JOIN roles r ON r.id = ru.role_id
			WHERE ru.user_id = $1 AND r.name = $2 AND r.tenant_id = $3
		 )`,
		userID, name, tenantID,
	).Scan(&exists)
	return exists, err
}

func (s *RoleStore) NamesForUser(ctx context.Context, userID, tenantID int64) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT r.name FROM role_user ru
		 JOIN roles r ON r.id = ru.role_id
		 WHERE ru.user_id = $1 AND r.tenant_id = $2
		 ORDER BY r.name`,
		userID, tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
