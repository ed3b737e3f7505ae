package domain

import (
	"time"
)

type Tenant struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	EnableWallet bool      `json:"enable_wallet"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Membership attaches a user to a tenant. (TenantID, UserID) is unique.
type Membership struct {
	TenantID  int64     `json:"tenant_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
