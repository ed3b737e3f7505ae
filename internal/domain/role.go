package domain

import "time"

const (
	RoleAdmin = "Admin"
	RoleStaff = "Staff"
	RoleUser  = "User"
)

// StandardRoles is the ordered role set every new tenant is bootstrapped with.
var StandardRoles = []string{RoleAdmin, RoleStaff, RoleUser}

// Role is unique on (Name, TenantID, Guard). "Admin" in one tenant is a
// different row from "Admin" in another.
type Role struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	TenantID  int64     `json:"tenant_id"`
	Guard     string    `json:"guard"`
	CreatedAt time.Time `json:"created_at"`
}
