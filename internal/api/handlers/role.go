package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/service"
	"github.com/Harshitk-cp/clubledger/internal/tenancy"
	"github.com/go-chi/chi/v5"
)

type RoleHandler struct {
	roles Roles
}

func NewRoleHandler(roles Roles) *RoleHandler {
	return &RoleHandler{roles: roles}
}

type assignRoleRequest struct {
	Role string `json:"role"`
}

type rolesResponse struct {
	UserID int64    `json:"user_id"`
	Roles  []string `json:"roles"`
}

func (h *RoleHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role == "" {
		writeError(w, http.StatusBadRequest, "role is required")
		return
	}

	userID, role, ok := h.target(w, r, req.Role)
	if !ok {
		return
	}

	if err := h.roles.AssignRole(r.Context(), userID, role); err != nil {
		if errors.Is(err, service.ErrNotMember) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to assign role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoleHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.target(w, r, chi.URLParam(r, "role"))
	if !ok {
		return
	}

	if err := h.roles.RevokeRole(r.Context(), userID, role); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to revoke role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenancy.FromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusForbidden, "no tenant selected")
		return
	}
	userID, ok := int64Param(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	names, err := h.roles.RolesOf(r.Context(), userID, tenant.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, rolesResponse{UserID: userID, Roles: names})
}

// target resolves the {userID} path parameter and the named role within the
// bound tenant, writing the error response itself when either fails.
func (h *RoleHandler) target(w http.ResponseWriter, r *http.Request, roleName string) (int64, *domain.Role, bool) {
	tenant := tenancy.FromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusForbidden, "no tenant selected")
		return 0, nil, false
	}
	userID, ok := int64Param(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, nil, false
	}

	role, err := h.roles.FindRole(r.Context(), roleName, tenant.ID)
	if err != nil {
		if errors.Is(err, service.ErrRoleNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return 0, nil, false
		}
		writeError(w, http.StatusInternalServerError, "failed to look up role")
		return 0, nil, false
	}
	return userID, role, true
}
