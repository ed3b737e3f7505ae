package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/clubledger/internal/api/middleware"
	"github.com/Harshitk-cp/clubledger/internal/service"
	"github.com/go-chi/chi/v5"
)

type TenantHandler struct {
	tenants TenantCreator
	dir     Directory
}

func NewTenantHandler(tenants TenantCreator, dir Directory) *TenantHandler {
	return &TenantHandler{tenants: tenants, dir: dir}
}

type createTenantRequest struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	EnableWallet bool   `json:"enable_wallet"`
}

// Create makes a new tenant owned by the caller. Roles and the caller's
// wallet follow asynchronously.
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tenant, err := h.tenants.Create(r.Context(), service.CreateTenantInput{
		Name:         req.Name,
		Slug:         req.Slug,
		EnableWallet: req.EnableWallet,
	}, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSlug):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSlugTaken):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create tenant")
		}
		return
	}

	writeJSON(w, http.StatusCreated, tenant)
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenants, err := h.dir.TenantsOf(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tenants")
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

// Get resolves {ref} as id or slug. Tenants the caller does not belong to
// are reported as not found.
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenant, err := h.dir.FindTenant(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get tenant")
		return
	}

	member, err := h.dir.IsMember(r.Context(), tenant.ID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get tenant")
		return
	}
	if !member {
		writeError(w, http.StatusNotFound, service.ErrTenantNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}
