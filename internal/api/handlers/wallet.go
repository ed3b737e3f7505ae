package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/clubledger/internal/api/middleware"
	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/service"
	"github.com/Harshitk-cp/clubledger/internal/tenancy"
)

type WalletHandler struct {
	wallets Wallets
}

func NewWalletHandler(wallets Wallets) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

type provisionRequest struct {
	UserID int64 `json:"user_id"`
	Force  bool  `json:"force"`
}

func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenancy.FromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusForbidden, "no tenant selected")
		return
	}

	wallets, err := h.wallets.ListWallets(r.Context(), tenant.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list wallets")
		return
	}
	writeJSON(w, http.StatusOK, wallets)
}

// Me returns the caller's wallet in the bound tenant.
func (h *WalletHandler) Me(w http.ResponseWriter, r *http.Request) {
	tenant := tenancy.FromContext(r.Context())
	userID, authed := middleware.UserIDFromContext(r.Context())
	if tenant == nil || !authed {
		writeError(w, http.StatusForbidden, "no tenant selected")
		return
	}

	wallet, err := h.wallets.GetWallet(r.Context(), userID, tenant.ID)
	if err != nil {
		if errors.Is(err, service.ErrWalletNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get wallet")
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// Provision ensures a member of the bound tenant has a wallet. Skips are
// reported through the outcome with 200; a created wallet returns 201.
func (h *WalletHandler) Provision(w http.ResponseWriter, r *http.Request) {
	tenant := tenancy.FromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusForbidden, "no tenant selected")
		return
	}

	var req provisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	res, err := h.wallets.ProvisionWallet(r.Context(), req.UserID, tenant, domain.ProvisionOpts{Force: req.Force})
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to provision wallet")
		return
	}

	status := http.StatusOK
	if res.Outcome == domain.OutcomeCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}
