package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/clubledger/internal/service"
	"github.com/Harshitk-cp/clubledger/internal/tenancy"
)

type MemberHandler struct {
	accounts Accounts
	dir      Directory
}

func NewMemberHandler(accounts Accounts, dir Directory) *MemberHandler {
	return &MemberHandler{accounts: accounts, dir: dir}
}

type addMemberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Create attaches a user to the bound tenant by email, creating the user if
// needed. Their wallet is provisioned by the resulting UserCreated event.
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := tenancy.FromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusForbidden, "no tenant selected")
		return
	}

	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.accounts.AddMember(r.Context(), tenant.ID, req.Email, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant := tenancy.FromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusForbidden, "no tenant selected")
		return
	}

	users, err := h.dir.MembersOf(r.Context(), tenant.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	writeJSON(w, http.StatusOK, users)
}
