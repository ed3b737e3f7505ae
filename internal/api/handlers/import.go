package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/clubledger/internal/importer"
	"github.com/Harshitk-cp/clubledger/internal/tenancy"
)

const maxUploadBytes = 10 << 20

type ImportHandler struct {
	importer MemberImporter
}

func NewImportHandler(im MemberImporter) *ImportHandler {
	return &ImportHandler{importer: im}
}

type rowErrorResponse struct {
	Line  int    `json:"line"`
	Email string `json:"email,omitempty"`
	Error string `json:"error"`
}

type importResponse struct {
	Imported int                `json:"imported"`
	Skipped  int                `json:"skipped"`
	Errors   []rowErrorResponse `json:"errors"`
}

// Create imports members from a multipart "file" upload. The optional form
// fields email_column and name_column override the default header names.
func (h *ImportHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := tenancy.FromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusForbidden, "no tenant selected")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	mapping := importer.DefaultMapping()
	if v := r.FormValue("email_column"); v != "" {
		mapping.Email = v
	}
	if v := r.FormValue("name_column"); v != "" {
		mapping.Name = v
	}

	sum, err := h.importer.ImportReader(r.Context(), file, header.Filename, tenant.ID, mapping)
	resp := importResponse{Imported: sum.Imported, Skipped: sum.Skipped, Errors: []rowErrorResponse{}}
	for _, re := range sum.Errors {
		resp.Errors = append(resp.Errors, rowErrorResponse{Line: re.Line, Email: re.Email, Error: re.Err.Error()})
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, importer.ErrRowsFailed):
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, importer.ErrMissingColumn), errors.Is(err, importer.ErrEmptyFile):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to import members")
	}
}
