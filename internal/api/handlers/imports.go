package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rupeelog/rupeelog/internal/api/middleware"
	"github.com/rupeelog/rupeelog/internal/domain"
	"github.com/rupeelog/rupeelog/internal/importer"
	"github.com/rupeelog/rupeelog/internal/jobs"
)

// ImportService drives the statement import pipeline.
type ImportService interface {
	Upload(ctx context.Context, userID, fileName string, r io.Reader) (*importer.UploadResult, error)
	List(ctx context.Context, userID string, limit int) ([]domain.StatementImport, error)
	Get(ctx context.Context, userID, importID string) (*domain.StatementImport, error)
	Transactions(ctx context.Context, userID, importID string) ([]domain.ExtractedTransaction, error)
	Parse(ctx context.Context, userID, importID, password string) (*jobs.ImportJob, error)
	Categorize(ctx context.Context, userID, importID string) (*jobs.ImportJob, error)
	Commit(ctx context.Context, userID, importID string, includeDuplicates []string) (*domain.StatementImport, error)
	UpdateTransaction(ctx context.Context, userID, importID, txnID string, isSelected *bool, categoryID *string) (*domain.ExtractedTransaction, error)
	Cancel(ctx context.Context, userID, importID string) error
}

// ImportsHandler handles statement import endpoints.
type ImportsHandler struct {
	svc ImportService
	log zerolog.Logger
}

// NewImportsHandler creates a new imports handler.
func NewImportsHandler(svc ImportService, log zerolog.Logger) *ImportsHandler {
	return &ImportsHandler{svc: svc, log: log}
}

// Upload handles POST /api/imports (multipart, field "file")
func (h *ImportsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, `multipart "file" field is required`)
		return
	}
	defer file.Close()

	res, err := h.svc.Upload(ctx, middleware.UserID(ctx), header.Filename, file)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info().
		Str("import_id", res.Import.ID).
		Str("filename", res.Import.FileName).
		Msg("Statement uploaded")

	resp := map[string]interface{}{"import": res.Import}
	if res.DuplicateOfID != "" {
		resp["duplicate_of_id"] = res.DuplicateOfID
	}
	middleware.WriteJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/imports
func (h *ImportsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	imports, err := h.svc.List(ctx, middleware.UserID(ctx), limit)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	if imports == nil {
		imports = []domain.StatementImport{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"imports": imports,
		"count":   len(imports),
	})
}

// Get handles GET /api/imports/{id}. Clients poll this while a parse or
// categorize job runs.
func (h *ImportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	si, err := h.svc.Get(ctx, middleware.UserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, si)
}

// Transactions handles GET /api/imports/{id}/transactions
func (h *ImportsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txns, err := h.svc.Transactions(ctx, middleware.UserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	if txns == nil {
		txns = []domain.ExtractedTransaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txns,
		"count":        len(txns),
	})
}

// Parse handles POST /api/imports/{id}/parse. The optional body carries the
// PDF password when the statement is protected.
func (h *ImportsHandler) Parse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	job, err := h.svc.Parse(ctx, middleware.UserID(ctx), chi.URLParam(r, "id"), req.Password)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("import_id", job.ImportID).Msg("Parse job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":    job.JobID,
		"import_id": job.ImportID,
		"status":    string(job.Status),
	})
}

// Categorize handles POST /api/imports/{id}/categorize
func (h *ImportsHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	job, err := h.svc.Categorize(ctx, middleware.UserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("import_id", job.ImportID).Msg("Categorize job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":    job.JobID,
		"import_id": job.ImportID,
		"status":    string(job.Status),
	})
}

// Commit handles POST /api/imports/{id}/commit. Selections carry per-row
// category overrides; listing a duplicate's id is the explicit instruction
// to import that row anyway.
func (h *ImportsHandler) Commit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	importID := chi.URLParam(r, "id")

	var req struct {
		Selections []struct {
			TransactionID string `json:"transaction_id"`
			CategoryID    string `json:"category_id"`
		} `json:"selections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	include := make([]string, 0, len(req.Selections))
	for _, sel := range req.Selections {
		if sel.TransactionID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "transaction_id is required in selections")
			return
		}
		if sel.CategoryID != "" {
			categoryID := sel.CategoryID
			if _, err := h.svc.UpdateTransaction(ctx, userID, importID, sel.TransactionID, nil, &categoryID); err != nil {
				respondError(w, h.log, err)
				return
			}
		}
		include = append(include, sel.TransactionID)
	}

	si, err := h.svc.Commit(ctx, userID, importID, include)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info().
		Str("import_id", si.ID).
		Int("imported", si.ImportedTransactions).
		Msg("Import committed")

	middleware.WriteJSON(w, http.StatusOK, si)
}

// UpdateTransaction handles PATCH /api/imports/{id}/transactions/{txn_id}
func (h *ImportsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		IsSelected *bool   `json:"is_selected"`
		CategoryID *string `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IsSelected == nil && req.CategoryID == nil {
		middleware.WriteError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	txn, err := h.svc.UpdateTransaction(ctx, middleware.UserID(ctx),
		chi.URLParam(r, "id"), chi.URLParam(r, "txn_id"), req.IsSelected, req.CategoryID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, txn)
}

// Cancel handles DELETE /api/imports/{id}
func (h *ImportsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.svc.Cancel(ctx, middleware.UserID(ctx), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
