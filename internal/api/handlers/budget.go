package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rupeelog/rupeelog/internal/api/middleware"
	"github.com/rupeelog/rupeelog/internal/budget"
	"github.com/rupeelog/rupeelog/internal/domain"
)

// BudgetService evaluates budget health and applies suggestions.
type BudgetService interface {
	Health(ctx context.Context, userID string, month domain.Month) (*budget.Report, error)
	AcceptReallocation(ctx context.Context, userID string, re budget.Reallocation) (*domain.CategoryBudget, error)
	DismissSuggestion(userID, id string)
}

// BudgetHandler handles budget health endpoints.
type BudgetHandler struct {
	svc BudgetService
	log zerolog.Logger
}

// NewBudgetHandler creates a new budget handler.
func NewBudgetHandler(svc BudgetService, log zerolog.Logger) *BudgetHandler {
	return &BudgetHandler{svc: svc, log: log}
}

// Health handles GET /api/budget/health
func (h *BudgetHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month := domain.CurrentMonth()
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := domain.ParseMonth(m)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = parsed
	}

	report, err := h.svc.Health(ctx, middleware.UserID(ctx), month)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}

// AcceptReallocation handles POST /api/budget/reallocations. The request
// body is the suggestion's reallocation payload echoed back by the client.
func (h *BudgetHandler) AcceptReallocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var re budget.Reallocation
	if err := json.NewDecoder(r.Body).Decode(&re); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cb, err := h.svc.AcceptReallocation(ctx, middleware.UserID(ctx), re)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info().
		Str("category_id", cb.CategoryID).
		Str("month", cb.Month.String()).
		Msg("Reallocation accepted")

	middleware.WriteJSON(w, http.StatusOK, cb)
}

// DismissSuggestion handles POST /api/budget/suggestions/{id}/dismiss. The
// suggestion stays hidden until the server restarts.
func (h *BudgetHandler) DismissSuggestion(w http.ResponseWriter, r *http.Request) {
	h.svc.DismissSuggestion(middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
